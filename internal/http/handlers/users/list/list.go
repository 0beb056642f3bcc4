// Package list реализует HTTP-обработчик постраничного списка пользователей
// из области управления субъекта с их назначениями.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/catalog-entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/response"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// Handler обрабатывает запросы списка пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения пользователей.
type Service interface {
	GetUsers(ctx context.Context, actor models.Principal, filter models.UsersFilter) (*models.UsersPage, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Пользователи из области управления с основным каталогом, назначенными каталогами и контрактами.
// @Tags Users
// @Produce  json
// @Security BearerAuth
// @Param search query string false "Поиск по email или имени"
// @Param page query int false "Номер страницы, с 1"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Роль никем не управляет"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		log.Error("principal not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	q := r.URL.Query()
	filter := models.UsersFilter{Search: q.Get("search")}
	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		log.Warn("invalid page parameter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid page parameter"))
		return
	}
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		log.Warn("invalid limit parameter", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit parameter"))
		return
	}

	page, err := h.service.GetUsers(r.Context(), actor, filter)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		render.Status(r, response.StatusFor(err))
		render.JSON(w, r, response.FromError(err))
		return
	}

	log.Debug("users listed", slog.Int("count", len(page.Users)), slog.Int("total", page.Total))
	render.JSON(w, r, response.StatusOKWithData(page))
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
