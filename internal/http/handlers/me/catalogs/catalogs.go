// Package catalogs реализует HTTP-обработчик каталогов, видимых текущему пользователю.
package catalogs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/catalog-entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/response"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// Handler обрабатывает запросы видимых каталогов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения видимых каталогов.
type Service interface {
	VisibleCatalogs(ctx context.Context, user models.Principal) ([]models.VisibleCatalog, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Видимые каталоги
// @Description Мастер-каталог и активные назначенные каталоги, основной первым.
// @Tags Catalogs
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/me/catalogs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.me.catalogs"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.PrincipalFrom(r.Context())
	if !ok {
		log.Error("principal not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.VisibleCatalogs(r.Context(), user)
	if err != nil {
		log.Error("failed to load visible catalogs", sl.Err(err))
		render.Status(r, response.StatusFor(err))
		render.JSON(w, r, response.FromError(err))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"catalogs": res,
	}))
}
