// Package catalogs реализует HTTP-обработчик массового назначения каталогов.
//
// Handler декодирует тело запроса, валидирует идентификаторы и передаёт
// запрос движку назначений от имени субъекта из контекста. Ошибки движка
// переводятся в HTTP-статусы через response.StatusFor.
package catalogs

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/catalog-entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/catalog-entitlements/internal/http/response"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/sl"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

// Handler обрабатывает запросы на назначение каталогов пользователям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс движка назначений.
type Service interface {
	AssignCatalogs(ctx context.Context, actor models.Principal, userIDs, catalogIDs []string, primaryCatalogID string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Назначить каталоги
// @Description Назначает каталоги пользователям из области управления. Основным становится primary_catalog_id или первый каталог списка.
// @Tags Assignments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.AssignCatalogsRequest true "Пользователи и каталоги"
// @Success 200 {object} response.Response "Число изменённых пользователей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь вне области управления"
// @Failure 404 {object} response.ErrorResponse "Каталог или пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/assignments/catalogs [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.catalogs"
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

	var req models.AssignCatalogsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	updated, err := h.service.AssignCatalogs(r.Context(), actor, req.UserIDs, req.CatalogIDs, req.PrimaryCatalogID)
	if err != nil {
		log.Error("failed to assign catalogs", sl.Err(err), sl.Kind(err), slog.Int("updated", updated))
		render.Status(r, response.StatusFor(err))
		render.JSON(w, r, response.FromError(err))
		return
	}

	log.Info("catalogs assigned", slog.Int("updated", updated))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": updated,
	}))
}
