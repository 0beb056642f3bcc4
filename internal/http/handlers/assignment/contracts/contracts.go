// Package contracts реализует HTTP-обработчик массового назначения прайс-контрактов.
package contracts

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

// Handler обрабатывает запросы на назначение контрактов пользователям.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс движка назначений.
type Service interface {
	AssignContracts(ctx context.Context, actor models.Principal, userIDs, contractIDs []string) (int, error)
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
// @Summary Назначить прайс-контракты
// @Tags Assignments
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.AssignContractsRequest true "Пользователи и контракты"
// @Success 200 {object} response.Response "Число изменённых пользователей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Пользователь вне области управления"
// @Failure 404 {object} response.ErrorResponse "Контракт или пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/assignments/contracts [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.assignment.contracts"
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

	var req models.AssignContractsRequest
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

	updated, err := h.service.AssignContracts(r.Context(), actor, req.UserIDs, req.ContractIDs)
	if err != nil {
		log.Error("failed to assign contracts", sl.Err(err), sl.Kind(err), slog.Int("updated", updated))
		render.Status(r, response.StatusFor(err))
		render.JSON(w, r, response.FromError(err))
		return
	}

	log.Info("contracts assigned", slog.Int("updated", updated))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated": updated,
	}))
}
