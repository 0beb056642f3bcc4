package catalogs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/catalog-entitlements/internal/http/middlewarectx"
	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) AssignCatalogs(ctx context.Context, actor models.Principal, userIDs, catalogIDs []string, primaryCatalogID string) (int, error) {
	args := m.Called(ctx, actor, userIDs, catalogIDs, primaryCatalogID)
	return args.Int(0), args.Error(1)
}

const (
	userID    = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	catalogA  = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	catalogB  = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
	actorID   = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	validBody = `{"user_ids":["` + userID + `"],"catalog_ids":["` + catalogA + `","` + catalogB + `"],"primary_catalog_id":"` + catalogB + `"}`
)

var actor = models.Principal{ID: actorID, Role: models.RoleDistributorRep}

func TestAssignCatalogsHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		withActor      bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "успешное назначение",
			body:      validBody,
			withActor: true,
			setupMock: func(m *MockService) {
				m.On("AssignCatalogs", mock.Anything, actor, []string{userID}, []string{catalogA, catalogB}, catalogB).
					Return(1, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"updated":1}}`,
		},
		{
			name:           "нет субъекта",
			body:           validBody,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:           "битый JSON",
			body:           `{"user_ids":`,
			withActor:      true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "пустой список каталогов",
			body:           `{"user_ids":["` + userID + `"],"catalog_ids":[]}`,
			withActor:      true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `CatalogIDs must not be empty`,
		},
		{
			name:           "идентификатор не uuid",
			body:           `{"user_ids":["nope"],"catalog_ids":["` + catalogA + `"]}`,
			withActor:      true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `can contain only uuid`,
		},
		{
			name:      "пользователь вне области",
			body:      validBody,
			withActor: true,
			setupMock: func(m *MockService) {
				m.On("AssignCatalogs", mock.Anything, actor, mock.Anything, mock.Anything, mock.Anything).
					Return(0, apperr.Forbidden("user is outside of actor scope", userID))
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"user is outside of actor scope: ` + userID + `"`,
		},
		{
			name:      "каталог не найден",
			body:      validBody,
			withActor: true,
			setupMock: func(m *MockService) {
				m.On("AssignCatalogs", mock.Anything, actor, mock.Anything, mock.Anything, mock.Anything).
					Return(0, apperr.NotFound("catalog", catalogA))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"catalog not found: ` + catalogA + `"`,
		},
		{
			name:      "основной не из списка",
			body:      validBody,
			withActor: true,
			setupMock: func(m *MockService) {
				m.On("AssignCatalogs", mock.Anything, actor, mock.Anything, mock.Anything, mock.Anything).
					Return(0, apperr.Validation("primary_catalog_id must be one of catalog_ids", catalogB))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `primary_catalog_id must be one of catalog_ids`,
		},
		{
			name:      "ошибка хранилища",
			body:      validBody,
			withActor: true,
			setupMock: func(m *MockService) {
				m.On("AssignCatalogs", mock.Anything, actor, mock.Anything, mock.Anything, mock.Anything).
					Return(0, apperr.Storage(errors.New("pq: connection refused")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"internal error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(logger, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments/catalogs", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.withActor {
				req = req.WithContext(middlewarectx.WithPrincipal(req.Context(), actor))
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
