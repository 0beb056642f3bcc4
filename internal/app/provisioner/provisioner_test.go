package provisioner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
	"github.com/magabrotheeeer/catalog-entitlements/internal/rabbitmq"
)

const (
	userID  = "3b241101-e2bb-4255-8caf-4136c566a962"
	ghostID = "00000000-0000-0000-0000-000000000001"
)

type ProvisionerMock struct{ mock.Mock }

func (m *ProvisionerMock) ProvisionUser(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func TestHandleUserRegistered(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name          string
		body          string
		setupMock     func(*ProvisionerMock)
		wantErr       bool
		wantMalformed bool
	}{
		{
			name: "provisioned",
			body: `{"user_id":"` + userID + `","role":"BASIC_USER"}`,
			setupMock: func(m *ProvisionerMock) {
				m.On("ProvisionUser", mock.Anything, userID).Return(true, nil)
			},
		},
		{
			name: "already provisioned",
			body: `{"user_id":"` + userID + `","role":"BASIC_USER"}`,
			setupMock: func(m *ProvisionerMock) {
				m.On("ProvisionUser", mock.Anything, userID).Return(false, nil)
			},
		},
		{
			name:          "invalid json",
			body:          `{"user_id":`,
			setupMock:     func(_ *ProvisionerMock) {},
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name:          "missing user id",
			body:          `{"role":"RSM"}`,
			setupMock:     func(_ *ProvisionerMock) {},
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name:          "user id is not a uuid",
			body:          `{"user_id":"abc","role":"BASIC_USER"}`,
			setupMock:     func(_ *ProvisionerMock) {},
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name: "unknown user",
			body: `{"user_id":"` + ghostID + `"}`,
			setupMock: func(m *ProvisionerMock) {
				m.On("ProvisionUser", mock.Anything, ghostID).Return(false, apperr.NotFound("user", ghostID))
			},
			wantErr:       true,
			wantMalformed: true,
		},
		{
			name: "storage failure is retried",
			body: `{"user_id":"` + userID + `"}`,
			setupMock: func(m *ProvisionerMock) {
				m.On("ProvisionUser", mock.Anything, userID).Return(false, apperr.Storage(errors.New("connection reset")))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(ProvisionerMock)
			tt.setupMock(p)

			err := HandleUserRegistered(p, logger)(context.Background(), []byte(tt.body))

			if !tt.wantErr {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantMalformed, errors.Is(err, rabbitmq.ErrMalformed))
			}
			p.AssertExpectations(t)
		})
	}
}
