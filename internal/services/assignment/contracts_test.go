package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/catalog-entitlements/internal/lib/apperr"
)

func TestAssignContracts_AdditiveAndIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	n, err := f.svc.AssignContracts(ctx, dist1, []string{"u1", "u2"}, []string{"K1"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.svc.AssignContracts(ctx, dist1, []string{"u1"}, []string{"K1", "K2"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, f.store.conRows["u1"]["K1"])
	assert.True(t, f.store.conRows["u1"]["K2"])
	assert.False(t, f.store.conRows["u2"]["K2"])

	writes := f.store.writes
	n, err = f.svc.AssignContracts(ctx, dist1, []string{"u1", "u2"}, []string{"K1"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, writes, f.store.writes)
	assert.Len(t, f.notifier.events, 3)
}

func TestAssignContracts_Errors(t *testing.T) {
	tests := []struct {
		name      string
		users     []string
		contracts []string
		kind      error
	}{
		{"empty contracts", []string{"u1"}, nil, apperr.ErrValidation},
		{"empty users", nil, []string{"K1"}, apperr.ErrValidation},
		{"unknown contract", []string{"u1"}, []string{"K1", "K9"}, apperr.ErrNotFound},
		{"out of scope", []string{"u1", "u3"}, []string{"K1"}, apperr.ErrForbidden},
		{"unknown user is indistinguishable from out of scope", []string{"u1", "ghost"}, []string{"K1"}, apperr.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			n, err := f.svc.AssignContracts(context.Background(), dist1, tt.users, tt.contracts)

			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, 0, n)
			assert.Equal(t, 0, f.store.writes)
		})
	}
}
