package vatrate_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gym-billing/internal/vatrate"
)

func TestSeedIsIdempotent(t *testing.T) {
	store := vatrate.NewMemoryStore()
	tenantID := uuid.New()

	n, err := vatrate.Seed(context.Background(), store, tenantID)
	require.NoError(t, err)
	require.Equal(t, 8, n)

	n, err = vatrate.Seed(context.Background(), store, tenantID)
	require.NoError(t, err)
	require.Zero(t, n)

	rates, err := store.List(context.Background(), tenantID)
	require.NoError(t, err)
	require.Len(t, rates, 8)
	for _, r := range rates {
		if r.Percentage.IsZero() {
			require.Equal(t, r.Code, r.Nature)
		} else {
			require.Empty(t, r.Nature)
		}
	}
}
