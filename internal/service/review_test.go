package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

func TestFindNearDuplicates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rawRepo := repository.NewRawTransactionRepo(db)
	svc := &ReviewService{Raw: rawRepo}

	// Same amount, one day apart, nearly identical descriptions.
	insertRaw(t, rawRepo, "2026-03-02", "-249.95", "FOETEX COPENHAGEN V 12345", "", "111", "")
	insertRaw(t, rawRepo, "2026-03-03", "-249.95", "FOETEX COPENHAGEN V 12399", "", "111", "")
	// Same amount but too far apart in time.
	insertRaw(t, rawRepo, "2026-03-20", "-249.95", "FOETEX COPENHAGEN V 12345", "", "111", "")
	// Close in time but a different amount.
	insertRaw(t, rawRepo, "2026-03-02", "-120", "FOETEX COPENHAGEN V 12345", "", "111", "")
	// Same amount and date but an unrelated description.
	insertRaw(t, rawRepo, "2026-03-02", "-249.95", "DSB TICKET SALE 9", "", "111", "")

	pairs, err := svc.FindNearDuplicates(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 1)

	pair := pairs[0]
	got := map[string]bool{pair.A.Description: true, pair.B.Description: true}
	require.True(t, got["FOETEX COPENHAGEN V 12345"])
	require.True(t, got["FOETEX COPENHAGEN V 12399"])
	require.GreaterOrEqual(t, pair.Similarity, 0.6)
	require.Less(t, pair.Similarity, 1.0)
}

func TestFindNearDuplicatesIgnoresPending(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	rawRepo := repository.NewRawTransactionRepo(db)
	svc := &ReviewService{Raw: rawRepo}

	insertRaw(t, rawRepo, "2026-03-02", "-249.95", "FOETEX COPENHAGEN V", "", "111", "")
	insertRaw(t, rawRepo, "", "-249.95", "FOETEX COPENHAGEN V", "", "111", "")

	pairs, err := svc.FindNearDuplicates(ctx)
	require.NoError(t, err)
	require.Empty(t, pairs)
}
