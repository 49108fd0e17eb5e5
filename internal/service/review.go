package service

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

const (
	nearDupMaxDaysApart  = 3
	nearDupMinSimilarity = 0.6
)

// ReviewService scans the raw table for near-duplicate pairs that the
// content hash could not collapse (same movement exported twice with a
// slightly different description). It only reports; the raw table is
// append-only and is never mutated here.
type ReviewService struct {
	Raw *repository.RawTransactionRepo
}

// NearDuplicate is a candidate pair for manual inspection.
type NearDuplicate struct {
	A          repository.RawTransaction
	B          repository.RawTransaction
	Similarity float64
}

func (s *ReviewService) FindNearDuplicates(ctx context.Context) ([]NearDuplicate, error) {
	txs, err := s.Raw.ListSettled(ctx)
	if err != nil {
		return nil, err
	}
	var out []NearDuplicate
	for i := 0; i < len(txs); i++ {
		for j := i + 1; j < len(txs); j++ {
			a, b := txs[i], txs[j]
			if !a.Amount.Equal(b.Amount) {
				continue
			}
			if daysApart(*a.PostingDate, *b.PostingDate) > nearDupMaxDaysApart {
				continue
			}
			sim := descriptionSimilarity(a.Description, b.Description)
			if sim >= nearDupMinSimilarity {
				out = append(out, NearDuplicate{A: a, B: b, Similarity: sim})
			}
		}
	}
	return out, nil
}

func daysApart(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func descriptionSimilarity(a, b string) float64 {
	a = strings.ToUpper(strings.TrimSpace(a))
	b = strings.ToUpper(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
