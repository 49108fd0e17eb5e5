package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

const rulesSeed = `pattern_type,pattern_value,category_key,priority
description,netflix,CAT017,10
name,tryg forsikring,CAT015,5
transaction_type,credit,CAT002,
`

func TestParseRulesCSV(t *testing.T) {
	t.Parallel()

	rules, err := ParseRulesCSV(strings.NewReader(rulesSeed))
	require.NoError(t, err)
	require.Len(t, rules, 3)

	require.Equal(t, "description", rules[0].PatternType)
	require.Equal(t, "netflix", rules[0].PatternValue)
	require.Equal(t, "CAT017", rules[0].CategoryKey)
	require.Equal(t, 10, rules[0].Priority)
	require.Equal(t, 0, rules[2].Priority, "empty priority column defaults to zero")

	for _, r := range rules {
		require.NotEmpty(t, r.ID)
	}

	again, err := ParseRulesCSV(strings.NewReader(rulesSeed))
	require.NoError(t, err)
	require.Equal(t, rules[0].ID, again[0].ID, "ids derive from rule identity")
}

func TestParseRulesCSVRejectsUnknownPatternType(t *testing.T) {
	t.Parallel()

	_, err := ParseRulesCSV(strings.NewReader("pattern_type,pattern_value,category_key\nregex,.*,CAT001\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown pattern_type")
	require.Contains(t, err.Error(), "line 2")
}

func TestParseRulesCSVRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	_, err := ParseRulesCSV(strings.NewReader("pattern_type,pattern_value\ndescription,netflix\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "category_key")
}

func TestImportCSVReplacesRuleSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newSeededTestDB(t)
	ruleRepo := repository.NewRuleRepo(db)
	svc := &RulesImportService{
		Rules:      ruleRepo,
		Categories: repository.NewCategoryRepo(db),
	}

	before, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, before, "seeded defaults present")

	n, err := svc.ImportCSV(ctx, strings.NewReader(rulesSeed))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	after, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 3, "import replaces, not appends")

	// Re-import lands on the identical rule set.
	_, err = svc.ImportCSV(ctx, strings.NewReader(rulesSeed))
	require.NoError(t, err)
	again, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, after, again)
}

func TestImportCSVRejectsUnknownCategory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newSeededTestDB(t)
	ruleRepo := repository.NewRuleRepo(db)
	svc := &RulesImportService{
		Rules:      ruleRepo,
		Categories: repository.NewCategoryRepo(db),
	}

	_, err := svc.ImportCSV(ctx, strings.NewReader("pattern_type,pattern_value,category_key\ndescription,netflix,CAT404\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "CAT404")

	// A failed import leaves the existing rule set untouched.
	rules, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
}
