package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, RunMigrations(db))

	require.NoError(t, SeedDefaults(ctx, db))

	catRepo := repository.NewCategoryRepo(db)
	ruleRepo := repository.NewRuleRepo(db)

	cats, err := catRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, len(DefaultCategories()))

	rules, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, rules, len(DefaultRules()))

	require.NoError(t, SeedDefaults(ctx, db))
	cats2, err := catRepo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, cats, cats2)
	rules2, err := ruleRepo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, rules, rules2)
}

func TestSeedDefaultsRespectsUserEdits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, RunMigrations(db))

	catRepo := repository.NewCategoryRepo(db)
	require.NoError(t, catRepo.Upsert(ctx, repository.Category{
		Key: "CAT500", Name: "Custom", Group: "Other", Type: "Discretionary", SortOrder: 500,
	}))

	require.NoError(t, SeedDefaults(ctx, db))

	cats, err := catRepo.List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1, "a non-empty category table is left alone")
	require.Equal(t, "CAT500", cats[0].Key)
}

func TestFallbackCategoryAlwaysSeeded(t *testing.T) {
	t.Parallel()

	var found bool
	for _, c := range DefaultCategories() {
		if c.Key == "CAT999" {
			found = true
			require.Equal(t, "Uncategorized", c.Name)
			require.Equal(t, "Unknown", c.Type)
		}
	}
	require.True(t, found)
}

func TestRuleIDIsStable(t *testing.T) {
	t.Parallel()

	a := repository.Rule{PatternType: "description", PatternValue: "netflix", CategoryKey: "CAT017", Priority: 10}
	b := repository.Rule{PatternType: "description", PatternValue: "netflix", CategoryKey: "CAT017", Priority: 99}
	require.Equal(t, RuleID(a), RuleID(b), "priority is not part of rule identity")

	c := repository.Rule{PatternType: "name", PatternValue: "netflix", CategoryKey: "CAT017"}
	require.NotEqual(t, RuleID(a), RuleID(c))
}
