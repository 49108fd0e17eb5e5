package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

// SeedDefaults ensures the category dimension and a starter rule set exist
// for new databases. It is idempotent and safe to run on every startup.
// The sentinel Uncategorized category is always present; it is the fallback
// target of the categorization transform.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)
	existing, err := catRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, c := range DefaultCategories() {
			if err := catRepo.Upsert(ctx, c); err != nil {
				return err
			}
		}
	}

	ruleRepo := repository.NewRuleRepo(db)
	rules, err := ruleRepo.List(ctx)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		for _, r := range DefaultRules() {
			if err := ruleRepo.Upsert(ctx, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// DefaultCategories returns the built-in category dimension.
func DefaultCategories() []repository.Category {
	return []repository.Category{
		{Key: "CAT001", Name: "Salary", Group: "Income", Type: "Income", SortOrder: 10},
		{Key: "CAT002", Name: "Other Income", Group: "Income", Type: "Income", SortOrder: 20},
		{Key: "CAT010", Name: "Groceries", Group: "Food", Type: "Essential", SortOrder: 100},
		{Key: "CAT011", Name: "Online Shopping", Group: "Shopping", Type: "Discretionary", SortOrder: 110},
		{Key: "CAT012", Name: "Restaurants", Group: "Food", Type: "Discretionary", SortOrder: 120},
		{Key: "CAT013", Name: "Rent", Group: "Housing", Type: "Essential", SortOrder: 130},
		{Key: "CAT014", Name: "Utilities", Group: "Housing", Type: "Essential", SortOrder: 140},
		{Key: "CAT015", Name: "Insurance", Group: "Housing", Type: "Essential", SortOrder: 150},
		{Key: "CAT016", Name: "Transport", Group: "Transport", Type: "Essential", SortOrder: 160},
		{Key: "CAT017", Name: "Streaming", Group: "Entertainment", Type: "Discretionary", SortOrder: 170},
		{Key: "CAT018", Name: "Fitness", Group: "Health", Type: "Discretionary", SortOrder: 180},
		{Key: "CAT020", Name: "Account Transfer", Group: "Transfer", Type: "Transfer", SortOrder: 200},
		{Key: "CAT021", Name: "Savings Transfer", Group: "Transfer", Type: "Transfer", SortOrder: 210},
		{Key: "CAT999", Name: "Uncategorized", Group: "Other", Type: "Unknown", SortOrder: 999},
	}
}

// DefaultRules returns the built-in matching rule set, loosely modeled on a
// Danish Nordea export. Priorities: specific merchants beat generic
// transaction-type fallbacks.
func DefaultRules() []repository.Rule {
	rules := []repository.Rule{
		{PatternType: "description", PatternValue: "løn", CategoryKey: "CAT001", Priority: 20},
		{PatternType: "description", PatternValue: "salary", CategoryKey: "CAT001", Priority: 20},
		{PatternType: "description", PatternValue: "føtex", CategoryKey: "CAT010", Priority: 10},
		{PatternType: "description", PatternValue: "netto", CategoryKey: "CAT010", Priority: 10},
		{PatternType: "description", PatternValue: "rema 1000", CategoryKey: "CAT010", Priority: 10},
		{PatternType: "description", PatternValue: "amazon", CategoryKey: "CAT011", Priority: 5},
		{PatternType: "description", PatternValue: "zalando", CategoryKey: "CAT011", Priority: 5},
		{PatternType: "description", PatternValue: "restaurant", CategoryKey: "CAT012", Priority: 5},
		{PatternType: "description", PatternValue: "husleje", CategoryKey: "CAT013", Priority: 15},
		{PatternType: "description", PatternValue: "netflix", CategoryKey: "CAT017", Priority: 10},
		{PatternType: "description", PatternValue: "spotify", CategoryKey: "CAT017", Priority: 10},
		{PatternType: "description", PatternValue: "dsb", CategoryKey: "CAT016", Priority: 10},
		{PatternType: "description", PatternValue: "rejsekort", CategoryKey: "CAT016", Priority: 10},
		{PatternType: "description", PatternValue: "overførsel", CategoryKey: "CAT020", Priority: 8},
		{PatternType: "description", PatternValue: "opsparing", CategoryKey: "CAT021", Priority: 12},
		{PatternType: "name", PatternValue: "tryg", CategoryKey: "CAT015", Priority: 10},
		{PatternType: "name", PatternValue: "fitness world", CategoryKey: "CAT018", Priority: 10},
		{PatternType: "transaction_type", PatternValue: "credit", CategoryKey: "CAT002", Priority: 1},
	}
	for i := range rules {
		rules[i].ID = RuleID(rules[i])
	}
	return rules
}

// RuleID derives a stable id from the rule's identity so that re-seeding
// or re-importing the same rule never creates a second row.
func RuleID(r repository.Rule) string {
	key := r.PatternType + "|" + r.PatternValue + "|" + r.CategoryKey
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("rule:"+key)).String()
}
