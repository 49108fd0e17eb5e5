package repository

import (
	"context"
	"database/sql"
)

// RuleRepo stores the categorization rule set (editable reference data).
type RuleRepo struct{ db *sql.DB }

func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

func (r *RuleRepo) Upsert(ctx context.Context, rule Rule) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_rules(id, pattern_type, pattern_value, category_key, priority)
	VALUES(?, ?, ?, ?, ?)
	ON CONFLICT(pattern_type, pattern_value, category_key) DO UPDATE SET
	 priority=excluded.priority;
	`, rule.ID, rule.PatternType, rule.PatternValue, rule.CategoryKey, rule.Priority)
	return err
}

// ReplaceAll swaps the whole rule set in one transaction, used by the CSV
// rules import. Categorization is recomputed from the current set each run,
// so replacing rules retroactively recategorizes all history.
func (r *RuleRepo) ReplaceAll(ctx context.Context, rules []Rule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_rules`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO category_rules(id, pattern_type, pattern_value, category_key, priority)
	VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, rule := range rules {
		if _, err := stmt.ExecContext(ctx, rule.ID, rule.PatternType, rule.PatternValue, rule.CategoryKey, rule.Priority); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *RuleRepo) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, pattern_type, pattern_value, category_key, priority
	FROM category_rules
	ORDER BY priority DESC, category_key, pattern_type, pattern_value`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Rule
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.ID, &rule.PatternType, &rule.PatternValue, &rule.CategoryKey, &rule.Priority); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}
