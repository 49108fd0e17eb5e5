package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MartTables lists the star-schema tables exposed to reporting tools, in
// export order.
var MartTables = []string{"dim_account", "dim_category", "dim_date", "fct_transactions"}

// MartRepo is the read side of the star schema, consumed by the dashboard
// and the CSV exporter. It never writes; mart tables are rebuilt wholesale
// by the transform.
type MartRepo struct {
	db *sql.DB
}

func NewMartRepo(db *sql.DB) *MartRepo { return &MartRepo{db: db} }

// ReadTable returns the header and all rows of one mart table as strings,
// ordered by the table's first column for deterministic output.
func (r *MartRepo) ReadTable(ctx context.Context, table string) ([]string, [][]string, error) {
	known := false
	for _, t := range MartTables {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return nil, nil, fmt.Errorf("not a mart table: %s", table)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT * FROM `+table+` ORDER BY 1`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]interface{}, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(header))
		for i, c := range cells {
			record[i] = c.String
		}
		out = append(out, record)
	}
	return header, out, rows.Err()
}

// FactsForMonth returns fact rows whose date_key falls in yearMonth ("2026-03").
func (r *MartRepo) FactsForMonth(ctx context.Context, yearMonth string) ([]FactTransaction, error) {
	prefix := strings.ReplaceAll(yearMonth, "-", "")
	rows, err := r.db.QueryContext(ctx, `
	SELECT transaction_key, date_key, account_key, amount, absolute_amount, balance,
	       transaction_type, counterparty_name, transaction_description, currency,
	       category_key, categorization_status, source_file, loaded_at
	FROM fct_transactions
	WHERE substr(date_key, 1, 6) = ?
	ORDER BY date_key, transaction_key`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FactTransaction
	for rows.Next() {
		var f FactTransaction
		var amount, absAmount, balance, loadedAt string
		if err := rows.Scan(&f.TransactionKey, &f.DateKey, &f.AccountKey, &amount, &absAmount, &balance,
			&f.TransactionType, &f.CounterpartyName, &f.Description, &f.Currency,
			&f.CategoryKey, &f.CategorizationStatus, &f.SourceFile, &loadedAt); err != nil {
			return nil, err
		}
		if f.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, err
		}
		if f.AbsoluteAmount, err = decimal.NewFromString(absAmount); err != nil {
			return nil, err
		}
		if f.Balance, err = decimal.NewFromString(balance); err != nil {
			return nil, err
		}
		if f.LoadedAt, err = parseTime(loadedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// MonthsWithData returns the distinct year_month values present in
// fct_transactions, newest first.
func (r *MartRepo) MonthsWithData(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT DISTINCT substr(date_key, 1, 4) || '-' || substr(date_key, 5, 2)
	FROM fct_transactions
	ORDER BY 1 DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var ym string
		if err := rows.Scan(&ym); err != nil {
			return nil, err
		}
		out = append(out, ym)
	}
	return out, rows.Err()
}

// CategoryDimension returns dim_category as key -> (name, classification).
type CategoryInfo struct {
	Name           string
	Group          string
	Classification string
}

func (r *MartRepo) CategoryDimension(ctx context.Context) (map[string]CategoryInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT category_key, category_name, category_group, category_classification
	FROM dim_category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]CategoryInfo{}
	for rows.Next() {
		var key string
		var info CategoryInfo
		if err := rows.Scan(&key, &info.Name, &info.Group, &info.Classification); err != nil {
			return nil, err
		}
		out[key] = info
	}
	return out, rows.Err()
}
