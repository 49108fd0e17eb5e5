package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sbruun/kontoflow/internal/categorize"
	"github.com/sbruun/kontoflow/internal/database"
	"github.com/sbruun/kontoflow/internal/database/repository"
)

// StagedTransaction is one canonical-field row of stg_transactions,
// derived from a settled raw row.
type StagedTransaction struct {
	TransactionKey   string
	PostingDate      time.Time
	Amount           decimal.Decimal
	Balance          decimal.Decimal
	Currency         string
	SenderAccount    string
	RecipientAccount string
	CounterpartyName string
	Description      string
	TransactionType  string
	AbsoluteAmount   decimal.Decimal
	IsReconciled     bool
	SourceFile       string
	LoadedAt         time.Time
}

// TransformSummary reports what one pipeline run produced.
type TransformSummary struct {
	StagedRows      int
	ExcludedPending int
	Matched         int
	Uncategorized   int
	Accounts        int
	CalendarDays    int
}

// TransformService rebuilds the derived tables (staging, categorized
// intermediate, star-schema marts) from the current raw data and reference
// rule set. Every run recomputes everything inside one transaction: either
// all derived tables are replaced or none are.
type TransformService struct {
	DB         *sql.DB
	Raw        *repository.RawTransactionRepo
	Categories *repository.CategoryRepo
	Rules      *repository.RuleRepo

	BankName           string
	DefaultAccountType string
	AccountTypes       map[string]string
	CalendarStartYear  int
	CalendarEndYear    int

	Log zerolog.Logger
}

func (s *TransformService) Run(ctx context.Context) (TransformSummary, error) {
	summary := TransformSummary{}

	raw, err := s.Raw.ListAll(ctx)
	if err != nil {
		return summary, err
	}
	staged := make([]StagedTransaction, 0, len(raw))
	for _, t := range raw {
		if t.PostingDate == nil {
			summary.ExcludedPending++
			continue
		}
		staged = append(staged, stageRow(t))
	}
	summary.StagedRows = len(staged)

	categories, err := s.Categories.List(ctx)
	if err != nil {
		return summary, err
	}
	ruleRows, err := s.Rules.List(ctx)
	if err != nil {
		return summary, err
	}
	rules := make([]categorize.Rule, 0, len(ruleRows))
	for _, r := range ruleRows {
		rules = append(rules, categorize.Rule{
			PatternType:  categorize.PatternType(r.PatternType),
			PatternValue: r.PatternValue,
			CategoryKey:  r.CategoryKey,
			Priority:     r.Priority,
		})
	}

	assignments := make([]categorize.Assignment, len(staged))
	for i, st := range staged {
		assignments[i] = categorize.Assign(categorize.Input{
			Description:      st.Description,
			CounterpartyName: st.CounterpartyName,
			TransactionType:  st.TransactionType,
		}, rules)
		if assignments[i].Status == categorize.StatusMatched {
			summary.Matched++
		} else {
			summary.Uncategorized++
		}
	}

	accounts := s.buildAccountDimension(staged)
	summary.Accounts = len(accounts)

	spine := BuildDateSpine(s.CalendarStartYear, s.CalendarEndYear)
	summary.CalendarDays = len(spine)

	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		if err := writeStaging(tx, staged); err != nil {
			return err
		}
		if err := writeCategorized(tx, staged, assignments); err != nil {
			return err
		}
		if err := writeCategoryDimension(tx, categories); err != nil {
			return err
		}
		if err := writeAccountDimension(tx, accounts); err != nil {
			return err
		}
		if err := writeDateDimension(tx, spine); err != nil {
			return err
		}
		return writeFacts(tx, staged, assignments)
	})
	if err != nil {
		return summary, err
	}

	s.Log.Info().
		Int("staged", summary.StagedRows).
		Int("excluded_pending", summary.ExcludedPending).
		Int("matched", summary.Matched).
		Int("uncategorized", summary.Uncategorized).
		Int("accounts", summary.Accounts).
		Int("calendar_days", summary.CalendarDays).
		Msg("transform complete")
	return summary, nil
}

func stageRow(t repository.RawTransaction) StagedTransaction {
	txType := "credit"
	if t.Amount.IsNegative() {
		txType = "debit"
	}
	return StagedTransaction{
		TransactionKey:   t.Hash,
		PostingDate:      *t.PostingDate,
		Amount:           t.Amount,
		Balance:          t.Balance,
		Currency:         t.Currency,
		SenderAccount:    t.Sender,
		RecipientAccount: t.Recipient,
		CounterpartyName: t.CounterpartyName,
		Description:      t.Description,
		TransactionType:  txType,
		AbsoluteAmount:   t.Amount.Abs(),
		IsReconciled:     isReconciled(t.Reconciled),
		SourceFile:       t.SourceFile,
		LoadedAt:         t.LoadedAt,
	}
}

func isReconciled(v string) bool {
	switch v {
	case "Ja", "ja", "JA", "Yes", "yes":
		return true
	}
	return false
}

// owningAccount resolves the account a fact row belongs to: money leaves
// the sender on a debit and arrives at the recipient on a credit.
func owningAccount(st StagedTransaction) string {
	key := st.RecipientAccount
	if st.TransactionType == "debit" {
		key = st.SenderAccount
	}
	if key == "" {
		return "UNKNOWN"
	}
	return key
}

func (s *TransformService) buildAccountDimension(staged []StagedTransaction) []repository.DimAccount {
	currency := map[string]string{}
	var keys []string
	add := func(key, curr string) {
		if key == "" {
			return
		}
		if _, seen := currency[key]; !seen {
			currency[key] = curr
			keys = append(keys, key)
		}
	}
	for _, st := range staged {
		add(st.SenderAccount, st.Currency)
		add(st.RecipientAccount, st.Currency)
		if owningAccount(st) == "UNKNOWN" {
			add("UNKNOWN", st.Currency)
		}
	}
	sort.Strings(keys)

	out := make([]repository.DimAccount, 0, len(keys))
	for _, key := range keys {
		accountType := s.DefaultAccountType
		if t, ok := s.AccountTypes[key]; ok {
			accountType = t
		}
		out = append(out, repository.DimAccount{
			AccountKey:      key,
			AccountNumber:   key,
			BankName:        s.BankName,
			DefaultCurrency: currency[key],
			AccountType:     accountType,
		})
	}
	return out
}

const stagedColumnsDDL = `
 transaction_key   TEXT PRIMARY KEY,
 posting_date      TEXT NOT NULL,
 amount            TEXT NOT NULL,
 balance           TEXT NOT NULL,
 currency          TEXT NOT NULL,
 sender_account    TEXT NOT NULL,
 recipient_account TEXT NOT NULL,
 counterparty_name TEXT NOT NULL,
 description       TEXT NOT NULL,
 transaction_type  TEXT NOT NULL,
 absolute_amount   TEXT NOT NULL,
 is_reconciled     INTEGER NOT NULL,
 source_file       TEXT NOT NULL,
 loaded_at         TEXT NOT NULL`

func writeStaging(tx *sql.Tx, staged []StagedTransaction) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS stg_transactions`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE stg_transactions (` + stagedColumnsDDL + `)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
	INSERT INTO stg_transactions VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, st := range staged {
		if _, err := stmt.Exec(stagedArgs(st)...); err != nil {
			return err
		}
	}
	return nil
}

func writeCategorized(tx *sql.Tx, staged []StagedTransaction, assignments []categorize.Assignment) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS int_transactions_categorized`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE int_transactions_categorized (` + stagedColumnsDDL + `,
	 category_key          TEXT NOT NULL,
	 categorization_status TEXT NOT NULL)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
	INSERT INTO int_transactions_categorized VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, st := range staged {
		args := append(stagedArgs(st), assignments[i].CategoryKey, string(assignments[i].Status))
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

func stagedArgs(st StagedTransaction) []interface{} {
	return []interface{}{
		st.TransactionKey,
		st.PostingDate.Format("2006-01-02"),
		st.Amount.String(),
		st.Balance.String(),
		st.Currency,
		st.SenderAccount,
		st.RecipientAccount,
		st.CounterpartyName,
		st.Description,
		st.TransactionType,
		st.AbsoluteAmount.String(),
		boolToInt(st.IsReconciled),
		st.SourceFile,
		st.LoadedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}

func writeCategoryDimension(tx *sql.Tx, categories []repository.Category) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS dim_category`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE dim_category (
	 category_key            TEXT PRIMARY KEY,
	 category_name           TEXT NOT NULL,
	 category_group          TEXT NOT NULL,
	 category_type           TEXT NOT NULL,
	 sort_order              INTEGER NOT NULL,
	 category_classification TEXT NOT NULL)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO dim_category VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, c := range categories {
		if _, err := stmt.Exec(c.Key, c.Name, c.Group, c.Type, c.SortOrder, categorize.Classification(c.Type)); err != nil {
			return err
		}
	}
	return nil
}

func writeAccountDimension(tx *sql.Tx, accounts []repository.DimAccount) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS dim_account`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE dim_account (
	 account_key      TEXT PRIMARY KEY,
	 account_number   TEXT NOT NULL,
	 bank_name        TEXT NOT NULL,
	 default_currency TEXT NOT NULL,
	 account_type     TEXT NOT NULL)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO dim_account VALUES(?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, a := range accounts {
		if _, err := stmt.Exec(a.AccountKey, a.AccountNumber, a.BankName, a.DefaultCurrency, a.AccountType); err != nil {
			return err
		}
	}
	return nil
}

func writeDateDimension(tx *sql.Tx, spine []repository.DimDate) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS dim_date`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE dim_date (
	 date_key             TEXT PRIMARY KEY,
	 date_day             TEXT NOT NULL,
	 year                 INTEGER NOT NULL,
	 quarter              INTEGER NOT NULL,
	 month                INTEGER NOT NULL,
	 week_of_year         INTEGER NOT NULL,
	 day_of_month         INTEGER NOT NULL,
	 day_of_year          INTEGER NOT NULL,
	 day_of_week          INTEGER NOT NULL,
	 day_name             TEXT NOT NULL,
	 is_weekend           INTEGER NOT NULL,
	 month_name           TEXT NOT NULL,
	 year_month           TEXT NOT NULL,
	 year_quarter         TEXT NOT NULL,
	 is_first_day_of_month INTEGER NOT NULL,
	 is_last_day_of_month  INTEGER NOT NULL)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO dim_date VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, d := range spine {
		if _, err := stmt.Exec(
			d.DateKey, d.DateDay.Format("2006-01-02"), d.Year, d.Quarter, d.Month,
			d.WeekOfYear, d.DayOfMonth, d.DayOfYear, d.DayOfWeek, d.DayName,
			boolToInt(d.IsWeekend), d.MonthName, d.YearMonth, d.YearQuarter,
			boolToInt(d.IsFirstDayOfMonth), boolToInt(d.IsLastDayOfMonth)); err != nil {
			return err
		}
	}
	return nil
}

func writeFacts(tx *sql.Tx, staged []StagedTransaction, assignments []categorize.Assignment) error {
	if _, err := tx.Exec(`DROP TABLE IF EXISTS fct_transactions`); err != nil {
		return err
	}
	if _, err := tx.Exec(`CREATE TABLE fct_transactions (
	 transaction_key         TEXT PRIMARY KEY,
	 date_key                TEXT NOT NULL,
	 account_key             TEXT NOT NULL,
	 amount                  TEXT NOT NULL,
	 absolute_amount         TEXT NOT NULL,
	 balance                 TEXT NOT NULL,
	 transaction_type        TEXT NOT NULL,
	 counterparty_name       TEXT NOT NULL,
	 transaction_description TEXT NOT NULL,
	 currency                TEXT NOT NULL,
	 category_key            TEXT NOT NULL,
	 categorization_status   TEXT NOT NULL,
	 source_file             TEXT NOT NULL,
	 loaded_at               TEXT NOT NULL)`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO fct_transactions VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, st := range staged {
		if _, err := stmt.Exec(
			st.TransactionKey,
			st.PostingDate.Format("20060102"),
			owningAccount(st),
			st.Amount.String(),
			st.AbsoluteAmount.String(),
			st.Balance.String(),
			st.TransactionType,
			st.CounterpartyName,
			st.Description,
			st.Currency,
			assignments[i].CategoryKey,
			string(assignments[i].Status),
			st.SourceFile,
			st.LoadedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
