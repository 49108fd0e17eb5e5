package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawTransaction is one deduplicated row of a bank export, append-only.
// PostingDate is nil for pending ("Reserveret") movements.
type RawTransaction struct {
	Hash             string
	PostingDate      *time.Time
	Amount           decimal.Decimal
	Sender           string
	Recipient        string
	CounterpartyName string
	Description      string
	Balance          decimal.Decimal
	Currency         string
	Reconciled       string
	SourceFile       string
	LoadedAt         time.Time
}

// Category is one row of the fixed category dimension.
type Category struct {
	Key       string
	Name      string
	Group     string
	Type      string
	SortOrder int
}

// Rule is one categorization matching rule.
type Rule struct {
	ID           string
	PatternType  string
	PatternValue string
	CategoryKey  string
	Priority     int
}

// FactTransaction is one row of fct_transactions as exposed to reporting.
type FactTransaction struct {
	TransactionKey       string
	DateKey              string
	AccountKey           string
	Amount               decimal.Decimal
	AbsoluteAmount       decimal.Decimal
	Balance              decimal.Decimal
	TransactionType      string
	CounterpartyName     string
	Description          string
	Currency             string
	CategoryKey          string
	CategorizationStatus string
	SourceFile           string
	LoadedAt             time.Time
}

// DimAccount is one row of dim_account.
type DimAccount struct {
	AccountKey      string
	AccountNumber   string
	BankName        string
	DefaultCurrency string
	AccountType     string
}

// DimDate is one row of the generated calendar dimension.
type DimDate struct {
	DateKey           string
	DateDay           time.Time
	Year              int
	Quarter           int
	Month             int
	WeekOfYear        int
	DayOfMonth        int
	DayOfYear         int
	DayOfWeek         int
	DayName           string
	IsWeekend         bool
	MonthName         string
	YearMonth         string
	YearQuarter       string
	IsFirstDayOfMonth bool
	IsLastDayOfMonth  bool
}

const (
	timeLayout = "2006-01-02 15:04:05"
	dateLayout = "2006-01-02"
)

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

func parseTime(s string) (time.Time, error) {
	return time.ParseInLocation(timeLayout, s, time.UTC)
}
