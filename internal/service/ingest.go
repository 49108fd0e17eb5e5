package service

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sbruun/kontoflow/internal/database/repository"
)

// columnMapping maps the localized Nordea CSV headers to canonical field
// names. Unknown headers pass through untouched.
var columnMapping = map[string]string{
	"Bogføringsdato": "posting_date",
	"Beløb":          "amount",
	"Afsender":       "sender",
	"Modtager":       "recipient",
	"Navn":           "name",
	"Beskrivelse":    "description",
	"Saldo":          "balance",
	"Valuta":         "currency",
	"Afstemt":        "reconciled",
}

// pendingMarker is what Nordea puts in the posting date column for
// not-yet-settled movements.
const pendingMarker = "Reserveret"

const nordeaDateLayout = "2006/01/02"

// IngestService loads Nordea CSV exports into the raw table.
type IngestService struct {
	Raw             *repository.RawTransactionRepo
	DefaultCurrency string
	Log             zerolog.Logger
}

// IngestResult accumulates per-file import counters. Malformed lines are
// collected as errors and skipped, never repaired.
type IngestResult struct {
	Imported int
	Skipped  int
	Errors   []error
}

// ImportDir loads every *.csv file in dir, in name order.
func (s *IngestService) ImportDir(ctx context.Context, dir string) (IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestResult{}, fmt.Errorf("read csv dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	total := IngestResult{}
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return total, fmt.Errorf("open %s: %w", name, err)
		}
		res, err := s.ImportCSV(ctx, f, name)
		_ = f.Close()
		if err != nil {
			return total, fmt.Errorf("import %s: %w", name, err)
		}
		s.Log.Info().Str("file", name).
			Int("imported", res.Imported).
			Int("skipped", res.Skipped).
			Int("errors", len(res.Errors)).
			Msg("file loaded")
		total.Imported += res.Imported
		total.Skipped += res.Skipped
		total.Errors = append(total.Errors, res.Errors...)
	}
	return total, nil
}

// ImportCSV loads one Nordea export: UTF-8 with BOM, semicolon delimited,
// localized headers, Danish decimal format. Rows already seen (by content
// hash) are skipped, making re-imports idempotent.
func (s *IngestService) ImportCSV(ctx context.Context, r io.Reader, sourceFile string) (IngestResult, error) {
	res := IngestResult{}

	csvr := csv.NewReader(newBOMReader(r))
	csvr.Comma = ';'
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true

	header, err := csvr.Read()
	if err == io.EOF {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("header: %w", err)
	}
	header = trimTrailingEmpty(header)
	fields := make([]string, len(header))
	for i, col := range header {
		if canonical, ok := columnMapping[strings.TrimSpace(col)]; ok {
			fields[i] = canonical
		} else {
			fields[i] = strings.TrimSpace(col)
		}
	}

	loadedAt := time.Now().UTC()
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		rec = trimTrailingEmpty(rec)
		if len(rec) == 0 {
			continue
		}
		row := map[string]string{}
		for i, v := range rec {
			if i < len(fields) {
				row[fields[i]] = strings.TrimSpace(v)
			}
		}

		t, err := s.rowToRaw(row, sourceFile, loadedAt)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		inserted, err := s.Raw.Insert(ctx, t)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d insert: %w", line, err))
			continue
		}
		if inserted {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

func (s *IngestService) rowToRaw(row map[string]string, sourceFile string, loadedAt time.Time) (repository.RawTransaction, error) {
	amount, err := parseDanishDecimal(row["amount"])
	if err != nil {
		return repository.RawTransaction{}, fmt.Errorf("amount: %w", err)
	}
	balance := decimal.Zero
	if row["balance"] != "" {
		if balance, err = parseDanishDecimal(row["balance"]); err != nil {
			return repository.RawTransaction{}, fmt.Errorf("balance: %w", err)
		}
	}

	var posting *time.Time
	if v := row["posting_date"]; v != "" && v != pendingMarker {
		d, err := time.ParseInLocation(nordeaDateLayout, v, time.UTC)
		if err != nil {
			return repository.RawTransaction{}, fmt.Errorf("posting_date %q: %w", v, err)
		}
		posting = &d
	}

	currency := row["currency"]
	if currency == "" {
		currency = s.DefaultCurrency
	}

	t := repository.RawTransaction{
		PostingDate:      posting,
		Amount:           amount,
		Sender:           row["sender"],
		Recipient:        row["recipient"],
		CounterpartyName: row["name"],
		Description:      row["description"],
		Balance:          balance,
		Currency:         currency,
		Reconciled:       row["reconciled"],
		SourceFile:       sourceFile,
		LoadedAt:         loadedAt,
	}
	t.Hash = TransactionKey(t)
	return t, nil
}

// TransactionKey derives the content-addressed dedup key from the five
// identity fields (settlement date, amount, description, counterparty name,
// balance). Two source rows equal in those five collapse to the same key
// regardless of import run, which makes the raw table idempotent under
// re-import.
func TransactionKey(t repository.RawTransaction) string {
	posting := ""
	if t.PostingDate != nil {
		posting = t.PostingDate.Format("2006-01-02")
	}
	joined := strings.Join([]string{
		posting,
		t.Amount.String(),
		t.Description,
		t.CounterpartyName,
		t.Balance.String(),
	}, "|")
	return fmt.Sprintf("%x", sha256.Sum256([]byte(joined)))
}

// parseDanishDecimal converts "1.234,56" (period thousands, comma decimal)
// into a decimal.
func parseDanishDecimal(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return decimal.NewFromString(cleaned)
}

func trimTrailingEmpty(rec []string) []string {
	for len(rec) > 0 && strings.TrimSpace(rec[len(rec)-1]) == "" {
		rec = rec[:len(rec)-1]
	}
	return rec
}

// newBOMReader strips a UTF-8 byte order mark if present.
func newBOMReader(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
