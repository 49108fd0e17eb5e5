package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
)

// RawTransactionRepo handles the append-only raw_transactions table.
type RawTransactionRepo struct {
	db *sql.DB
}

func NewRawTransactionRepo(db *sql.DB) *RawTransactionRepo { return &RawTransactionRepo{db: db} }

// Insert appends one row keyed by its content hash. Re-inserting an
// already-seen hash is a no-op; the returned bool reports whether the
// row was actually written.
func (r *RawTransactionRepo) Insert(ctx context.Context, t RawTransaction) (bool, error) {
	var posting interface{}
	if t.PostingDate != nil {
		posting = t.PostingDate.Format(dateLayout)
	}
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO raw_transactions(
	 transaction_hash, posting_date, amount, sender, recipient, counterparty_name,
	 description, balance, currency, reconciled, source_file, loaded_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(transaction_hash) DO NOTHING;
	`,
		t.Hash, posting, t.Amount.String(), t.Sender, t.Recipient, t.CounterpartyName,
		t.Description, t.Balance.String(), t.Currency, t.Reconciled, t.SourceFile,
		t.LoadedAt.UTC().Format(timeLayout))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListSettled returns every raw row with a settlement date, ordered by hash
// so downstream transforms are deterministic across runs.
func (r *RawTransactionRepo) ListSettled(ctx context.Context) ([]RawTransaction, error) {
	return r.list(ctx, `
	SELECT transaction_hash, posting_date, amount, sender, recipient, counterparty_name,
	       description, balance, currency, reconciled, source_file, loaded_at
	FROM raw_transactions
	WHERE posting_date IS NOT NULL
	ORDER BY transaction_hash`)
}

// ListAll returns every raw row, pending ones included.
func (r *RawTransactionRepo) ListAll(ctx context.Context) ([]RawTransaction, error) {
	return r.list(ctx, `
	SELECT transaction_hash, posting_date, amount, sender, recipient, counterparty_name,
	       description, balance, currency, reconciled, source_file, loaded_at
	FROM raw_transactions
	ORDER BY transaction_hash`)
}

func (r *RawTransactionRepo) list(ctx context.Context, query string) ([]RawTransaction, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RawTransaction
	for rows.Next() {
		t, err := scanRawTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *RawTransactionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_transactions`).Scan(&n)
	return n, err
}

func scanRawTransaction(rows *sql.Rows) (RawTransaction, error) {
	var t RawTransaction
	var posting, sender, recipient, name, desc, balance, reconciled sql.NullString
	var amount, loadedAt string
	if err := rows.Scan(&t.Hash, &posting, &amount, &sender, &recipient, &name,
		&desc, &balance, &t.Currency, &reconciled, &t.SourceFile, &loadedAt); err != nil {
		return RawTransaction{}, err
	}
	var err error
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return RawTransaction{}, err
	}
	if balance.Valid && balance.String != "" {
		if t.Balance, err = decimal.NewFromString(balance.String); err != nil {
			return RawTransaction{}, err
		}
	}
	if posting.Valid && posting.String != "" {
		d, err := parseDate(posting.String)
		if err != nil {
			return RawTransaction{}, err
		}
		t.PostingDate = &d
	}
	t.Sender = sender.String
	t.Recipient = recipient.String
	t.CounterpartyName = name.String
	t.Description = desc.String
	t.Reconciled = reconciled.String
	if t.LoadedAt, err = parseTime(loadedAt); err != nil {
		return RawTransaction{}, err
	}
	return t, nil
}
