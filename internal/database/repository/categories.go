package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo handles the category reference dimension.
type CategoryRepo struct {
	db *sql.DB
}

func NewCategoryRepo(db *sql.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Upsert(ctx context.Context, c Category) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(category_key, category_name, category_group, category_type, sort_order)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(category_key) DO UPDATE SET
	 category_name=excluded.category_name,
	 category_group=excluded.category_group,
	 category_type=excluded.category_type,
	 sort_order=excluded.sort_order;
	`, c.Key, c.Name, c.Group, c.Type, c.SortOrder)
	return err
}

func (r *CategoryRepo) List(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT category_key, category_name, category_group, category_type, sort_order
	FROM categories ORDER BY sort_order, category_key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Key, &c.Name, &c.Group, &c.Type, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Get(ctx context.Context, key string) (*Category, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT category_key, category_name, category_group, category_type, sort_order
	FROM categories WHERE category_key = ?`, key)
	var c Category
	if err := row.Scan(&c.Key, &c.Name, &c.Group, &c.Type, &c.SortOrder); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}
