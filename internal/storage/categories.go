package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rajamiththiran/money-manager-sub000/internal/core"
)

const categoryColumns = "id, parent_id, name, type"

func scanCategory(s scanner) (core.Category, error) {
	var (
		c        core.Category
		parentID sql.NullInt64
		ctype    string
	)
	if err := s.Scan(&c.ID, &parentID, &c.Name, &ctype); err != nil {
		return core.Category{}, err
	}
	c.ParentID = decodeInt64Ptr(parentID)
	c.Type = core.CategoryType(ctype)
	return c, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (parent_id, name, type) VALUES (?, ?, ?)`,
		encodeInt64Ptr(c.ParentID), c.Name, string(c.Type))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, notFound(err, "category %d not found", id)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+categoryColumns+" FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET parent_id = ?, name = ?, type = ? WHERE id = ?`,
		encodeInt64Ptr(c.ParentID), c.Name, string(c.Type), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, "category %d not found", c.ID)
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return conflictOnConstraint(err, "category %d is still referenced", id)
	}
	return requireRow(res, "category %d not found", id)
}
