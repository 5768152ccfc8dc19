// Package store provides storage backends for the FeiTime storefront.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/feitime/storefront/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; its directory is
// created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Search(ctx context.Context, query models.SearchQuery) ([]models.CatalogItem, error) {
	tail, args := buildSearchSQL(query, sqlitePlaceholder)
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products"+tail, args...)
	if err != nil {
		slog.Error("SQLiteStore Search query failed", "error", err)
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	items, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	slog.Debug("SQLiteStore Search succeeded", "count", len(items))
	return items, nil
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id int64) (*models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	if err != nil {
		slog.Error("SQLiteStore GetProduct query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query product %d: %w", id, err)
	}
	items, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func (s *SQLiteStore) ListProducts(ctx context.Context, limit, offset int) ([]models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY popularity DESC, id ASC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		slog.Error("SQLiteStore ListProducts query failed", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collectProducts(rows)
}

func (s *SQLiteStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, phone, password_hash, created_at FROM members WHERE email = ?", email)
	var m models.Member
	var phone sql.NullString
	err := row.Scan(&m.ID, &m.Email, &m.Name, &phone, &m.PasswordHash, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetMemberByEmail failed", "error", err)
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	m.Phone = phone.String
	return &m, nil
}

func (s *SQLiteStore) SaveOrder(ctx context.Context, order models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO orders (id, member_id, items, total, status, phone, tracking_no, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET items = excluded.items, total = excluded.total, status = excluded.status,
			phone = excluded.phone, tracking_no = excluded.tracking_no, updated_at = excluded.updated_at`,
		order.ID, order.MemberID, string(itemsJSON), order.Total, order.Status,
		nilIfEmpty(order.Phone), nilIfEmpty(order.TrackingNo), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore SaveOrder failed", "error", err, "id", order.ID)
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	slog.Debug("SQLiteStore SaveOrder succeeded", "id", order.ID, "status", order.Status)
	return nil
}

func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, member_id, items, total, status, phone, tracking_no, created_at, updated_at FROM orders WHERE id = ?", id)
	if err != nil {
		slog.Error("SQLiteStore GetOrder query failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query order %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	order, err := scanOrder(rows)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *SQLiteStore) ListOrdersByMember(ctx context.Context, memberID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, member_id, items, total, status, phone, tracking_no, created_at, updated_at FROM orders WHERE member_id = ? ORDER BY created_at DESC", memberID)
	if err != nil {
		slog.Error("SQLiteStore ListOrdersByMember query failed", "error", err)
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()
	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order rows: %w", err)
	}
	return orders, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
