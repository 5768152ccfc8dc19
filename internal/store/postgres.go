// Package store provides storage backends for the FeiTime storefront.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/feitime/storefront/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Search(ctx context.Context, query models.SearchQuery) ([]models.CatalogItem, error) {
	tail, args := buildSearchSQL(query, postgresPlaceholder)
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products"+tail, args...)
	if err != nil {
		slog.Error("PostgresStore Search query failed", "error", err)
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	items, err := collectProducts(rows)
	if err != nil {
		return nil, err
	}
	slog.Debug("PostgresStore Search succeeded", "count", len(items))
	return items, nil
}

func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		slog.Error("PostgresStore GetProduct query failed", "error", err, "id", id)
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

func (s *PostgresStore) ListProducts(ctx context.Context, limit, offset int) ([]models.CatalogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY popularity DESC, id ASC LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		slog.Error("PostgresStore ListProducts query failed", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return collectProducts(rows)
}

func (s *PostgresStore) GetMemberByEmail(ctx context.Context, email string) (*models.Member, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, phone, password_hash, created_at FROM members WHERE email = $1", email)
	var m models.Member
	var phone sql.NullString
	err := row.Scan(&m.ID, &m.Email, &m.Name, &phone, &m.PasswordHash, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetMemberByEmail failed", "error", err)
		return nil, fmt.Errorf("failed to query member: %w", err)
	}
	m.Phone = phone.String
	return &m, nil
}

func (s *PostgresStore) SaveOrder(ctx context.Context, order models.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO orders (id, member_id, items, total, status, phone, tracking_no, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET items = EXCLUDED.items, total = EXCLUDED.total, status = EXCLUDED.status,
			phone = EXCLUDED.phone, tracking_no = EXCLUDED.tracking_no, updated_at = EXCLUDED.updated_at`,
		order.ID, order.MemberID, string(itemsJSON), order.Total, order.Status,
		nilIfEmpty(order.Phone), nilIfEmpty(order.TrackingNo), order.CreatedAt, order.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore SaveOrder failed", "error", err, "id", order.ID)
		return fmt.Errorf("failed to save order %s: %w", order.ID, err)
	}
	slog.Debug("PostgresStore SaveOrder succeeded", "id", order.ID, "status", order.Status)
	return nil
}

func (s *PostgresStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, member_id, items, total, status, phone, tracking_no, created_at, updated_at FROM orders WHERE id = $1", id)
	if err != nil {
		slog.Error("PostgresStore GetOrder query failed", "error", err, "id", id)
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

func (s *PostgresStore) ListOrdersByMember(ctx context.Context, memberID string) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, member_id, items, total, status, phone, tracking_no, created_at, updated_at FROM orders WHERE member_id = $1 ORDER BY created_at DESC", memberID)
	if err != nil {
		slog.Error("PostgresStore ListOrdersByMember query failed", "error", err)
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
