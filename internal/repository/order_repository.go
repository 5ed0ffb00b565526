package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	"rap-order-service/internal/apperr"
	"rap-order-service/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order model.Order) error
	GetByID(ctx context.Context, id string) (model.Order, error)
	List(ctx context.Context, limit, offset int) ([]model.Order, error)
	Count(ctx context.Context) (int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	SetAudioURL(ctx context.Context, id, audioURL string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectLibSQL   Dialect = "libsql"
)

const schema = `
	CREATE TABLE IF NOT EXISTS orders (
		id               TEXT PRIMARY KEY,
		template         TEXT NOT NULL,
		price            DOUBLE PRECISION NOT NULL,
		delivery_time    TEXT NOT NULL,
		customer_name    TEXT NOT NULL,
		customer_email   TEXT NOT NULL,
		lyrics           TEXT NOT NULL,
		status           TEXT NOT NULL,
		audio_url        TEXT NOT NULL DEFAULT '',
		client_timestamp TEXT NOT NULL DEFAULT '',
		created_at_ms    BIGINT NOT NULL,
		updated_at_ms    BIGINT NOT NULL
	)
`

const orderColumns = `id, template, price, delivery_time, customer_name, customer_email, lyrics, status, audio_url, client_timestamp, created_at_ms, updated_at_ms`

var positional = regexp.MustCompile(`\$\d+`)

// SQLOrderRepository stores orders in Postgres or libSQL. Timestamps are kept
// as unix milliseconds so both drivers scan them the same way.
type SQLOrderRepository struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
	now     func() time.Time
}

func NewSQLOrderRepository(db *sql.DB, dialect Dialect, timeout time.Duration) *SQLOrderRepository {
	return &SQLOrderRepository{db: db, dialect: dialect, timeout: timeout, now: time.Now}
}

// OpenPostgres opens and pings a Postgres database.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	return open(ctx, "postgres", dsn)
}

// OpenLibSQL opens and pings a libSQL (Turso) database.
func OpenLibSQL(ctx context.Context, rawURL, authToken string) (*sql.DB, error) {
	dsn, err := libsqlDSN(rawURL, authToken)
	if err != nil {
		return nil, err
	}
	return open(ctx, "libsql", dsn)
}

// libsqlDSN sets the authToken query parameter, keeping any existing ones.
func libsqlDSN(rawURL, authToken string) (string, error) {
	if authToken == "" {
		return rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse libsql url: %w", err)
	}
	q := u.Query()
	q.Set("authToken", authToken)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Migrate creates the orders table when missing.
func (r *SQLOrderRepository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate orders table: %w", err)
	}
	return nil
}

func (r *SQLOrderRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.db.PingContext(ctx)
}

func (r *SQLOrderRepository) Create(ctx context.Context, order model.Order) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := r.rebind(`
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`)
	_, err := r.db.ExecContext(ctx, q,
		order.ID,
		order.Template,
		order.Price,
		order.DeliveryTime,
		order.Customer.Name,
		order.Customer.Email,
		order.Lyrics,
		order.Status,
		order.AudioURL,
		order.ClientTimestamp,
		order.CreatedAt.UnixMilli(),
		order.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert order id=%s: %w", order.ID, err)
	}
	return nil
}

func (r *SQLOrderRepository) GetByID(ctx context.Context, id string) (model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := r.rebind(`
		SELECT ` + orderColumns + `
		FROM orders
		WHERE id = $1
	`)

	order, err := scanOrder(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Order{}, fmt.Errorf("order id=%s: %w", id, apperr.ErrNotFound)
		}
		return model.Order{}, fmt.Errorf("get order id=%s: %w", id, err)
	}

	return order, nil
}

func (r *SQLOrderRepository) List(ctx context.Context, limit, offset int) ([]model.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	q := r.rebind(`
		SELECT ` + orderColumns + `
		FROM orders
		ORDER BY created_at_ms DESC
		LIMIT $1 OFFSET $2
	`)

	rows, err := r.db.QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders limit=%d offset=%d: %w", limit, offset, err)
	}
	defer rows.Close()

	orders := make([]model.Order, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

func (r *SQLOrderRepository) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const q = `SELECT COUNT(*) FROM orders`
	var total int
	if err := r.db.QueryRowContext(ctx, q).Scan(&total); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return total, nil
}

func (r *SQLOrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	q := r.rebind(`
		UPDATE orders
		SET status = $1, updated_at_ms = $2
		WHERE id = $3
	`)
	if err := r.update(ctx, q, status, r.now().UnixMilli(), id); err != nil {
		return fmt.Errorf("update order status id=%s status=%s: %w", id, status, err)
	}
	return nil
}

func (r *SQLOrderRepository) SetAudioURL(ctx context.Context, id, audioURL string) error {
	q := r.rebind(`
		UPDATE orders
		SET audio_url = $1, updated_at_ms = $2
		WHERE id = $3
	`)
	if err := r.update(ctx, q, audioURL, r.now().UnixMilli(), id); err != nil {
		return fmt.Errorf("update order audio id=%s: %w", id, err)
	}
	return nil
}

func (r *SQLOrderRepository) update(ctx context.Context, q string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// rebind converts $N placeholders for drivers that only accept '?'.
// Placeholders must appear in argument order.
func (r *SQLOrderRepository) rebind(q string) string {
	if r.dialect == DialectLibSQL {
		return positional.ReplaceAllString(q, "?")
	}
	return q
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		order              model.Order
		createdMs, updated int64
	)
	err := row.Scan(
		&order.ID,
		&order.Template,
		&order.Price,
		&order.DeliveryTime,
		&order.Customer.Name,
		&order.Customer.Email,
		&order.Lyrics,
		&order.Status,
		&order.AudioURL,
		&order.ClientTimestamp,
		&createdMs,
		&updated,
	)
	if err != nil {
		return model.Order{}, err
	}
	order.CreatedAt = time.UnixMilli(createdMs).UTC()
	order.UpdatedAt = time.UnixMilli(updated).UTC()
	return order, nil
}
