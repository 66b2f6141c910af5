package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"MarketMovers/internal/model"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore persists the product catalog to SQLite or PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	driver string
	mu     sync.Mutex
}

// OpenSQLStore opens (or creates) the catalog database and runs migrations.
// driver is "sqlite" or "postgres".
func OpenSQLStore(driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create catalog dir: %w", err)
			}
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// WAL lets the HTTP readers proceed while the sync job writes.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] %s catalog opened", driver)
	return s, nil
}

func (s *SQLStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS products (
			product_id     TEXT PRIMARY KEY,
			base_currency  TEXT NOT NULL DEFAULT '',
			quote_currency TEXT NOT NULL DEFAULT '',
			display_name   TEXT NOT NULL DEFAULT '',
			status         TEXT NOT NULL DEFAULT '',
			created_at     BIGINT NOT NULL,
			updated_at     BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_quote ON products(quote_currency)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// UpsertProducts inserts new products and refreshes existing ones in a single transaction.
func (s *SQLStore) UpsertProducts(ctx context.Context, products []model.Product) (inserted, updated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	exists := tx.Rebind(`SELECT COUNT(1) FROM products WHERE product_id = ?`)
	upsert := tx.Rebind(`INSERT INTO products
		(product_id, base_currency, quote_currency, display_name, status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?)
		ON CONFLICT (product_id) DO UPDATE SET
			base_currency = excluded.base_currency,
			quote_currency = excluded.quote_currency,
			display_name = excluded.display_name,
			status = excluded.status,
			updated_at = excluded.updated_at`)

	now := time.Now().Unix()
	for _, p := range products {
		var n int
		if err = tx.GetContext(ctx, &n, exists, p.ID); err != nil {
			return 0, 0, fmt.Errorf("lookup %s: %w", p.ID, err)
		}
		if _, err = tx.ExecContext(ctx, upsert,
			p.ID, p.BaseCurrency, p.QuoteCurrency, p.DisplayName, p.Status, now, now,
		); err != nil {
			return 0, 0, fmt.Errorf("upsert %s: %w", p.ID, err)
		}
		if n == 0 {
			inserted++
		} else {
			updated++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, updated, nil
}

// ListProducts returns products quoted in quoteCurrency, ordered by product id.
func (s *SQLStore) ListProducts(ctx context.Context, quoteCurrency string, opts ListOptions) ([]model.Product, error) {
	query := `SELECT product_id, base_currency, quote_currency, display_name, status
		FROM products WHERE quote_currency = ?`
	args := []any{quoteCurrency}
	if opts.Status != "" {
		query += ` AND status = ?`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY product_id`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var products []model.Product
	if err := s.db.SelectContext(ctx, &products, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// QuoteCurrencies returns the distinct, sorted quote currencies in the catalog.
func (s *SQLStore) QuoteCurrencies(ctx context.Context) ([]string, error) {
	var quotes []string
	err := s.db.SelectContext(ctx, &quotes,
		`SELECT DISTINCT quote_currency FROM products WHERE quote_currency <> '' ORDER BY quote_currency`)
	if err != nil {
		return nil, fmt.Errorf("list quote currencies: %w", err)
	}
	return quotes, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM products`); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (s *SQLStore) Close() error {
	log.Printf("[INFO] closing %s catalog", s.driver)
	return s.db.Close()
}
