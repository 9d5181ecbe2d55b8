package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/xid"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// retryDelays bounds how often a transaction is replayed after a
// serialization failure or deadlock.
var retryDelays = []time.Duration{20 * time.Millisecond, 80 * time.Millisecond, 200 * time.Millisecond}

type Store struct {
	db *sql.DB
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// inTx runs fn in a serializable transaction, replaying it when Postgres
// reports a serialization failure or deadlock.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func (s *Store) withRetry(ctx context.Context, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if !isRetryable(err) {
			return err
		}
		if attempt >= len(retryDelays) {
			return fmt.Errorf("%w: concurrent update, retry the request", store.ErrConflict)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelays[attempt]):
		}
	}
}

func (s *Store) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = c.CreatedAt.UTC()
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, created_at)
		VALUES ($1,$2,$3)
	`, category.ID, category.Name, category.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %q already exists", store.ErrConflict, category.Name)
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var inUse bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE category_id = $1)`, id).Scan(&inUse); err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("%w: category still has products", store.ErrConflict)
		}
		return execAffecting(ctx, tx, `DELETE FROM categories WHERE id = $1`, id)
	})
}

const productColumns = `id, name, COALESCE(sku, ''), sale_value_cents, cost_cents, stock, min_stock, max_stock,
	COALESCE(category_id, ''), active, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.SaleValueCents, &p.CostCents, &p.Stock, &p.MinStock, &p.MaxStock,
		&p.CategoryID, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, err
}

func (s *Store) ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE $1::text = '' OR category_id = $1::text
		ORDER BY name
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, sku, sale_value_cents, cost_cents, stock, min_stock, max_stock,
			category_id, active, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, product.ID, product.Name, nullIfEmpty(product.SKU), product.SaleValueCents, product.CostCents,
		product.Stock, product.MinStock, product.MaxStock, nullIfEmpty(product.CategoryID), product.Active,
		product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return nil, productWriteError(err, product)
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, sku = $3, sale_value_cents = $4, cost_cents = $5, stock = $6,
			min_stock = $7, max_stock = $8, category_id = $9, active = $10, updated_at = $11
		WHERE id = $1
		RETURNING created_at
	`, product.ID, product.Name, nullIfEmpty(product.SKU), product.SaleValueCents, product.CostCents,
		product.Stock, product.MinStock, product.MaxStock, nullIfEmpty(product.CategoryID), product.Active,
		product.UpdatedAt).Scan(&product.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, productWriteError(err, product)
	}
	product.CreatedAt = product.CreatedAt.UTC()
	return &product, nil
}

func productWriteError(err error, product domain.Product) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: product %q or sku %q already exists", store.ErrConflict, product.Name, product.SKU)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown category", store.ErrInvalidRequest)
	default:
		return err
	}
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	err := execAffecting(ctx, s.db, `DELETE FROM products WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: product is referenced by sales", store.ErrConflict)
	}
	return err
}

const tableColumns = `id, name, x, y, width, height, shape, status, created_at`

func scanTable(row interface{ Scan(dest ...any) error }) (domain.Table, error) {
	var t domain.Table
	err := row.Scan(&t.ID, &t.Name, &t.X, &t.Y, &t.Width, &t.Height, &t.Shape, &t.Status, &t.CreatedAt)
	t.CreatedAt = t.CreatedAt.UTC()
	return t, err
}

func (s *Store) ListTables(ctx context.Context) ([]domain.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+tableColumns+` FROM dining_tables ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := make([]domain.Table, 0, 32)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (s *Store) CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error) {
	if table.ID == "" {
		table.ID = xid.New("table")
	}
	table.Status = domain.TableStatusAvailable
	table.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dining_tables (id, name, x, y, width, height, shape, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, table.ID, table.Name, table.X, table.Y, table.Width, table.Height, table.Shape, table.Status, table.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: table %q already exists", store.ErrConflict, table.Name)
		}
		return nil, err
	}
	return &table, nil
}

func (s *Store) UpdateTableLayout(ctx context.Context, table domain.Table) (*domain.Table, error) {
	updated, err := scanTable(s.db.QueryRowContext(ctx, `
		UPDATE dining_tables
		SET x = $2, y = $3, width = $4, height = $5, shape = $6
		WHERE id = $1
		RETURNING `+tableColumns,
		table.ID, table.X, table.Y, table.Width, table.Height, table.Shape))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, user.ID, user.Name, user.Email, user.Password, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var u domain.UserAccount
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error) {
	var u domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var hasSales bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sales WHERE user_id = $1)`, id).Scan(&hasSales); err != nil {
			return err
		}
		if hasSales {
			return fmt.Errorf("%w: user has registered sales", store.ErrConflict)
		}

		err := execAffecting(ctx, tx, `DELETE FROM users WHERE id = $1`, id)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: user has cash shifts", store.ErrConflict)
		}
		return err
	})
}

func (s *Store) ClockIn(ctx context.Context, entry domain.TimeClockEntry) (*domain.TimeClockEntry, error) {
	if entry.ID == "" {
		entry.ID = xid.New("clock")
	}
	entry.ClockIn = stamp(entry.ClockIn)
	entry.ClockOut = nil

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_clock (id, user_id, clock_in)
		VALUES ($1,$2,$3)
	`, entry.ID, entry.UserID, entry.ClockIn)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%w: already clocked in", store.ErrConflict)
		case isForeignKeyViolation(err):
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ClockOut(ctx context.Context, userID string, at time.Time) (*domain.TimeClockEntry, error) {
	entry := domain.TimeClockEntry{UserID: userID}
	out := stamp(at)

	err := s.db.QueryRowContext(ctx, `
		UPDATE time_clock
		SET clock_out = $2
		WHERE user_id = $1 AND clock_out IS NULL
		RETURNING id, clock_in
	`, userID, out).Scan(&entry.ID, &entry.ClockIn)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	entry.ClockIn = entry.ClockIn.UTC()
	entry.ClockOut = &out
	entry.WorkedMinutes = int(out.Sub(entry.ClockIn).Minutes())
	return &entry, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorID, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// execAffecting runs a statement that must touch at least one row.
func execAffecting(ctx context.Context, q queryer, query string, args ...any) error {
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.ForeignKeyViolation
}

func isRetryable(err error) bool {
	code := pgErrorCode(err)
	return code == pgerrcode.SerializationFailure || code == pgerrcode.DeadlockDetected
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
