package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

type fixture struct {
	store   *Store
	userID  string
	tableID string
	product domain.Product
}

func newFixture(t *testing.T, stock int) fixture {
	t.Helper()

	databaseURL := os.Getenv("TABLEPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TABLEPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	require.NoError(t, err)

	suffix := time.Now().UnixNano()
	user, err := s.CreateUser(ctx, domain.UserAccount{
		Name:     "Integration",
		Email:    fmt.Sprintf("it-%d@tablepos.local", suffix),
		Password: "hash",
		Role:     domain.RoleWorker,
	})
	require.NoError(t, err)

	table, err := s.CreateTable(ctx, domain.Table{Name: fmt.Sprintf("IT Mesa %d", suffix), Width: 100, Height: 100, Shape: domain.TableShapeSquare})
	require.NoError(t, err)

	product, err := s.CreateProduct(ctx, domain.Product{
		Name:           fmt.Sprintf("IT Producto %d", suffix),
		SaleValueCents: 1000,
		Stock:          stock,
		Active:         true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM transactions WHERE sale_id IN (SELECT id FROM sales WHERE user_id = $1)`, user.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE user_id = $1`, user.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, product.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM dining_tables WHERE id = $1`, table.ID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, user.ID)
		_ = s.Close()
	})

	return fixture{store: s, userID: user.ID, tableID: table.ID, product: *product}
}

func TestUpsertTableOrderMovesStockByDelta(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	draft := domain.OrderDraft{
		TableID: f.tableID,
		UserID:  f.userID,
		Items:   []domain.OrderItemInput{{ProductID: f.product.ID, Quantity: 3}},
	}
	sale, err := f.store.UpsertTableOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), sale.TotalCents)

	draft.Items[0].Quantity = 1
	again, err := f.store.UpsertTableOrder(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, again.ID)
	assert.Equal(t, int64(1000), again.TotalCents)

	product, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, product.Stock)

	draft.Items[0].Quantity = 50
	_, err = f.store.UpsertTableOrder(ctx, draft)
	assert.ErrorIs(t, err, store.ErrInsufficientStock)

	pending, err := f.store.GetPendingOrderByTable(ctx, f.tableID)
	require.NoError(t, err)
	assert.Equal(t, 1, pending.Items[0].Quantity)
}

func TestFinalizeSaleBooksLedgerOnce(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	sale, err := f.store.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: f.tableID,
		UserID:  f.userID,
		Items:   []domain.OrderItemInput{{ProductID: f.product.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	done, err := f.store.FinalizeSale(ctx, domain.Payment{SaleID: sale.ID, Method: domain.PaymentMethodCash, AmountPaidCents: 5000})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCompleted, done.Status)
	assert.Equal(t, int64(3000), done.ChangeCents)
	require.NotNil(t, done.CompletedAt)

	_, err = f.store.FinalizeSale(ctx, domain.Payment{SaleID: sale.ID, Method: domain.PaymentMethodCash, AmountPaidCents: 5000})
	assert.ErrorIs(t, err, store.ErrConflict)

	var entries int
	require.NoError(t, f.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE sale_id = $1`, sale.ID).Scan(&entries))
	assert.Equal(t, 1, entries)

	_, err = f.store.GetPendingOrderByTable(ctx, f.tableID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentUpsertsKeepSinglePendingSale(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.UpsertTableOrder(ctx, domain.OrderDraft{
				TableID: f.tableID,
				UserID:  f.userID,
				Items:   []domain.OrderItemInput{{ProductID: f.product.ID, Quantity: 2}},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil && !errors.Is(err, store.ErrConflict) {
			require.NoError(t, err)
		}
	}

	var pending int
	require.NoError(t, f.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sales WHERE table_id = $1 AND status = 'PENDING'`, f.tableID).Scan(&pending))
	assert.Equal(t, 1, pending)

	product, err := f.store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 98, product.Stock)
}
