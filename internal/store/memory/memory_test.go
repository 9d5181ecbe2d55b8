package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewSeeded(zaptest.NewLogger(t))
}

func bankBalance(t *testing.T, s *Store, id string) int64 {
	t.Helper()
	banks, err := s.ListBanks(context.Background())
	require.NoError(t, err)
	for _, bank := range banks {
		if bank.ID == id {
			return bank.BalanceCents
		}
	}
	t.Fatalf("bank %s not found", id)
	return 0
}

func productStock(t *testing.T, s *Store, id string) int {
	t.Helper()
	product, err := s.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func TestUpsertTableOrderOccupiesTableAndDecrementsStock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusPending, sale.Status)
	assert.Equal(t, int64(6000), sale.TotalCents)
	assert.Equal(t, 3, productStock(t, s, "prod-cake"))

	tables, err := s.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatusOccupied, tables[0].Status)
}

func TestUpsertTableOrderResaveMovesOnlyDelta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	draft := domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 2}},
	}

	first, err := s.UpsertTableOrder(ctx, draft)
	require.NoError(t, err)
	second, err := s.UpsertTableOrder(ctx, draft)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, productStock(t, s, "prod-cake"))

	draft.Items = []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}}
	_, err = s.UpsertTableOrder(ctx, draft)
	require.NoError(t, err)

	assert.Equal(t, 5, productStock(t, s, "prod-cake"))
	assert.Equal(t, 49, productStock(t, s, "prod-coffee"))
}

func TestUpsertTableOrderInsufficientStockWritesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-2",
		UserID:  "user-worker",
		Items: []domain.OrderItemInput{
			{ProductID: "prod-coffee", Quantity: 1},
			{ProductID: "prod-cake", Quantity: 6},
		},
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Torta de Chocolate")

	assert.Equal(t, 50, productStock(t, s, "prod-coffee"))
	assert.Equal(t, 5, productStock(t, s, "prod-cake"))
	_, err = s.GetPendingOrderByTable(ctx, "table-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpsertTableOrderUnknownProduct(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpsertTableOrder(context.Background(), domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "nope", Quantity: 1}},
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSaleItemKeepsPriceAfterProductChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}},
	})
	require.NoError(t, err)

	product, err := s.GetProduct(ctx, "prod-coffee")
	require.NoError(t, err)
	product.SaleValueCents = 9999
	_, err = s.UpdateProduct(ctx, *product)
	require.NoError(t, err)

	stored, err := s.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), stored.Items[0].UnitPriceCents)
}

func TestFinalizeSaleFreesTableAndBooksLedger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-3",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-toast", Quantity: 2}},
	})
	require.NoError(t, err)

	done, err := s.FinalizeSale(ctx, domain.Payment{SaleID: sale.ID, Method: domain.PaymentMethodCash, AmountPaidCents: 6000})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCompleted, done.Status)
	assert.Equal(t, int64(1000), done.ChangeCents)
	assert.Equal(t, int64(5000), bankBalance(t, s, "bank-till"))

	_, err = s.GetPendingOrderByTable(ctx, "table-3")
	assert.ErrorIs(t, err, store.ErrNotFound)

	txs, err := s.ListTransactions(ctx, domain.TransactionFilter{Type: domain.TransactionTypeSale})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Caja", txs[0].BankName)

	_, err = s.FinalizeSale(ctx, domain.Payment{SaleID: sale.ID, Method: domain.PaymentMethodCash, AmountPaidCents: 6000})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestFinalizeSaleRejectsShortCash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-toast", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = s.FinalizeSale(ctx, domain.Payment{SaleID: sale.ID, Method: domain.PaymentMethodCash, AmountPaidCents: 100})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	pending, err := s.GetSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusPending, pending.Status)
}

func TestShiftLifecycleReconciles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	shift, err := s.OpenShift(ctx, domain.CashShift{UserID: "user-worker", OpeningBalanceCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, "bank-till", shift.BankID)
	assert.Equal(t, int64(10000), bankBalance(t, s, "bank-till"))

	_, err = s.OpenShift(ctx, domain.CashShift{UserID: "user-worker"})
	require.ErrorIs(t, err, store.ErrShiftAlreadyOpen)

	_, err = s.CreateDirectSale(ctx,
		domain.OrderDraft{UserID: "user-worker", Items: []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 4}}},
		domain.Payment{Method: domain.PaymentMethodCash, AmountPaidCents: 4000},
	)
	require.NoError(t, err)

	closed, err := s.CloseShift(ctx, 15000, shift.OpenedAt)
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusClosed, closed.Status)
	assert.Equal(t, int64(14000), closed.ExpectedBalanceCents)
	assert.Equal(t, int64(1000), closed.DifferenceCents)
	assert.Equal(t, int64(-1000), bankBalance(t, s, "bank-till"))

	_, err = s.CloseShift(ctx, 15000, shift.OpenedAt)
	assert.ErrorIs(t, err, store.ErrNoOpenShift)
}

func TestCloseShiftWithoutCashRegister(t *testing.T) {
	s := New()
	ctx := context.Background()

	bank, err := s.CreateBank(ctx, domain.Bank{Name: "Caja", Type: domain.BankTypeCashRegister})
	require.NoError(t, err)
	_, err = s.OpenShift(ctx, domain.CashShift{UserID: "u1", BankID: bank.ID})
	require.NoError(t, err)

	bank.Type = domain.BankTypeSafe
	_, err = s.UpdateBank(ctx, *bank)
	require.NoError(t, err)

	_, err = s.CloseShift(ctx, 0, bank.CreatedAt)
	assert.ErrorIs(t, err, store.ErrNoCashRegister)
}

func TestConcurrentOpenShiftExactlyOneWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.OpenShift(ctx, domain.CashShift{UserID: "user-worker", OpeningBalanceCents: 100})
		}()
	}
	wg.Wait()

	opened := 0
	for _, err := range errs {
		if err == nil {
			opened++
			continue
		}
		assert.True(t, errors.Is(err, store.ErrShiftAlreadyOpen), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, int64(100), bankBalance(t, s, "bank-till"))
}

func TestConcurrentUpsertKeepsSinglePendingSale(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const attempts = 8
	ids := make([]string, attempts)
	var wg sync.WaitGroup
	for i := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
				TableID: "table-4",
				UserID:  "user-worker",
				Items:   []domain.OrderItemInput{{ProductID: "prod-juice", Quantity: 1}},
			})
			if assert.NoError(t, err) {
				ids[i] = sale.ID
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 29, productStock(t, s, "prod-juice"))
}

func TestRegisterExpenseDebitsBank(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.RegisterExpense(ctx, domain.Transaction{AmountCents: -2500, Description: "Hielo", BankID: "bank-account"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeExpense, tx.Type)
	assert.Empty(t, tx.CashShiftID)
	assert.Equal(t, int64(-2500), bankBalance(t, s, "bank-account"))

	_, err = s.RegisterExpense(ctx, domain.Transaction{AmountCents: -1, BankID: "missing"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCatalogConstraints(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateCategory(ctx, domain.Category{Name: "bebidas"})
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.DeleteCategory(ctx, "cat-drinks")
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CreateProduct(ctx, domain.Product{Name: "Cafe Americano", SaleValueCents: 1})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.CreateProduct(ctx, domain.Product{Name: "Agua", SKU: "beb-001", SaleValueCents: 1})
	assert.ErrorIs(t, err, store.ErrConflict)

	sale, err := s.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: "table-1",
		UserID:  "user-worker",
		Items:   []domain.OrderItemInput{{ProductID: "prod-juice", Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, sale.ID)

	assert.ErrorIs(t, s.DeleteProduct(ctx, "prod-juice"), store.ErrConflict)
	assert.ErrorIs(t, s.DeleteUser(ctx, "user-worker"), store.ErrConflict)
}

func TestTimeClock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry, err := s.ClockIn(ctx, domain.TimeClockEntry{UserID: "user-worker", ClockIn: time.Now().UTC()})
	require.NoError(t, err)

	_, err = s.ClockIn(ctx, domain.TimeClockEntry{UserID: "user-worker", ClockIn: entry.ClockIn})
	assert.ErrorIs(t, err, store.ErrConflict)

	out, err := s.ClockOut(ctx, "user-worker", entry.ClockIn.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 90, out.WorkedMinutes)

	_, err = s.ClockOut(ctx, "user-worker", entry.ClockIn)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDashboardReports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, items := range [][]domain.OrderItemInput{
		{{ProductID: "prod-coffee", Quantity: 3}, {ProductID: "prod-toast", Quantity: 1}},
		{{ProductID: "prod-coffee", Quantity: 1}},
	} {
		_, err := s.CreateDirectSale(ctx,
			domain.OrderDraft{UserID: "user-worker", Items: items},
			domain.Payment{Method: domain.PaymentMethodCard, Exact: true},
		)
		require.NoError(t, err)
	}

	stats, err := s.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardStats{RevenueCents: 6500, CompletedSales: 2, TotalProductsSold: 5}, stats)

	days, err := s.SalesOverTime(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(6500), days[0].TotalCents)

	top, err := s.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "prod-coffee", top[0].ProductID)
	assert.Equal(t, 4, top[0].QuantitySold)
	assert.Equal(t, 2, top[0].SaleCount)

	assert.Equal(t, int64(6500), bankBalance(t, s, "bank-account"))
}
