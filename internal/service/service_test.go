package service

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
	"tablepos/backend/internal/notify"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/store/memory"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []notify.OrderEvent
}

func (r *recordingObserver) Notify(_ context.Context, event notify.OrderEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// stalledObserver blocks until its context ends.
type stalledObserver struct{}

func (stalledObserver) Notify(ctx context.Context, _ notify.OrderEvent) error {
	<-ctx.Done()
	return ctx.Err()
}

type failingObserver struct{}

func (failingObserver) Notify(context.Context, notify.OrderEvent) error {
	return errors.New("broker down")
}

// mapCache is an in-memory ReportCache that records invalidations.
type mapCache struct {
	mu      sync.Mutex
	values  map[string]any
	deletes int
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.values[key]
	if !ok {
		return false, nil
	}
	switch d := dest.(type) {
	case *domain.DashboardStats:
		*d = val.(domain.DashboardStats)
	default:
		return false, nil
	}
	return true, nil
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.values, key)
	}
	c.deletes++
	return nil
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	repo := memory.NewSeeded(logger)
	return New(repo, nil, time.Minute, logger), repo
}

func workerCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: "user-worker", Name: "Worker", Role: domain.RoleWorker})
}

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{UserID: "user-admin", Name: "Admin", Role: domain.RoleAdmin})
}

func bankBalance(t *testing.T, svc *Service, id string) int64 {
	t.Helper()
	banks, err := svc.ListBanks(context.Background())
	require.NoError(t, err)
	for _, bank := range banks {
		if bank.ID == id {
			return bank.BalanceCents
		}
	}
	t.Fatalf("bank %s not found", id)
	return 0
}

func tableStatus(t *testing.T, svc *Service, id string) string {
	t.Helper()
	tables, err := svc.ListTables(context.Background())
	require.NoError(t, err)
	for _, table := range tables {
		if table.ID == id {
			return table.Status
		}
	}
	t.Fatalf("table %s not found", id)
	return ""
}

func productStock(t *testing.T, svc *Service, id string) int {
	t.Helper()
	product, err := svc.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return product.Stock
}

func cents(v int64) *int64 {
	return &v
}

func TestOpenShiftCreditsCashRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalanceCents: 10000})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusOpen, shift.Status)
	assert.Equal(t, "bank-till", shift.BankID)
	assert.Equal(t, "user-worker", shift.UserID)
	assert.Equal(t, int64(10000), bankBalance(t, svc, "bank-till"))

	txs, err := svc.ListTransactions(ctx, domain.TransactionFilter{Type: domain.TransactionTypeOpeningShift})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(10000), txs[0].AmountCents)
	assert.Equal(t, shift.ID, txs[0].CashShiftID)
}

func TestUpsertTableOrderOccupiesTableAndDecrementsStock(t *testing.T) {
	svc, _ := newTestService(t)
	recorder := &recordingObserver{}
	svc.AddObserver(recorder)

	sale, err := svc.UpsertTableOrder(workerCtx(), domain.OrderUpsertRequest{
		TableID: "table-1",
		Items:   []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusPending, sale.Status)
	assert.Equal(t, int64(6000), sale.TotalCents)
	assert.Equal(t, domain.TableStatusOccupied, tableStatus(t, svc, "table-1"))
	assert.Equal(t, 3, productStock(t, svc, "prod-cake"))

	require.Len(t, recorder.events, 1)
	assert.Equal(t, notify.EventOrderUpdated, recorder.events[0].Type)
	assert.Equal(t, "table-1", recorder.events[0].TableID)
	assert.Equal(t, sale.ID, recorder.events[0].Order.ID)
}

func TestUpsertTableOrderRejectsShortStockWithoutWrites(t *testing.T) {
	svc, _ := newTestService(t)
	recorder := &recordingObserver{}
	svc.AddObserver(recorder)

	_, err := svc.UpsertTableOrder(workerCtx(), domain.OrderUpsertRequest{
		TableID: "table-2",
		Items: []domain.OrderItemInput{
			{ProductID: "prod-coffee", Quantity: 1},
			{ProductID: "prod-cake", Quantity: 6},
		},
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Torta de Chocolate")

	_, err = svc.GetTableOrder(context.Background(), "table-2")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 5, productStock(t, svc, "prod-cake"))
	assert.Equal(t, 50, productStock(t, svc, "prod-coffee"))
	assert.Equal(t, domain.TableStatusAvailable, tableStatus(t, svc, "table-2"))
	assert.Empty(t, recorder.events)
}

func TestResavingDraftMovesStockByDelta(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()
	req := domain.OrderUpsertRequest{
		TableID: "table-3",
		Items:   []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 2}},
	}

	first, err := svc.UpsertTableOrder(ctx, req)
	require.NoError(t, err)
	second, err := svc.UpsertTableOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 3, productStock(t, svc, "prod-cake"))

	req.Items = []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 5}}
	_, err = svc.UpsertTableOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, productStock(t, svc, "prod-cake"))

	req.Items = []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}}
	_, err = svc.UpsertTableOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 5, productStock(t, svc, "prod-cake"))
	assert.Equal(t, 49, productStock(t, svc, "prod-coffee"))
}

func TestSavedLinesKeepTheirPrice(t *testing.T) {
	svc, _ := newTestService(t)

	sale, err := svc.UpsertTableOrder(workerCtx(), domain.OrderUpsertRequest{
		TableID: "table-1",
		Items:   []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 2}},
	})
	require.NoError(t, err)

	product, err := svc.GetProduct(context.Background(), "prod-coffee")
	require.NoError(t, err)
	_, err = svc.UpdateProduct(adminCtx(), product.ID, domain.ProductRequest{
		Name:           product.Name,
		SaleValueCents: 9900,
		CostCents:      product.CostCents,
		Stock:          product.Stock,
		CategoryID:     product.CategoryID,
	})
	require.NoError(t, err)

	pending, err := svc.GetTableOrder(context.Background(), "table-1")
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	assert.Equal(t, sale.ID, pending.ID)
	assert.Equal(t, int64(1000), pending.Items[0].UnitPriceCents)
	assert.Equal(t, int64(2000), pending.TotalCents)
}

func TestFinalizeOrderBooksSaleAndFreesTable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalanceCents: 5000})
	require.NoError(t, err)

	sale, err := svc.UpsertTableOrder(ctx, domain.OrderUpsertRequest{
		TableID: "table-1",
		Items:   []domain.OrderItemInput{{ProductID: "prod-toast", Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "cash"})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	_, err = svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "cash", AmountPaidCents: cents(4000)})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	done, err := svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "CASH", AmountPaidCents: cents(6000)})
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCompleted, done.Status)
	assert.Equal(t, int64(1000), done.ChangeCents)
	assert.Equal(t, domain.TableStatusAvailable, tableStatus(t, svc, "table-1"))
	assert.Equal(t, int64(10000), bankBalance(t, svc, "bank-till"))

	sales, err := svc.ListTransactions(ctx, domain.TransactionFilter{Type: domain.TransactionTypeSale})
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, shift.ID, sales[0].CashShiftID)
	assert.Equal(t, sale.ID, sales[0].SaleID)

	_, err = svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "cash", AmountPaidCents: cents(6000)})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.FinalizeOrder(ctx, "sale-missing", domain.FinalizeRequest{PaymentMethod: "card", AmountPaidCents: cents(100)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFinalizeCardPaymentMustMatchTotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	sale, err := svc.UpsertTableOrder(ctx, domain.OrderUpsertRequest{
		TableID: "table-4",
		Items:   []domain.OrderItemInput{{ProductID: "prod-juice", Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "card"})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	_, err = svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "card", AmountPaidCents: cents(500)})
	require.ErrorIs(t, err, store.ErrInvalidRequest)
	assert.Zero(t, bankBalance(t, svc, "bank-account"))

	done, err := svc.FinalizeOrder(ctx, sale.ID, domain.FinalizeRequest{PaymentMethod: "card", AmountPaidCents: cents(3000)})
	require.NoError(t, err)
	assert.Equal(t, int64(3000), done.AmountPaidCents)
	assert.Zero(t, done.ChangeCents)
	assert.Equal(t, int64(3000), bankBalance(t, svc, "bank-account"))
	assert.Zero(t, bankBalance(t, svc, "bank-till"))
}

func TestDirectSaleDefaultsToExactCash(t *testing.T) {
	svc, _ := newTestService(t)

	sale, err := svc.CreateDirectSale(workerCtx(), domain.DirectSaleRequest{
		Items: []domain.OrderItemInput{
			{ProductID: "prod-coffee", Quantity: 1},
			{ProductID: " prod-coffee ", Quantity: 2},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.SaleStatusCompleted, sale.Status)
	assert.Empty(t, sale.TableID)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, int64(3000), sale.AmountPaidCents)
	assert.Equal(t, domain.PaymentMethodCash, sale.PaymentMethod)
	assert.Equal(t, 47, productStock(t, svc, "prod-coffee"))
	assert.Equal(t, int64(3000), bankBalance(t, svc, "bank-till"))
}

func TestCloseShiftReconcilesCashSales(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	_, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{OpeningBalanceCents: 10000})
	require.NoError(t, err)

	_, err = svc.CreateDirectSale(ctx, domain.DirectSaleRequest{
		Items:           []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 4}},
		PaymentMethod:   "cash",
		AmountPaidCents: cents(4000),
	})
	require.NoError(t, err)

	_, err = svc.CreateDirectSale(ctx, domain.DirectSaleRequest{
		Items:         []domain.OrderItemInput{{ProductID: "prod-juice", Quantity: 1}},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)

	_, err = svc.CloseShift(ctx, domain.ShiftCloseRequest{})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	closed, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ClosingBalanceCents: cents(15000)})
	require.NoError(t, err)
	assert.Equal(t, domain.ShiftStatusClosed, closed.Status)
	assert.Equal(t, int64(14000), closed.ExpectedBalanceCents)
	assert.Equal(t, int64(1000), closed.DifferenceCents)
	require.NotNil(t, closed.ClosedAt)
	assert.Equal(t, int64(-1000), bankBalance(t, svc, "bank-till"))

	closing, err := svc.ListTransactions(ctx, domain.TransactionFilter{Type: domain.TransactionTypeClosingShift})
	require.NoError(t, err)
	require.Len(t, closing, 1)
	assert.Equal(t, int64(-15000), closing[0].AmountCents)

	_, err = svc.CloseShift(ctx, domain.ShiftCloseRequest{ClosingBalanceCents: cents(15000)})
	assert.ErrorIs(t, err, store.ErrNoOpenShift)

	_, err = svc.GetActiveShift(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentShiftOpensAdmitExactlyOne(t *testing.T) {
	svc, _ := newTestService(t)

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.OpenShift(workerCtx(), domain.ShiftOpenRequest{OpeningBalanceCents: 100})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var opened, rejected int
	for err := range results {
		switch {
		case err == nil:
			opened++
		case errors.Is(err, store.ErrShiftAlreadyOpen):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, callers-1, rejected)
	assert.Equal(t, int64(100), bankBalance(t, svc, "bank-till"))
}

func TestWritesRequireActingUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertTableOrder(ctx, domain.OrderUpsertRequest{TableID: "table-1", Items: []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}}})
	assert.ErrorIs(t, err, store.ErrInvalidRequest)

	_, err = svc.OpenShift(ctx, domain.ShiftOpenRequest{})
	assert.ErrorIs(t, err, store.ErrInvalidRequest)
}

func TestOrderValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	cases := []struct {
		name string
		req  domain.OrderUpsertRequest
		want error
	}{
		{"missing table", domain.OrderUpsertRequest{Items: []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}}}, store.ErrInvalidRequest},
		{"no items", domain.OrderUpsertRequest{TableID: "table-1"}, store.ErrInvalidRequest},
		{"zero quantity", domain.OrderUpsertRequest{TableID: "table-1", Items: []domain.OrderItemInput{{ProductID: "prod-coffee"}}}, store.ErrInvalidRequest},
		{"unknown product", domain.OrderUpsertRequest{TableID: "table-1", Items: []domain.OrderItemInput{{ProductID: "prod-ghost", Quantity: 1}}}, store.ErrNotFound},
		{"unknown table", domain.OrderUpsertRequest{TableID: "table-99", Items: []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}}}, store.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpsertTableOrder(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestObserverFailureDoesNotFailOrder(t *testing.T) {
	svc, _ := newTestService(t)
	svc.AddObserver(failingObserver{})

	_, err := svc.UpsertTableOrder(workerCtx(), domain.OrderUpsertRequest{
		TableID: "table-1",
		Items:   []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}},
	})
	assert.NoError(t, err)
}

func TestStalledObserverDoesNotHoldOrder(t *testing.T) {
	svc, _ := newTestService(t)
	svc.notifyTimeout = 50 * time.Millisecond
	svc.AddObserver(stalledObserver{})
	recorder := &recordingObserver{}
	svc.AddObserver(recorder)

	startedAt := time.Now()
	_, err := svc.UpsertTableOrder(workerCtx(), domain.OrderUpsertRequest{
		TableID: "table-2",
		Items:   []domain.OrderItemInput{{ProductID: "prod-coffee", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Less(t, time.Since(startedAt), time.Second)

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Len(t, recorder.events, 1)
}

func TestRegisterExpenseDebitsBank(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	_, err := svc.RegisterExpense(ctx, domain.ExpenseRequest{AmountCents: 0, Description: "Hielo", BankID: "bank-till"})
	require.ErrorIs(t, err, store.ErrInvalidRequest)

	_, err = svc.RegisterExpense(ctx, domain.ExpenseRequest{AmountCents: 500, Description: "Hielo", BankID: "bank-ghost"})
	require.ErrorIs(t, err, store.ErrNotFound)

	expense, err := svc.RegisterExpense(ctx, domain.ExpenseRequest{AmountCents: 500, Description: "Hielo", BankID: "bank-till"})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeExpense, expense.Type)
	assert.Equal(t, int64(-500), expense.AmountCents)
	assert.Equal(t, int64(-500), bankBalance(t, svc, "bank-till"))
}

func TestBankLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	bank, err := svc.CreateBank(ctx, domain.BankCreateRequest{Name: "Caja Fuerte", Type: "safe", InitialBalanceCents: 2000})
	require.NoError(t, err)
	assert.Equal(t, domain.BankTypeSafe, bank.Type)
	assert.Equal(t, int64(2000), bank.BalanceCents)

	_, err = svc.CreateBank(ctx, domain.BankCreateRequest{Name: "caja fuerte", Type: "SAFE"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.CreateBank(ctx, domain.BankCreateRequest{Name: "Wallet", Type: "CRYPTO"})
	assert.ErrorIs(t, err, store.ErrInvalidRequest)

	renamed, err := svc.UpdateBank(ctx, bank.ID, domain.BankUpdateRequest{Name: "Bóveda", Type: "SAFE"})
	require.NoError(t, err)
	assert.Equal(t, "Bóveda", renamed.Name)
	assert.Equal(t, int64(2000), renamed.BalanceCents)
}

func TestDashboardIsCachedAndInvalidatedBySales(t *testing.T) {
	logger := zaptest.NewLogger(t)
	reports := &mapCache{values: map[string]any{}}
	svc := New(memory.NewSeeded(logger), reports, time.Minute, logger)
	ctx := workerCtx()

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.CompletedSales)
	assert.Contains(t, reports.values, reportStatsKey)

	_, err = svc.CreateDirectSale(ctx, domain.DirectSaleRequest{
		Items: []domain.OrderItemInput{{ProductID: "prod-cake", Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, reports.deletes)
	assert.NotContains(t, reports.values, reportStatsKey)

	stats, err = svc.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedSales)
	assert.Equal(t, int64(6000), stats.RevenueCents)
	assert.Equal(t, 2, stats.TotalProductsSold)

	top, err := svc.TopProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, top)
	assert.Equal(t, "prod-cake", top[0].ProductID)

	days, err := svc.SalesOverTime(ctx)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, int64(6000), days[0].TotalCents)
}

func TestEmployees(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := adminCtx()

	created, err := svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, domain.RoleWorker, created.Role)
	assert.NotEqual(t, "secret1", created.Password)

	_, err = svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Name: "Ana 2", Email: "ana@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Name: "Bob", Email: "bob@example.com", Password: "123"})
	assert.ErrorIs(t, err, store.ErrInvalidRequest)

	_, err = svc.CreateEmployee(ctx, domain.EmployeeCreateRequest{Name: "Bob", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, store.ErrInvalidRequest)

	assert.ErrorIs(t, svc.DeleteEmployee(ctx, "user-admin"), store.ErrInvalidRequest)
	assert.NoError(t, svc.DeleteEmployee(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteEmployee(ctx, created.ID), store.ErrNotFound)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Owner", "owner@tablepos.local", "owner-pass"))
	require.NoError(t, svc.EnsureAdmin(ctx, "Owner", "OWNER@tablepos.local", "owner-pass"))

	user, err := repo.GetUserByEmail(ctx, "owner@tablepos.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	users, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestClockInAndOut(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := workerCtx()

	entry, err := svc.ClockIn(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry.ClockOut)

	_, err = svc.ClockIn(ctx)
	assert.ErrorIs(t, err, store.ErrConflict)

	out, err := svc.ClockOut(ctx)
	require.NoError(t, err)
	require.NotNil(t, out.ClockOut)
	assert.Equal(t, entry.ID, out.ID)

	_, err = svc.ClockOut(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMutationsAreAudited(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCategory(adminCtx(), domain.CategoryCreateRequest{Name: "  Postres  "})
	require.NoError(t, err)

	logs, err := svc.ListAuditLogs(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, "category_create", logs[0].Action)
	assert.Equal(t, "user-admin", logs[0].ActorID)
	assert.Equal(t, "Postres", logs[0].Detail)
}
