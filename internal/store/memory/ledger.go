package memory

import (
	"context"
	"fmt"
	"slices"
	"time"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/xid"
)

func (s *Store) UpsertTableOrder(_ context.Context, draft domain.OrderDraft) (*domain.Sale, error) {
	if len(draft.Items) == 0 || draft.TableID == "" || draft.UserID == "" {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(draft.At)

	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.tables[draft.TableID]
	if !ok {
		return nil, fmt.Errorf("%w: table %s", store.ErrNotFound, draft.TableID)
	}
	products, err := s.resolveProductsLocked(draft.Items)
	if err != nil {
		return nil, err
	}

	var sale *domain.Sale
	var previous []domain.SaleItem
	if saleID, ok := s.pendingByTable[draft.TableID]; ok {
		sale = s.sales[saleID]
		previous = sale.Items
	}

	lines := domain.SnapshotLines(draft.Items, products)
	deltas := domain.StockDeltas(previous, lines)
	if product, short := domain.Shortfall(deltas, products); short {
		return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
	}

	s.applyStockLocked(deltas, at)
	if sale == nil {
		sale = &domain.Sale{
			ID:        xid.New("sale"),
			UserID:    draft.UserID,
			TableID:   draft.TableID,
			Status:    domain.SaleStatusPending,
			CreatedAt: at,
		}
		s.sales[sale.ID] = sale
		s.pendingByTable[draft.TableID] = sale.ID
	}
	for i := range lines {
		lines[i].ID = xid.New("item")
		lines[i].SaleID = sale.ID
	}
	sale.Items = lines
	sale.TotalCents = domain.OrderTotal(lines)
	sale.UpdatedAt = at

	table.Status = domain.TableStatusOccupied
	s.tables[table.ID] = table

	return cloneSale(sale), nil
}

func (s *Store) GetPendingOrderByTable(_ context.Context, tableID string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	saleID, ok := s.pendingByTable[tableID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(s.sales[saleID]), nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneSale(sale), nil
}

func (s *Store) FinalizeSale(_ context.Context, payment domain.Payment) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale, ok := s.sales[payment.SaleID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if sale.Status != domain.SaleStatusPending {
		return nil, fmt.Errorf("%w: sale already completed", store.ErrConflict)
	}

	bank, change, err := s.settlementLocked(sale.TotalCents, payment)
	if err != nil {
		return nil, err
	}
	s.settleLocked(sale, bank, payment, change)

	if sale.TableID != "" {
		delete(s.pendingByTable, sale.TableID)
		if table, ok := s.tables[sale.TableID]; ok {
			table.Status = domain.TableStatusAvailable
			s.tables[table.ID] = table
		}
	}
	return cloneSale(sale), nil
}

func (s *Store) CreateDirectSale(_ context.Context, draft domain.OrderDraft, payment domain.Payment) (*domain.Sale, error) {
	if len(draft.Items) == 0 || draft.UserID == "" {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(draft.At)

	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.resolveProductsLocked(draft.Items)
	if err != nil {
		return nil, err
	}
	lines := domain.SnapshotLines(draft.Items, products)
	deltas := domain.StockDeltas(nil, lines)
	if product, short := domain.Shortfall(deltas, products); short {
		return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
	}

	total := domain.OrderTotal(lines)
	bank, change, err := s.settlementLocked(total, payment)
	if err != nil {
		return nil, err
	}

	s.applyStockLocked(deltas, at)
	sale := &domain.Sale{
		ID:         xid.New("sale"),
		UserID:     draft.UserID,
		Status:     domain.SaleStatusPending,
		TotalCents: total,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	for i := range lines {
		lines[i].ID = xid.New("item")
		lines[i].SaleID = sale.ID
	}
	sale.Items = lines
	s.sales[sale.ID] = sale
	if payment.At.IsZero() {
		payment.At = at
	}
	s.settleLocked(sale, bank, payment, change)

	return cloneSale(sale), nil
}

// resolveProductsLocked loads the ordered products. Unknown products are
// NotFound and inactive ones are rejected.
func (s *Store) resolveProductsLocked(items []domain.OrderItemInput) (map[string]domain.Product, error) {
	products := make(map[string]domain.Product, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be positive", store.ErrInvalidRequest)
		}
		product, ok := s.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %s", store.ErrNotFound, item.ProductID)
		}
		if !product.Active {
			return nil, fmt.Errorf("%w: product %s is inactive", store.ErrInvalidRequest, product.Name)
		}
		products[product.ID] = product
	}
	return products, nil
}

func (s *Store) applyStockLocked(deltas map[string]int, at time.Time) {
	for productID, delta := range deltas {
		product, ok := s.products[productID]
		if !ok {
			continue
		}
		product.Stock -= delta
		product.UpdatedAt = at
		s.products[productID] = product
	}
}

func (s *Store) settlementLocked(totalCents int64, payment domain.Payment) (domain.Bank, int64, error) {
	return store.ResolveSettlement(s.bankListLocked(), totalCents, payment)
}

// settleLocked completes the sale and books its total into the bank.
func (s *Store) settleLocked(sale *domain.Sale, bank domain.Bank, payment domain.Payment, change int64) {
	at := stamp(payment.At)
	sale.Status = domain.SaleStatusCompleted
	sale.PaymentMethod = payment.Method
	sale.AmountPaidCents = domain.Tendered(payment, sale.TotalCents)
	sale.ChangeCents = change
	sale.UpdatedAt = at
	sale.CompletedAt = &at

	s.transactions = append(s.transactions, domain.Transaction{
		ID:          xid.New("tx"),
		Type:        domain.TransactionTypeSale,
		AmountCents: sale.TotalCents,
		Description: store.SaleDescription(*sale),
		BankID:      bank.ID,
		CashShiftID: s.activeShiftID,
		SaleID:      sale.ID,
		CreatedAt:   at,
	})
	bank.BalanceCents += sale.TotalCents
	s.banks[bank.ID] = bank
}

func (s *Store) OpenShift(_ context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	if shift.OpeningBalanceCents < 0 || shift.UserID == "" {
		return nil, store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeShiftID != "" {
		return nil, store.ErrShiftAlreadyOpen
	}

	bank, err := store.ShiftBank(s.bankListLocked(), shift.BankID)
	if err != nil {
		return nil, err
	}

	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	shift.OpenedAt = stamp(shift.OpenedAt)
	shift.BankID = bank.ID
	shift.Status = domain.ShiftStatusOpen
	shift.ClosedAt = nil
	shift.ClosingBalanceCents = 0
	shift.ExpectedBalanceCents = 0
	shift.DifferenceCents = 0

	s.shifts[shift.ID] = shift
	s.activeShiftID = shift.ID
	s.transactions = append(s.transactions, domain.Transaction{
		ID:          xid.New("tx"),
		Type:        domain.TransactionTypeOpeningShift,
		AmountCents: shift.OpeningBalanceCents,
		Description: "Opening cash shift",
		BankID:      bank.ID,
		CashShiftID: shift.ID,
		CreatedAt:   shift.OpenedAt,
	})
	bank.BalanceCents += shift.OpeningBalanceCents
	s.banks[bank.ID] = bank

	return &shift, nil
}

func (s *Store) CloseShift(_ context.Context, closingBalanceCents int64, closedAt time.Time) (*domain.CashShift, error) {
	if closingBalanceCents < 0 {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(closedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeShiftID == "" {
		return nil, store.ErrNoOpenShift
	}
	shift := s.shifts[s.activeShiftID]
	register, ok := domain.CashRegister(s.bankListLocked(), shift.BankID)
	if !ok {
		return nil, store.ErrNoCashRegister
	}

	var cashSales int64
	for _, tx := range s.transactions {
		if tx.Type == domain.TransactionTypeSale && tx.BankID == register.ID && tx.CashShiftID == shift.ID {
			cashSales += tx.AmountCents
		}
	}

	shift.ExpectedBalanceCents, shift.DifferenceCents = domain.ReconcileShift(shift.OpeningBalanceCents, cashSales, closingBalanceCents)
	shift.ClosingBalanceCents = closingBalanceCents
	shift.Status = domain.ShiftStatusClosed
	shift.ClosedAt = &at
	s.shifts[shift.ID] = shift
	s.activeShiftID = ""

	s.transactions = append(s.transactions, domain.Transaction{
		ID:          xid.New("tx"),
		Type:        domain.TransactionTypeClosingShift,
		AmountCents: -closingBalanceCents,
		Description: "Closing cash shift",
		BankID:      register.ID,
		CashShiftID: shift.ID,
		CreatedAt:   at,
	})
	register.BalanceCents -= closingBalanceCents
	s.banks[register.ID] = register

	return &shift, nil
}

func (s *Store) GetActiveShift(_ context.Context) (*domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeShiftID == "" {
		return nil, store.ErrNotFound
	}
	shift := s.shifts[s.activeShiftID]
	return &shift, nil
}

func (s *Store) ListShifts(_ context.Context, limit int) ([]domain.CashShift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 50
	}
	result := make([]domain.CashShift, 0, len(s.shifts))
	for _, shift := range s.shifts {
		result = append(result, shift)
	}
	slices.SortFunc(result, func(a, b domain.CashShift) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) RegisterExpense(_ context.Context, expense domain.Transaction) (*domain.Transaction, error) {
	if expense.AmountCents >= 0 {
		return nil, store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bank, ok := s.banks[expense.BankID]
	if !ok {
		return nil, fmt.Errorf("%w: bank %s", store.ErrNotFound, expense.BankID)
	}
	if expense.ID == "" {
		expense.ID = xid.New("tx")
	}
	expense.Type = domain.TransactionTypeExpense
	expense.CashShiftID = s.activeShiftID
	expense.CreatedAt = stamp(expense.CreatedAt)
	s.transactions = append(s.transactions, expense)

	bank.BalanceCents += expense.AmountCents
	s.banks[bank.ID] = bank

	expense.BankName = bank.Name
	return &expense, nil
}

func (s *Store) ListTransactions(_ context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}
	result := make([]domain.Transaction, 0, min(limit, len(s.transactions)))
	for i := len(s.transactions) - 1; i >= 0 && len(result) < limit; i-- {
		tx := s.transactions[i]
		if filter.Type != "" && tx.Type != filter.Type {
			continue
		}
		if filter.BankID != "" && tx.BankID != filter.BankID {
			continue
		}
		tx.BankName = s.banks[tx.BankID].Name
		result = append(result, tx)
	}
	return result, nil
}

func (s *Store) DashboardStats(_ context.Context) (domain.DashboardStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats domain.DashboardStats
	for _, sale := range s.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		stats.RevenueCents += sale.TotalCents
		stats.CompletedSales++
		for _, item := range sale.Items {
			stats.TotalProductsSold += item.Quantity
		}
	}
	return stats, nil
}

func (s *Store) SalesOverTime(_ context.Context) ([]domain.DailySales, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDay := make(map[string]*domain.DailySales)
	for _, sale := range s.sales {
		if sale.Status != domain.SaleStatusCompleted || sale.CompletedAt == nil {
			continue
		}
		day := sale.CompletedAt.UTC().Format(time.DateOnly)
		entry, ok := byDay[day]
		if !ok {
			entry = &domain.DailySales{Date: day}
			byDay[day] = entry
		}
		entry.TotalCents += sale.TotalCents
		entry.Sales++
	}

	result := make([]domain.DailySales, 0, len(byDay))
	for _, entry := range byDay {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.DailySales) int {
		return cmpString(a.Date, b.Date)
	})
	return result, nil
}

func (s *Store) TopProducts(_ context.Context, limit int) ([]domain.TopProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 5
	}
	byProduct := make(map[string]*domain.TopProduct)
	for _, sale := range s.sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		seen := make(map[string]bool, len(sale.Items))
		for _, item := range sale.Items {
			entry, ok := byProduct[item.ProductID]
			if !ok {
				name := item.ProductName
				if product, exists := s.products[item.ProductID]; exists {
					name = product.Name
				}
				entry = &domain.TopProduct{ProductID: item.ProductID, Name: name}
				byProduct[item.ProductID] = entry
			}
			entry.QuantitySold += item.Quantity
			if !seen[item.ProductID] {
				entry.SaleCount++
				seen[item.ProductID] = true
			}
		}
	}

	result := make([]domain.TopProduct, 0, len(byProduct))
	for _, entry := range byProduct {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b domain.TopProduct) int {
		if a.QuantitySold != b.QuantitySold {
			return b.QuantitySold - a.QuantitySold
		}
		return cmpString(a.Name, b.Name)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func stamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at.UTC()
}
