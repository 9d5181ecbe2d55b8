package service

import (
	"context"
	"fmt"
	"strings"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

// UpsertTableOrder saves the table's draft order, replacing its items.
func (s *Service) UpsertTableOrder(ctx context.Context, req domain.OrderUpsertRequest) (domain.Sale, error) {
	actor, err := actingUser(ctx)
	if err != nil {
		return domain.Sale{}, err
	}

	tableID := strings.TrimSpace(req.TableID)
	if tableID == "" {
		return domain.Sale{}, fmt.Errorf("%w: table_id is required", store.ErrInvalidRequest)
	}
	items, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Sale{}, err
	}

	sale, err := s.repo.UpsertTableOrder(ctx, domain.OrderDraft{
		TableID: tableID,
		UserID:  actor.UserID,
		Items:   items,
		At:      s.now(),
	})
	if err != nil {
		return domain.Sale{}, err
	}

	s.logAudit(ctx, "order_upsert", "sale", sale.ID, fmt.Sprintf("table=%s,items=%d,total=%d", tableID, len(sale.Items), sale.TotalCents))
	s.publish(ctx, *sale)
	return *sale, nil
}

func (s *Service) GetTableOrder(ctx context.Context, tableID string) (domain.Sale, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return domain.Sale{}, store.ErrInvalidRequest
	}
	sale, err := s.repo.GetPendingOrderByTable(ctx, tableID)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

// FinalizeOrder charges a pending order and frees its table.
func (s *Service) FinalizeOrder(ctx context.Context, saleID string, req domain.FinalizeRequest) (domain.Sale, error) {
	if _, err := actingUser(ctx); err != nil {
		return domain.Sale{}, err
	}

	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.Sale{}, fmt.Errorf("%w: order id is required", store.ErrInvalidRequest)
	}
	payment, err := paymentFrom(req.PaymentMethod, req.AmountPaidCents, req.BankID, true)
	if err != nil {
		return domain.Sale{}, err
	}
	payment.SaleID = saleID
	payment.At = s.now()

	sale, err := s.repo.FinalizeSale(ctx, payment)
	if err != nil {
		return domain.Sale{}, err
	}

	s.invalidateReports(ctx)
	s.logAudit(ctx, "order_finalize", "sale", sale.ID, fmt.Sprintf("method=%s,total=%d,paid=%d,change=%d", sale.PaymentMethod, sale.TotalCents, sale.AmountPaidCents, sale.ChangeCents))
	s.publish(ctx, *sale)
	return *sale, nil
}

// CreateDirectSale records a counter sale with no table. It is completed
// and booked in one step; cash is assumed when no method is given.
func (s *Service) CreateDirectSale(ctx context.Context, req domain.DirectSaleRequest) (domain.Sale, error) {
	actor, err := actingUser(ctx)
	if err != nil {
		return domain.Sale{}, err
	}

	items, err := normalizeItems(req.Items)
	if err != nil {
		return domain.Sale{}, err
	}
	method := req.PaymentMethod
	if strings.TrimSpace(method) == "" {
		method = domain.PaymentMethodCash
	}
	payment, err := paymentFrom(method, req.AmountPaidCents, req.BankID, false)
	if err != nil {
		return domain.Sale{}, err
	}
	now := s.now()
	payment.At = now

	sale, err := s.repo.CreateDirectSale(ctx, domain.OrderDraft{
		UserID: actor.UserID,
		Items:  items,
		At:     now,
	}, payment)
	if err != nil {
		return domain.Sale{}, err
	}

	s.invalidateReports(ctx)
	s.logAudit(ctx, "direct_sale", "sale", sale.ID, fmt.Sprintf("items=%d,total=%d,method=%s", len(sale.Items), sale.TotalCents, sale.PaymentMethod))
	return *sale, nil
}

// paymentFrom validates the tender. When amountRequired is false a missing
// amount means exact payment.
func paymentFrom(method string, amountPaid *int64, bankID string, amountRequired bool) (domain.Payment, error) {
	method = domain.NormalizePaymentMethod(method)
	if !domain.IsSupportedPaymentMethod(method) {
		return domain.Payment{}, fmt.Errorf("%w: unsupported payment method %q", store.ErrInvalidRequest, method)
	}

	payment := domain.Payment{Method: method, BankID: strings.TrimSpace(bankID)}
	switch {
	case amountPaid != nil:
		if *amountPaid < 0 {
			return domain.Payment{}, fmt.Errorf("%w: amount paid cannot be negative", store.ErrInvalidRequest)
		}
		payment.AmountPaidCents = *amountPaid
	case amountRequired:
		return domain.Payment{}, fmt.Errorf("%w: amount_paid_cents is required", store.ErrInvalidRequest)
	default:
		payment.Exact = true
	}
	return payment, nil
}

// normalizeItems trims ids and merges repeated products, keeping the order
// in which products first appear.
func normalizeItems(items []domain.OrderItemInput) ([]domain.OrderItemInput, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items are required", store.ErrInvalidRequest)
	}

	merged := make([]domain.OrderItemInput, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return nil, fmt.Errorf("%w: product_id is required", store.ErrInvalidRequest)
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be a positive integer", store.ErrInvalidRequest)
		}
		if i, ok := index[productID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[productID] = len(merged)
		merged = append(merged, domain.OrderItemInput{ProductID: productID, Quantity: item.Quantity})
	}
	return merged, nil
}
