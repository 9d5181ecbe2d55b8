package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/xid"
)

func (s *Store) UpsertTableOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Sale, error) {
	if len(draft.Items) == 0 || draft.TableID == "" || draft.UserID == "" {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(draft.At)

	var saleID string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// The table row lock serializes writers of the same table.
		var tableID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM dining_tables WHERE id = $1 FOR UPDATE`, draft.TableID).Scan(&tableID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: table %s", store.ErrNotFound, draft.TableID)
			}
			return err
		}

		saleID = ""
		var previous []domain.SaleItem
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM sales
			WHERE table_id = $1 AND status = 'PENDING'
			FOR UPDATE
		`, draft.TableID).Scan(&saleID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return err
		default:
			if previous, err = loadItems(ctx, tx, saleID); err != nil {
				return err
			}
		}

		ids := make([]string, 0, len(draft.Items)+len(previous))
		for _, item := range draft.Items {
			ids = append(ids, item.ProductID)
		}
		for _, line := range previous {
			ids = append(ids, line.ProductID)
		}
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := checkOrderable(draft.Items, products); err != nil {
			return err
		}

		lines := domain.SnapshotLines(draft.Items, products)
		deltas := domain.StockDeltas(previous, lines)
		if product, short := domain.Shortfall(deltas, products); short {
			return fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
		}
		if err := applyStock(ctx, tx, deltas, at); err != nil {
			return err
		}

		total := domain.OrderTotal(lines)
		if saleID == "" {
			saleID = xid.New("sale")
			_, err = tx.ExecContext(ctx, `
				INSERT INTO sales (id, user_id, table_id, status, total_cents, created_at, updated_at)
				VALUES ($1,$2,$3,'PENDING',$4,$5,$5)
			`, saleID, draft.UserID, draft.TableID, total, at)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE sales SET total_cents = $2, updated_at = $3 WHERE id = $1
			`, saleID, total, at)
		}
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: unknown user", store.ErrInvalidRequest)
			}
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM sale_items WHERE sale_id = $1`, saleID); err != nil {
			return err
		}
		if err := insertItems(ctx, tx, saleID, lines); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE dining_tables SET status = 'occupied' WHERE id = $1`, draft.TableID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *Store) GetPendingOrderByTable(ctx context.Context, tableID string) (*domain.Sale, error) {
	var saleID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sales WHERE table_id = $1 AND status = 'PENDING'
	`, tableID).Scan(&saleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return loadSale(ctx, s.db, id, false)
}

func (s *Store) FinalizeSale(ctx context.Context, payment domain.Payment) (*domain.Sale, error) {
	at := stamp(payment.At)
	payment.At = at

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		sale, err := loadSale(ctx, tx, payment.SaleID, true)
		if err != nil {
			return err
		}
		if sale.Status != domain.SaleStatusPending {
			return fmt.Errorf("%w: sale already completed", store.ErrConflict)
		}

		banks, err := listBanks(ctx, tx)
		if err != nil {
			return err
		}
		bank, change, err := store.ResolveSettlement(banks, sale.TotalCents, payment)
		if err != nil {
			return err
		}
		if err := settle(ctx, tx, *sale, bank, payment, change); err != nil {
			return err
		}

		if sale.TableID != "" {
			_, err = tx.ExecContext(ctx, `UPDATE dining_tables SET status = 'available' WHERE id = $1`, sale.TableID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, payment.SaleID)
}

func (s *Store) CreateDirectSale(ctx context.Context, draft domain.OrderDraft, payment domain.Payment) (*domain.Sale, error) {
	if len(draft.Items) == 0 || draft.UserID == "" {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(draft.At)
	if payment.At.IsZero() {
		payment.At = at
	}

	var saleID string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		ids := make([]string, 0, len(draft.Items))
		for _, item := range draft.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}
		if err := checkOrderable(draft.Items, products); err != nil {
			return err
		}

		lines := domain.SnapshotLines(draft.Items, products)
		deltas := domain.StockDeltas(nil, lines)
		if product, short := domain.Shortfall(deltas, products); short {
			return fmt.Errorf("%w: %s", store.ErrInsufficientStock, product.Name)
		}

		total := domain.OrderTotal(lines)
		banks, err := listBanks(ctx, tx)
		if err != nil {
			return err
		}
		bank, change, err := store.ResolveSettlement(banks, total, payment)
		if err != nil {
			return err
		}

		if err := applyStock(ctx, tx, deltas, at); err != nil {
			return err
		}

		saleID = xid.New("sale")
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sales (id, user_id, status, total_cents, created_at, updated_at)
			VALUES ($1,$2,'PENDING',$3,$4,$4)
		`, saleID, draft.UserID, total, at)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: unknown user", store.ErrInvalidRequest)
			}
			return err
		}
		if err := insertItems(ctx, tx, saleID, lines); err != nil {
			return err
		}

		sale := domain.Sale{ID: saleID, TotalCents: total}
		return settle(ctx, tx, sale, bank, payment, change)
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, saleID)
}

// lockProducts loads and row-locks the given products in id order so that
// concurrent orders never deadlock on each other.
func lockProducts(ctx context.Context, tx *sql.Tx, ids []string) (map[string]domain.Product, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make(map[string]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products[p.ID] = p
	}
	return products, rows.Err()
}

func checkOrderable(items []domain.OrderItemInput, products map[string]domain.Product) error {
	for _, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be positive", store.ErrInvalidRequest)
		}
		product, ok := products[item.ProductID]
		if !ok {
			return fmt.Errorf("%w: product %s", store.ErrNotFound, item.ProductID)
		}
		if !product.Active {
			return fmt.Errorf("%w: product %s is inactive", store.ErrInvalidRequest, product.Name)
		}
	}
	return nil
}

func applyStock(ctx context.Context, tx *sql.Tx, deltas map[string]int, at time.Time) error {
	for _, productID := range sortedKeys(deltas) {
		_, err := tx.ExecContext(ctx, `
			UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1
		`, productID, deltas[productID], at)
		if err != nil {
			return err
		}
	}
	return nil
}

func insertItems(ctx context.Context, tx *sql.Tx, saleID string, lines []domain.SaleItem) error {
	for i, line := range lines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sale_items (id, sale_id, product_id, position, product_name, quantity, unit_price_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, xid.New("item"), saleID, line.ProductID, i, line.ProductName, line.Quantity, line.UnitPriceCents)
		if err != nil {
			return err
		}
	}
	return nil
}

// settle completes the sale and books its total into the bank, linked to the
// open shift when there is one.
func settle(ctx context.Context, tx *sql.Tx, sale domain.Sale, bank domain.Bank, payment domain.Payment, change int64) error {
	at := stamp(payment.At)
	_, err := tx.ExecContext(ctx, `
		UPDATE sales
		SET status = 'COMPLETED', payment_method = $2, amount_paid_cents = $3, change_cents = $4,
			updated_at = $5, completed_at = $5
		WHERE id = $1
	`, sale.ID, payment.Method, domain.Tendered(payment, sale.TotalCents), change, at)
	if err != nil {
		return err
	}

	shiftID, err := activeShiftID(ctx, tx)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, type, amount_cents, description, bank_id, cash_shift_id, sale_id, created_at)
		VALUES ($1,'SALE',$2,$3,$4,$5,$6,$7)
	`, xid.New("tx"), sale.TotalCents, store.SaleDescription(sale), bank.ID, nullIfEmpty(shiftID), sale.ID, at)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE banks SET balance_cents = balance_cents + $2 WHERE id = $1`, bank.ID, sale.TotalCents)
	return err
}

func loadSale(ctx context.Context, q queryer, id string, forUpdate bool) (*domain.Sale, error) {
	query := `
		SELECT id, user_id, COALESCE(table_id, ''), status, total_cents, COALESCE(payment_method, ''),
			amount_paid_cents, change_cents, created_at, updated_at, completed_at
		FROM sales
		WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var sale domain.Sale
	var completedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, id).Scan(
		&sale.ID, &sale.UserID, &sale.TableID, &sale.Status, &sale.TotalCents, &sale.PaymentMethod,
		&sale.AmountPaidCents, &sale.ChangeCents, &sale.CreatedAt, &sale.UpdatedAt, &completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.CreatedAt = sale.CreatedAt.UTC()
	sale.UpdatedAt = sale.UpdatedAt.UTC()
	if completedAt.Valid {
		completed := completedAt.Time.UTC()
		sale.CompletedAt = &completed
	}

	sale.Items, err = loadItems(ctx, q, sale.ID)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func loadItems(ctx context.Context, q queryer, saleID string) ([]domain.SaleItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, sale_id, product_id, product_name, quantity, unit_price_cents
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY position, id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.SaleItem, 0, 8)
	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPriceCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
