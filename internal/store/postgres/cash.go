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

func (s *Store) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	return listBanks(ctx, s.db)
}

func listBanks(ctx context.Context, q queryer) ([]domain.Bank, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, name, type, balance_cents, created_at
		FROM banks
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	banks := make([]domain.Bank, 0, 8)
	for rows.Next() {
		var bank domain.Bank
		if err := rows.Scan(&bank.ID, &bank.Name, &bank.Type, &bank.BalanceCents, &bank.CreatedAt); err != nil {
			return nil, err
		}
		bank.CreatedAt = bank.CreatedAt.UTC()
		banks = append(banks, bank)
	}
	return banks, rows.Err()
}

func (s *Store) CreateBank(ctx context.Context, bank domain.Bank) (*domain.Bank, error) {
	if bank.ID == "" {
		bank.ID = xid.New("bank")
	}
	bank.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO banks (id, name, type, balance_cents, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, bank.ID, bank.Name, bank.Type, bank.BalanceCents, bank.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: bank %q already exists", store.ErrConflict, bank.Name)
		}
		return nil, err
	}
	return &bank, nil
}

func (s *Store) UpdateBank(ctx context.Context, bank domain.Bank) (*domain.Bank, error) {
	var updated domain.Bank
	err := s.db.QueryRowContext(ctx, `
		UPDATE banks SET name = $2, type = $3
		WHERE id = $1
		RETURNING id, name, type, balance_cents, created_at
	`, bank.ID, bank.Name, bank.Type).Scan(&updated.ID, &updated.Name, &updated.Type, &updated.BalanceCents, &updated.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, store.ErrNotFound
		case isUniqueViolation(err):
			return nil, fmt.Errorf("%w: bank %q already exists", store.ErrConflict, bank.Name)
		}
		return nil, err
	}
	updated.CreatedAt = updated.CreatedAt.UTC()
	return &updated, nil
}

const shiftColumns = `id, user_id, bank_id, status, opening_balance_cents, closing_balance_cents,
	expected_balance_cents, difference_cents, opened_at, closed_at`

func scanShift(row interface{ Scan(dest ...any) error }) (domain.CashShift, error) {
	var shift domain.CashShift
	var closedAt sql.NullTime
	err := row.Scan(&shift.ID, &shift.UserID, &shift.BankID, &shift.Status, &shift.OpeningBalanceCents,
		&shift.ClosingBalanceCents, &shift.ExpectedBalanceCents, &shift.DifferenceCents, &shift.OpenedAt, &closedAt)
	shift.OpenedAt = shift.OpenedAt.UTC()
	if closedAt.Valid {
		closed := closedAt.Time.UTC()
		shift.ClosedAt = &closed
	}
	return shift, err
}

func (s *Store) OpenShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error) {
	if shift.OpeningBalanceCents < 0 || shift.UserID == "" {
		return nil, store.ErrInvalidRequest
	}
	shift.OpenedAt = stamp(shift.OpenedAt)
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		banks, err := listBanks(ctx, tx)
		if err != nil {
			return err
		}
		bank, err := store.ShiftBank(banks, shift.BankID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cash_shifts (id, user_id, bank_id, status, opening_balance_cents, opened_at)
			VALUES ($1,$2,$3,'OPEN',$4,$5)
		`, shift.ID, shift.UserID, bank.ID, shift.OpeningBalanceCents, shift.OpenedAt)
		if err != nil {
			switch {
			case isUniqueViolation(err):
				return store.ErrShiftAlreadyOpen
			case isForeignKeyViolation(err):
				return fmt.Errorf("%w: unknown user", store.ErrInvalidRequest)
			}
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (id, type, amount_cents, description, bank_id, cash_shift_id, created_at)
			VALUES ($1,'OPENING_SHIFT',$2,'Opening cash shift',$3,$4,$5)
		`, xid.New("tx"), shift.OpeningBalanceCents, bank.ID, shift.ID, shift.OpenedAt)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE banks SET balance_cents = balance_cents + $2 WHERE id = $1`, bank.ID, shift.OpeningBalanceCents)
		return err
	})
	if err != nil {
		return nil, err
	}

	opened, err := scanShift(s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM cash_shifts WHERE id = $1`, shift.ID))
	if err != nil {
		return nil, err
	}
	return &opened, nil
}

func (s *Store) CloseShift(ctx context.Context, closingBalanceCents int64, closedAt time.Time) (*domain.CashShift, error) {
	if closingBalanceCents < 0 {
		return nil, store.ErrInvalidRequest
	}
	at := stamp(closedAt)

	var closed domain.CashShift
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		shift, err := scanShift(tx.QueryRowContext(ctx, `
			SELECT `+shiftColumns+`
			FROM cash_shifts
			WHERE status = 'OPEN'
			FOR UPDATE
		`))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNoOpenShift
			}
			return err
		}

		banks, err := listBanks(ctx, tx)
		if err != nil {
			return err
		}
		register, ok := domain.CashRegister(banks, shift.BankID)
		if !ok {
			return store.ErrNoCashRegister
		}

		var cashSales int64
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount_cents), 0)
			FROM transactions
			WHERE type = 'SALE' AND bank_id = $1 AND cash_shift_id = $2
		`, register.ID, shift.ID).Scan(&cashSales)
		if err != nil {
			return err
		}

		shift.ExpectedBalanceCents, shift.DifferenceCents = domain.ReconcileShift(shift.OpeningBalanceCents, cashSales, closingBalanceCents)
		shift.ClosingBalanceCents = closingBalanceCents
		shift.Status = domain.ShiftStatusClosed
		shift.ClosedAt = &at

		_, err = tx.ExecContext(ctx, `
			UPDATE cash_shifts
			SET status = 'CLOSED', closing_balance_cents = $2, expected_balance_cents = $3,
				difference_cents = $4, closed_at = $5
			WHERE id = $1
		`, shift.ID, shift.ClosingBalanceCents, shift.ExpectedBalanceCents, shift.DifferenceCents, at)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (id, type, amount_cents, description, bank_id, cash_shift_id, created_at)
			VALUES ($1,'CLOSING_SHIFT',$2,'Closing cash shift',$3,$4,$5)
		`, xid.New("tx"), -closingBalanceCents, register.ID, shift.ID, at)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `UPDATE banks SET balance_cents = balance_cents - $2 WHERE id = $1`, register.ID, closingBalanceCents)
		if err != nil {
			return err
		}
		closed = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &closed, nil
}

func (s *Store) GetActiveShift(ctx context.Context) (*domain.CashShift, error) {
	shift, err := scanShift(s.db.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM cash_shifts WHERE status = 'OPEN'`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &shift, nil
}

func (s *Store) ListShifts(ctx context.Context, limit int) ([]domain.CashShift, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+shiftColumns+`
		FROM cash_shifts
		ORDER BY opened_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	shifts := make([]domain.CashShift, 0, limit)
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, shift)
	}
	return shifts, rows.Err()
}

func activeShiftID(ctx context.Context, q queryer) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, `SELECT id FROM cash_shifts WHERE status = 'OPEN'`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

func (s *Store) RegisterExpense(ctx context.Context, expense domain.Transaction) (*domain.Transaction, error) {
	if expense.AmountCents >= 0 {
		return nil, store.ErrInvalidRequest
	}
	if expense.ID == "" {
		expense.ID = xid.New("tx")
	}
	expense.Type = domain.TransactionTypeExpense
	expense.CreatedAt = stamp(expense.CreatedAt)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			UPDATE banks SET balance_cents = balance_cents + $2
			WHERE id = $1
			RETURNING name
		`, expense.BankID, expense.AmountCents).Scan(&expense.BankName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: bank %s", store.ErrNotFound, expense.BankID)
			}
			return err
		}

		expense.CashShiftID, err = activeShiftID(ctx, tx)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO transactions (id, type, amount_cents, description, bank_id, cash_shift_id, created_at)
			VALUES ($1,'EXPENSE',$2,$3,$4,$5,$6)
		`, expense.ID, expense.AmountCents, expense.Description, expense.BankID, nullIfEmpty(expense.CashShiftID), expense.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	limit := filter.Limit
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.type, t.amount_cents, t.description, t.bank_id, b.name,
			COALESCE(t.cash_shift_id, ''), COALESCE(t.sale_id, ''), t.created_at
		FROM transactions t
		JOIN banks b ON b.id = t.bank_id
		WHERE ($1::text = '' OR t.type = $1::text)
			AND ($2::text = '' OR t.bank_id = $2::text)
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $3
	`, filter.Type, filter.BankID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(&tx.ID, &tx.Type, &tx.AmountCents, &tx.Description, &tx.BankID, &tx.BankName,
			&tx.CashShiftID, &tx.SaleID, &tx.CreatedAt); err != nil {
			return nil, err
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
