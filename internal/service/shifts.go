package service

import (
	"context"
	"fmt"
	"strings"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.CashShift, error) {
	actor, err := actingUser(ctx)
	if err != nil {
		return domain.CashShift{}, err
	}
	if req.OpeningBalanceCents < 0 {
		return domain.CashShift{}, fmt.Errorf("%w: opening balance cannot be negative", store.ErrInvalidRequest)
	}

	shift, err := s.repo.OpenShift(ctx, domain.CashShift{
		UserID:              actor.UserID,
		BankID:              strings.TrimSpace(req.BankID),
		OpeningBalanceCents: req.OpeningBalanceCents,
		OpenedAt:            s.now(),
	})
	if err != nil {
		return domain.CashShift{}, err
	}

	s.logAudit(ctx, "shift_open", "cash_shift", shift.ID, fmt.Sprintf("bank=%s,opening=%d", shift.BankID, shift.OpeningBalanceCents))
	return *shift, nil
}

// CloseShift counts the drawer and reconciles it against the shift's cash
// sales. A positive difference is a surplus.
func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.CashShift, error) {
	if _, err := actingUser(ctx); err != nil {
		return domain.CashShift{}, err
	}
	if req.ClosingBalanceCents == nil {
		return domain.CashShift{}, fmt.Errorf("%w: closing_balance_cents is required", store.ErrInvalidRequest)
	}
	if *req.ClosingBalanceCents < 0 {
		return domain.CashShift{}, fmt.Errorf("%w: closing balance cannot be negative", store.ErrInvalidRequest)
	}

	shift, err := s.repo.CloseShift(ctx, *req.ClosingBalanceCents, s.now())
	if err != nil {
		return domain.CashShift{}, err
	}

	s.logAudit(ctx, "shift_close", "cash_shift", shift.ID, fmt.Sprintf("closing=%d,expected=%d,difference=%d", shift.ClosingBalanceCents, shift.ExpectedBalanceCents, shift.DifferenceCents))
	return *shift, nil
}

func (s *Service) GetActiveShift(ctx context.Context) (domain.CashShift, error) {
	shift, err := s.repo.GetActiveShift(ctx)
	if err != nil {
		return domain.CashShift{}, err
	}
	return *shift, nil
}

func (s *Service) ListShifts(ctx context.Context, limit int) ([]domain.CashShift, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return s.repo.ListShifts(ctx, limit)
}
