package service

import (
	"context"
	"fmt"
	"strings"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

func (s *Service) ListBanks(ctx context.Context) ([]domain.Bank, error) {
	return s.repo.ListBanks(ctx)
}

func (s *Service) CreateBank(ctx context.Context, req domain.BankCreateRequest) (domain.Bank, error) {
	name := cleanName(req.Name)
	bankType := strings.ToUpper(strings.TrimSpace(req.Type))
	if name == "" || !domain.IsBankType(bankType) {
		return domain.Bank{}, fmt.Errorf("%w: name and a valid type are required", store.ErrInvalidRequest)
	}
	if req.InitialBalanceCents < 0 {
		return domain.Bank{}, fmt.Errorf("%w: initial balance cannot be negative", store.ErrInvalidRequest)
	}

	bank, err := s.repo.CreateBank(ctx, domain.Bank{
		Name:         name,
		Type:         bankType,
		BalanceCents: req.InitialBalanceCents,
	})
	if err != nil {
		return domain.Bank{}, err
	}

	s.logAudit(ctx, "bank_create", "bank", bank.ID, fmt.Sprintf("name=%s,type=%s,balance=%d", bank.Name, bank.Type, bank.BalanceCents))
	return *bank, nil
}

// UpdateBank renames or retypes a bank. Balances only move through the ledger.
func (s *Service) UpdateBank(ctx context.Context, id string, req domain.BankUpdateRequest) (domain.Bank, error) {
	id = strings.TrimSpace(id)
	name := cleanName(req.Name)
	bankType := strings.ToUpper(strings.TrimSpace(req.Type))
	if id == "" || name == "" || !domain.IsBankType(bankType) {
		return domain.Bank{}, fmt.Errorf("%w: name and a valid type are required", store.ErrInvalidRequest)
	}

	bank, err := s.repo.UpdateBank(ctx, domain.Bank{ID: id, Name: name, Type: bankType})
	if err != nil {
		return domain.Bank{}, err
	}

	s.logAudit(ctx, "bank_update", "bank", bank.ID, fmt.Sprintf("name=%s,type=%s", bank.Name, bank.Type))
	return *bank, nil
}

// RegisterExpense books money leaving a bank. The ledger stores it as a
// negative amount.
func (s *Service) RegisterExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Transaction, error) {
	if _, err := actingUser(ctx); err != nil {
		return domain.Transaction{}, err
	}

	description := strings.TrimSpace(req.Description)
	bankID := strings.TrimSpace(req.BankID)
	if req.AmountCents <= 0 {
		return domain.Transaction{}, fmt.Errorf("%w: amount must be positive", store.ErrInvalidRequest)
	}
	if description == "" || bankID == "" {
		return domain.Transaction{}, fmt.Errorf("%w: description and bank_id are required", store.ErrInvalidRequest)
	}

	expense, err := s.repo.RegisterExpense(ctx, domain.Transaction{
		AmountCents: -req.AmountCents,
		Description: description,
		BankID:      bankID,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logAudit(ctx, "expense_register", "transaction", expense.ID, fmt.Sprintf("bank=%s,amount=%d", expense.BankID, expense.AmountCents))
	return *expense, nil
}

func (s *Service) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	filter.Type = strings.ToUpper(strings.TrimSpace(filter.Type))
	filter.BankID = strings.TrimSpace(filter.BankID)
	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}
	return s.repo.ListTransactions(ctx, filter)
}
