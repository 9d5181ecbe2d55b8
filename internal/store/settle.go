package store

import (
	"fmt"

	"tablepos/backend/internal/domain"
)

// ResolveSettlement validates a payment against a sale total and picks the
// bank that receives the money. It returns the bank and the change due.
func ResolveSettlement(banks []domain.Bank, totalCents int64, payment domain.Payment) (domain.Bank, int64, error) {
	change, ok := domain.ChangeDue(payment.Method, totalCents, domain.Tendered(payment, totalCents))
	if !ok {
		return domain.Bank{}, 0, fmt.Errorf("%w: amount paid does not cover the total", ErrInvalidRequest)
	}

	bank, ok := domain.SettlementBank(banks, payment.Method, payment.BankID)
	if ok {
		return bank, change, nil
	}
	switch {
	case payment.BankID != "":
		return domain.Bank{}, 0, fmt.Errorf("%w: bank %s", ErrNotFound, payment.BankID)
	case payment.Method == domain.PaymentMethodCash:
		return domain.Bank{}, 0, ErrNoCashRegister
	default:
		return domain.Bank{}, 0, fmt.Errorf("%w: no bank account for %s payments", ErrInvalidRequest, payment.Method)
	}
}

// ShiftBank resolves the drawer a shift is opened against. An empty id
// selects the default cash register.
func ShiftBank(banks []domain.Bank, bankID string) (domain.Bank, error) {
	if bankID == "" {
		register, ok := domain.CashRegister(banks, "")
		if !ok {
			return domain.Bank{}, ErrNoCashRegister
		}
		return register, nil
	}
	for _, bank := range banks {
		if bank.ID != bankID {
			continue
		}
		if bank.Type != domain.BankTypeCashRegister {
			return domain.Bank{}, fmt.Errorf("%w: bank %s is not a cash register", ErrInvalidRequest, bank.Name)
		}
		return bank, nil
	}
	return domain.Bank{}, fmt.Errorf("%w: bank %s", ErrNotFound, bankID)
}

func SaleDescription(sale domain.Sale) string {
	if sale.TableID != "" {
		return fmt.Sprintf("Sale %s (table %s)", sale.ID, sale.TableID)
	}
	return fmt.Sprintf("Sale %s", sale.ID)
}
