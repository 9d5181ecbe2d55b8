package domain

import (
	"sort"
	"strings"
)

// SnapshotLines prices each item at the product's current sale value.
// Items referencing products missing from the map are skipped.
func SnapshotLines(items []OrderItemInput, products map[string]Product) []SaleItem {
	lines := make([]SaleItem, 0, len(items))
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, SaleItem{
			ProductID:      product.ID,
			ProductName:    product.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: product.SaleValueCents,
		})
	}
	return lines
}

func OrderTotal(lines []SaleItem) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPriceCents * int64(line.Quantity)
	}
	return total
}

// StockDeltas returns the extra quantity per product that next consumes
// compared to previous. Negative values are stock handed back.
// Products with no net change are omitted.
func StockDeltas(previous []SaleItem, next []SaleItem) map[string]int {
	deltas := make(map[string]int, len(previous)+len(next))
	for _, line := range previous {
		deltas[line.ProductID] -= line.Quantity
	}
	for _, line := range next {
		deltas[line.ProductID] += line.Quantity
	}
	for productID, delta := range deltas {
		if delta == 0 {
			delete(deltas, productID)
		}
	}
	return deltas
}

// Shortfall reports the first product, by ID, whose stock cannot cover its
// positive delta.
func Shortfall(deltas map[string]int, products map[string]Product) (Product, bool) {
	ids := make([]string, 0, len(deltas))
	for productID, delta := range deltas {
		if delta > 0 {
			ids = append(ids, productID)
		}
	}
	sort.Strings(ids)

	for _, productID := range ids {
		product, ok := products[productID]
		if !ok || product.Stock < deltas[productID] {
			return product, true
		}
	}
	return Product{}, false
}

// ReconcileShift returns the expected drawer balance and the variance of the
// counted balance against it. A positive difference is a surplus.
func ReconcileShift(openingCents int64, cashSalesCents int64, closingCents int64) (expected int64, difference int64) {
	expected = openingCents + cashSalesCents
	difference = closingCents - expected
	return expected, difference
}

// ChangeDue returns the change owed for a payment. Cash must cover the total;
// card and transfer must match it exactly.
func ChangeDue(method string, totalCents int64, paidCents int64) (int64, bool) {
	if method != PaymentMethodCash {
		return 0, paidCents == totalCents
	}
	if paidCents < totalCents {
		return 0, false
	}
	return paidCents - totalCents, true
}

// Tendered returns the amount recorded as paid. Exact payments are taken as
// the total.
func Tendered(payment Payment, totalCents int64) int64 {
	if payment.Exact {
		return totalCents
	}
	return payment.AmountPaidCents
}

// SettlementBank picks the bank that receives a sale's money: the requested
// bank, else the cash register for cash, else the first bank account.
func SettlementBank(banks []Bank, method string, bankID string) (Bank, bool) {
	if bankID != "" {
		for _, bank := range banks {
			if bank.ID == bankID {
				return bank, true
			}
		}
		return Bank{}, false
	}

	want := BankTypeBankAccount
	if method == PaymentMethodCash {
		want = BankTypeCashRegister
	}
	for _, bank := range sortedBanks(banks) {
		if bank.Type == want {
			return bank, true
		}
	}
	return Bank{}, false
}

// CashRegister returns the preferred bank when it is a cash register,
// otherwise the oldest cash register.
func CashRegister(banks []Bank, preferredID string) (Bank, bool) {
	for _, bank := range banks {
		if bank.ID == preferredID && bank.Type == BankTypeCashRegister {
			return bank, true
		}
	}
	for _, bank := range sortedBanks(banks) {
		if bank.Type == BankTypeCashRegister {
			return bank, true
		}
	}
	return Bank{}, false
}

func sortedBanks(banks []Bank) []Bank {
	sorted := append([]Bank(nil), banks...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

func NormalizePaymentMethod(method string) string {
	return strings.ToLower(strings.TrimSpace(method))
}

func IsSupportedPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodTransfer:
		return true
	default:
		return false
	}
}

func IsBankType(value string) bool {
	switch value {
	case BankTypeCashRegister, BankTypeBankAccount, BankTypeSafe:
		return true
	default:
		return false
	}
}

func IsTableShape(value string) bool {
	switch value {
	case TableShapeSquare, TableShapeRound, TableShapeRectangle:
		return true
	default:
		return false
	}
}

func IsRole(value string) bool {
	return value == RoleAdmin || value == RoleWorker
}
