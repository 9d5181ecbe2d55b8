package store

import (
	"context"
	"errors"
	"time"

	"tablepos/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrShiftAlreadyOpen  = errors.New("a cash shift is already open")
	ErrNoOpenShift       = errors.New("no open cash shift")
	ErrNoCashRegister    = errors.New("no cash register bank configured")
)

// Repository is the persistence contract. Every method that touches more than
// one row runs as a single all-or-nothing unit.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListTables(ctx context.Context) ([]domain.Table, error)
	CreateTable(ctx context.Context, table domain.Table) (*domain.Table, error)
	UpdateTableLayout(ctx context.Context, table domain.Table) (*domain.Table, error)

	// UpsertTableOrder replaces the items of the table's pending sale,
	// creating it when absent, and moves stock by the net change.
	UpsertTableOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Sale, error)
	GetPendingOrderByTable(ctx context.Context, tableID string) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	FinalizeSale(ctx context.Context, payment domain.Payment) (*domain.Sale, error)
	CreateDirectSale(ctx context.Context, draft domain.OrderDraft, payment domain.Payment) (*domain.Sale, error)

	ListBanks(ctx context.Context) ([]domain.Bank, error)
	CreateBank(ctx context.Context, bank domain.Bank) (*domain.Bank, error)
	UpdateBank(ctx context.Context, bank domain.Bank) (*domain.Bank, error)

	OpenShift(ctx context.Context, shift domain.CashShift) (*domain.CashShift, error)
	CloseShift(ctx context.Context, closingBalanceCents int64, closedAt time.Time) (*domain.CashShift, error)
	GetActiveShift(ctx context.Context) (*domain.CashShift, error)
	ListShifts(ctx context.Context, limit int) ([]domain.CashShift, error)

	RegisterExpense(ctx context.Context, expense domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)

	CreateUser(ctx context.Context, user domain.UserAccount) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.UserAccount, error)
	DeleteUser(ctx context.Context, id string) error

	ClockIn(ctx context.Context, entry domain.TimeClockEntry) (*domain.TimeClockEntry, error)
	ClockOut(ctx context.Context, userID string, at time.Time) (*domain.TimeClockEntry, error)

	DashboardStats(ctx context.Context) (domain.DashboardStats, error)
	SalesOverTime(ctx context.Context) ([]domain.DailySales, error)
	TopProducts(ctx context.Context, limit int) ([]domain.TopProduct, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)
}
