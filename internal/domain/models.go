package domain

import "time"

const (
	RoleAdmin  = "ADMIN"
	RoleWorker = "WORKER"
)

const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"

	TableShapeSquare    = "square"
	TableShapeRound     = "round"
	TableShapeRectangle = "rectangle"
)

const (
	SaleStatusPending   = "PENDING"
	SaleStatusCompleted = "COMPLETED"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

const (
	BankTypeCashRegister = "CASH_REGISTER"
	BankTypeBankAccount  = "BANK_ACCOUNT"
	BankTypeSafe         = "SAFE"
)

const (
	TransactionTypeSale         = "SALE"
	TransactionTypeExpense      = "EXPENSE"
	TransactionTypeOpeningShift = "OPENING_SHIFT"
	TransactionTypeClosingShift = "CLOSING_SHIFT"
)

const (
	ShiftStatusOpen   = "OPEN"
	ShiftStatusClosed = "CLOSED"
)

// Actor is the authenticated caller attached to a request context.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type UserAccount struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku,omitempty"`
	SaleValueCents int64     `json:"sale_value_cents"`
	CostCents      int64     `json:"cost_cents"`
	Stock          int       `json:"stock"`
	MinStock       int       `json:"min_stock"`
	MaxStock       int       `json:"max_stock"`
	CategoryID     string    `json:"category_id,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Table struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Shape     string    `json:"shape"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Sale struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	TableID         string     `json:"table_id,omitempty"`
	Status          string     `json:"status"`
	TotalCents      int64      `json:"total_cents"`
	PaymentMethod   string     `json:"payment_method,omitempty"`
	AmountPaidCents int64      `json:"amount_paid_cents"`
	ChangeCents     int64      `json:"change_cents"`
	Items           []SaleItem `json:"items"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// SaleItem carries the unit price captured when the line was saved.
type SaleItem struct {
	ID             string `json:"id"`
	SaleID         string `json:"sale_id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type Bank struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	BalanceCents int64     `json:"balance_cents"`
	CreatedAt    time.Time `json:"created_at"`
}

// Transaction is an append-only ledger entry against a bank.
type Transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AmountCents int64     `json:"amount_cents"`
	Description string    `json:"description"`
	BankID      string    `json:"bank_id"`
	BankName    string    `json:"bank_name,omitempty"`
	CashShiftID string    `json:"cash_shift_id,omitempty"`
	SaleID      string    `json:"sale_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CashShift struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	BankID               string     `json:"bank_id"`
	Status               string     `json:"status"`
	OpeningBalanceCents  int64      `json:"opening_balance_cents"`
	ClosingBalanceCents  int64      `json:"closing_balance_cents"`
	ExpectedBalanceCents int64      `json:"expected_balance_cents"`
	DifferenceCents      int64      `json:"difference_cents"`
	OpenedAt             time.Time  `json:"opened_at"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
}

type TimeClockEntry struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	ClockIn       time.Time  `json:"clock_in"`
	ClockOut      *time.Time `json:"clock_out,omitempty"`
	WorkedMinutes int        `json:"worked_minutes"`
}

type AuditLog struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

type DashboardStats struct {
	RevenueCents      int64 `json:"revenue_cents"`
	CompletedSales    int   `json:"completed_sales"`
	TotalProductsSold int   `json:"total_products_sold"`
}

type DailySales struct {
	Date       string `json:"date"`
	TotalCents int64  `json:"total_cents"`
	Sales      int    `json:"sales"`
}

type TopProduct struct {
	ProductID    string `json:"product_id"`
	Name         string `json:"name"`
	QuantitySold int    `json:"quantity_sold"`
	SaleCount    int    `json:"sale_count"`
}

// OrderDraft is the validated input of an order write.
type OrderDraft struct {
	TableID string
	UserID  string
	Items   []OrderItemInput
	At      time.Time
}

// Payment settles a sale against a bank. Exact means the tender equals the
// sale total, whatever it turns out to be.
type Payment struct {
	SaleID          string
	Method          string
	AmountPaidCents int64
	Exact           bool
	BankID          string
	At              time.Time
}

type TransactionFilter struct {
	Type   string
	BankID string
	Limit  int
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type OrderItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type OrderUpsertRequest struct {
	TableID string           `json:"table_id"`
	Items   []OrderItemInput `json:"items"`
}

type FinalizeRequest struct {
	PaymentMethod   string `json:"payment_method"`
	AmountPaidCents *int64 `json:"amount_paid_cents"`
	BankID          string `json:"bank_id,omitempty"`
}

type DirectSaleRequest struct {
	Items           []OrderItemInput `json:"items"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	AmountPaidCents *int64           `json:"amount_paid_cents,omitempty"`
	BankID          string           `json:"bank_id,omitempty"`
}

type ShiftOpenRequest struct {
	OpeningBalanceCents int64  `json:"opening_balance_cents"`
	BankID              string `json:"bank_id,omitempty"`
}

type ShiftCloseRequest struct {
	ClosingBalanceCents *int64 `json:"closing_balance_cents"`
}

type ExpenseRequest struct {
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	BankID      string `json:"bank_id"`
}

type BankCreateRequest struct {
	Name                string `json:"name"`
	Type                string `json:"type"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

type BankUpdateRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CategoryCreateRequest struct {
	Name string `json:"name"`
}

type ProductRequest struct {
	Name           string `json:"name"`
	SKU            string `json:"sku,omitempty"`
	SaleValueCents int64  `json:"sale_value_cents"`
	CostCents      int64  `json:"cost_cents"`
	Stock          int    `json:"stock"`
	MinStock       int    `json:"min_stock"`
	MaxStock       int    `json:"max_stock"`
	CategoryID     string `json:"category_id,omitempty"`
	Active         *bool  `json:"active,omitempty"`
}

type TableCreateRequest struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Shape  string `json:"shape"`
}

type TableLayoutRequest struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Shape  string `json:"shape"`
}

type EmployeeCreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
