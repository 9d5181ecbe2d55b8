package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/xid"
)

// Store keeps all state behind one mutex, so every write is serialized and
// each multi-step mutation validates fully before it touches any map.
type Store struct {
	mu              sync.RWMutex
	users           map[string]domain.UserAccount
	categories      map[string]domain.Category
	products        map[string]domain.Product
	tables          map[string]domain.Table
	sales           map[string]*domain.Sale
	pendingByTable  map[string]string
	banks           map[string]domain.Bank
	shifts          map[string]domain.CashShift
	activeShiftID   string
	transactions    []domain.Transaction
	timeClock       map[string]domain.TimeClockEntry
	openClockByUser map[string]string
	auditLogs       []domain.AuditLog
}

func New() *Store {
	return &Store{
		users:           make(map[string]domain.UserAccount),
		categories:      make(map[string]domain.Category),
		products:        make(map[string]domain.Product),
		tables:          make(map[string]domain.Table),
		sales:           make(map[string]*domain.Sale),
		pendingByTable:  make(map[string]string),
		banks:           make(map[string]domain.Bank),
		shifts:          make(map[string]domain.CashShift),
		transactions:    make([]domain.Transaction, 0, 128),
		timeClock:       make(map[string]domain.TimeClockEntry),
		openClockByUser: make(map[string]string),
		auditLogs:       make([]domain.AuditLog, 0, 128),
	}
}

// NewSeeded returns a store with demo users, a cash register, a bank account,
// a small menu and four tables. Seed passwords come from SEED_ADMIN_PASSWORD
// and SEED_WORKER_PASSWORD, falling back to dev defaults.
func NewSeeded(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := New()
	now := time.Now().UTC()

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	workerPwd := envOr("SEED_WORKER_PASSWORD", "worker123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_WORKER_PASSWORD") == "" {
		logger.Warn("using default dev credentials, set SEED_ADMIN_PASSWORD and SEED_WORKER_PASSWORD to override")
	}
	for _, u := range []struct {
		id       string
		name     string
		email    string
		password string
		role     string
	}{
		{"user-admin", "Administrador", "admin@tablepos.local", adminPwd, domain.RoleAdmin},
		{"user-worker", "Mesero", "worker@tablepos.local", workerPwd, domain.RoleWorker},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("hash seed password", zap.String("email", u.email), zap.Error(err))
		}
		s.users[u.id] = domain.UserAccount{ID: u.id, Name: u.name, Email: u.email, Password: string(hash), Role: u.role, CreatedAt: now}
	}

	s.banks["bank-till"] = domain.Bank{ID: "bank-till", Name: "Caja", Type: domain.BankTypeCashRegister, CreatedAt: now}
	s.banks["bank-account"] = domain.Bank{ID: "bank-account", Name: "Cuenta Corriente", Type: domain.BankTypeBankAccount, CreatedAt: now.Add(time.Millisecond)}

	s.categories["cat-drinks"] = domain.Category{ID: "cat-drinks", Name: "Bebidas", CreatedAt: now}
	s.categories["cat-food"] = domain.Category{ID: "cat-food", Name: "Comidas", CreatedAt: now}

	for _, p := range []domain.Product{
		{ID: "prod-coffee", Name: "Cafe Americano", SKU: "BEB-001", SaleValueCents: 1000, CostCents: 300, Stock: 50, MinStock: 10, MaxStock: 100, CategoryID: "cat-drinks"},
		{ID: "prod-juice", Name: "Jugo de Naranja", SKU: "BEB-002", SaleValueCents: 1500, CostCents: 600, Stock: 30, MinStock: 5, MaxStock: 60, CategoryID: "cat-drinks"},
		{ID: "prod-toast", Name: "Tostada", SKU: "COM-001", SaleValueCents: 2500, CostCents: 900, Stock: 20, MinStock: 5, MaxStock: 40, CategoryID: "cat-food"},
		{ID: "prod-cake", Name: "Torta de Chocolate", SKU: "COM-002", SaleValueCents: 3000, CostCents: 1200, Stock: 5, MinStock: 2, MaxStock: 10, CategoryID: "cat-food"},
	} {
		p.Active = true
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products[p.ID] = p
	}

	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("table-%d", i)
		s.tables[id] = domain.Table{
			ID:        id,
			Name:      fmt.Sprintf("Mesa %d", i),
			X:         (i - 1) * 120,
			Y:         40,
			Width:     100,
			Height:    100,
			Shape:     domain.TableShapeSquare,
			Status:    domain.TableStatusAvailable,
			CreatedAt: now,
		}
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Category, 0, len(s.categories))
	for _, category := range s.categories {
		result = append(result, category)
	}
	slices.SortFunc(result, func(a, b domain.Category) int {
		return cmpString(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if strings.TrimSpace(category.Name) == "" {
		return nil, store.ErrInvalidRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			return nil, fmt.Errorf("%w: category %q already exists", store.ErrConflict, category.Name)
		}
	}
	if category.ID == "" {
		category.ID = xid.New("cat")
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return store.ErrNotFound
	}
	for _, product := range s.products {
		if product.CategoryID == id {
			return fmt.Errorf("%w: category still has products", store.ErrConflict)
		}
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context, categoryID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Product, 0, len(s.products))
	for _, product := range s.products {
		if categoryID != "" && product.CategoryID != categoryID {
			continue
		}
		result = append(result, product)
	}
	slices.SortFunc(result, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if err := s.checkProductLocked(product); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := s.checkProductLocked(product); err != nil {
		return nil, err
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) checkProductLocked(product domain.Product) error {
	if product.CategoryID != "" {
		if _, ok := s.categories[product.CategoryID]; !ok {
			return fmt.Errorf("%w: unknown category", store.ErrInvalidRequest)
		}
	}
	for _, other := range s.products {
		if other.ID == product.ID {
			continue
		}
		if strings.EqualFold(other.Name, product.Name) {
			return fmt.Errorf("%w: product name %q already exists", store.ErrConflict, product.Name)
		}
		if product.SKU != "" && strings.EqualFold(other.SKU, product.SKU) {
			return fmt.Errorf("%w: sku %q already exists", store.ErrConflict, product.SKU)
		}
	}
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.sales {
		for _, item := range sale.Items {
			if item.ProductID == id {
				return fmt.Errorf("%w: product is referenced by sales", store.ErrConflict)
			}
		}
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListTables(_ context.Context) ([]domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Table, 0, len(s.tables))
	for _, table := range s.tables {
		result = append(result, table)
	}
	slices.SortFunc(result, func(a, b domain.Table) int {
		return cmpString(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) CreateTable(_ context.Context, table domain.Table) (*domain.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tables {
		if strings.EqualFold(existing.Name, table.Name) {
			return nil, fmt.Errorf("%w: table %q already exists", store.ErrConflict, table.Name)
		}
	}
	if table.ID == "" {
		table.ID = xid.New("table")
	}
	table.Status = domain.TableStatusAvailable
	table.CreatedAt = time.Now().UTC()
	s.tables[table.ID] = table
	return &table, nil
}

func (s *Store) UpdateTableLayout(_ context.Context, table domain.Table) (*domain.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tables[table.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	existing.X = table.X
	existing.Y = table.Y
	existing.Width = table.Width
	existing.Height = table.Height
	existing.Shape = table.Shape
	s.tables[existing.ID] = existing
	return &existing, nil
}

func (s *Store) ListBanks(_ context.Context) ([]domain.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bankListLocked(), nil
}

func (s *Store) CreateBank(_ context.Context, bank domain.Bank) (*domain.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBankNameLocked(bank); err != nil {
		return nil, err
	}
	if bank.ID == "" {
		bank.ID = xid.New("bank")
	}
	bank.CreatedAt = time.Now().UTC()
	s.banks[bank.ID] = bank
	return &bank, nil
}

func (s *Store) UpdateBank(_ context.Context, bank domain.Bank) (*domain.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.banks[bank.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if err := s.checkBankNameLocked(bank); err != nil {
		return nil, err
	}
	existing.Name = bank.Name
	existing.Type = bank.Type
	s.banks[existing.ID] = existing
	return &existing, nil
}

func (s *Store) checkBankNameLocked(bank domain.Bank) error {
	for _, other := range s.banks {
		if other.ID != bank.ID && strings.EqualFold(other.Name, bank.Name) {
			return fmt.Errorf("%w: bank %q already exists", store.ErrConflict, bank.Name)
		}
	}
	return nil
}

func (s *Store) bankListLocked() []domain.Bank {
	result := make([]domain.Bank, 0, len(s.banks))
	for _, bank := range s.banks {
		result = append(result, bank)
	}
	slices.SortFunc(result, func(a, b domain.Bank) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmpString(a.ID, b.ID)
	})
	return result
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
	}
	if user.ID == "" {
		user.ID = xid.New("user")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = user
	return &user, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user)
	}
	slices.SortFunc(result, func(a, b domain.UserAccount) int {
		return cmpString(a.Name, b.Name)
	})
	return result, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.sales {
		if sale.UserID == id {
			return fmt.Errorf("%w: user has registered sales", store.ErrConflict)
		}
	}
	for _, shift := range s.shifts {
		if shift.UserID == id {
			return fmt.Errorf("%w: user has cash shifts", store.ErrConflict)
		}
	}
	for entryID, entry := range s.timeClock {
		if entry.UserID == id {
			delete(s.timeClock, entryID)
		}
	}
	delete(s.openClockByUser, id)
	delete(s.users, id)
	return nil
}

func (s *Store) ClockIn(_ context.Context, entry domain.TimeClockEntry) (*domain.TimeClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[entry.UserID]; !ok {
		return nil, store.ErrNotFound
	}
	if _, open := s.openClockByUser[entry.UserID]; open {
		return nil, fmt.Errorf("%w: already clocked in", store.ErrConflict)
	}
	if entry.ID == "" {
		entry.ID = xid.New("clock")
	}
	entry.ClockOut = nil
	s.timeClock[entry.ID] = entry
	s.openClockByUser[entry.UserID] = entry.ID
	return &entry, nil
}

func (s *Store) ClockOut(_ context.Context, userID string, at time.Time) (*domain.TimeClockEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, open := s.openClockByUser[userID]
	if !open {
		return nil, store.ErrNotFound
	}
	entry := s.timeClock[entryID]
	out := at.UTC()
	entry.ClockOut = &out
	entry.WorkedMinutes = int(out.Sub(entry.ClockIn).Minutes())
	s.timeClock[entryID] = entry
	delete(s.openClockByUser, userID)
	return &entry, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 100
	}
	result := make([]domain.AuditLog, 0, min(limit, len(s.auditLogs)))
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.auditLogs[i])
	}
	return result, nil
}

func cmpString(a string, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cloneSale(src *domain.Sale) *domain.Sale {
	if src == nil {
		return nil
	}
	cloned := *src
	cloned.Items = append([]domain.SaleItem(nil), src.Items...)
	if src.CompletedAt != nil {
		at := *src.CompletedAt
		cloned.CompletedAt = &at
	}
	return &cloned
}
