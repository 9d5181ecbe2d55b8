package service

import (
	"context"
	"fmt"
	"strings"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryCreateRequest) (domain.Category, error) {
	name := cleanName(req.Name)
	if name == "" {
		return domain.Category{}, fmt.Errorf("%w: name is required", store.ErrInvalidRequest)
	}

	category, err := s.repo.CreateCategory(ctx, domain.Category{Name: name, CreatedAt: s.now()})
	if err != nil {
		return domain.Category{}, err
	}

	s.logAudit(ctx, "category_create", "category", category.ID, category.Name)
	return *category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidRequest
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "category_delete", "category", id, "")
	return nil
}

func (s *Service) ListProducts(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx, strings.TrimSpace(categoryID))
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (domain.Product, error) {
	product, err := productFrom(req)
	if err != nil {
		return domain.Product{}, err
	}
	product.Active = req.Active == nil || *req.Active

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.SaleValueCents, created.Stock))
	return *created, nil
}

// UpdateProduct replaces the editable fields. Sale items already saved keep
// the price they were captured with.
func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, store.ErrInvalidRequest
	}
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := productFrom(req)
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = existing.ID
	product.Active = existing.Active
	if req.Active != nil {
		product.Active = *req.Active
	}

	saved, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("active=%t,price=%d,stock=%d", saved.Active, saved.SaleValueCents, saved.Stock))
	return *saved, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidRequest
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "product_delete", "product", id, "")
	return nil
}

func productFrom(req domain.ProductRequest) (domain.Product, error) {
	product := domain.Product{
		Name:           cleanName(req.Name),
		SKU:            strings.ToUpper(strings.TrimSpace(req.SKU)),
		SaleValueCents: req.SaleValueCents,
		CostCents:      req.CostCents,
		Stock:          req.Stock,
		MinStock:       req.MinStock,
		MaxStock:       req.MaxStock,
		CategoryID:     strings.TrimSpace(req.CategoryID),
	}

	switch {
	case product.Name == "":
		return domain.Product{}, fmt.Errorf("%w: name is required", store.ErrInvalidRequest)
	case product.SaleValueCents < 0 || product.CostCents < 0:
		return domain.Product{}, fmt.Errorf("%w: prices cannot be negative", store.ErrInvalidRequest)
	case product.Stock < 0 || product.MinStock < 0 || product.MaxStock < 0:
		return domain.Product{}, fmt.Errorf("%w: stock levels cannot be negative", store.ErrInvalidRequest)
	case product.MaxStock > 0 && product.MinStock > product.MaxStock:
		return domain.Product{}, fmt.Errorf("%w: min_stock exceeds max_stock", store.ErrInvalidRequest)
	}
	return product, nil
}

func (s *Service) ListTables(ctx context.Context) ([]domain.Table, error) {
	return s.repo.ListTables(ctx)
}

func (s *Service) CreateTable(ctx context.Context, req domain.TableCreateRequest) (domain.Table, error) {
	name := cleanName(req.Name)
	if name == "" {
		return domain.Table{}, fmt.Errorf("%w: name is required", store.ErrInvalidRequest)
	}
	table, err := tableGeometry(domain.TableLayoutRequest{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height, Shape: req.Shape})
	if err != nil {
		return domain.Table{}, err
	}
	table.Name = name

	created, err := s.repo.CreateTable(ctx, table)
	if err != nil {
		return domain.Table{}, err
	}

	s.logAudit(ctx, "table_create", "table", created.ID, created.Name)
	return *created, nil
}

// UpdateTableLayout moves or reshapes a table. Occupancy is left to orders.
func (s *Service) UpdateTableLayout(ctx context.Context, id string, req domain.TableLayoutRequest) (domain.Table, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Table{}, store.ErrInvalidRequest
	}
	table, err := tableGeometry(req)
	if err != nil {
		return domain.Table{}, err
	}
	table.ID = id

	updated, err := s.repo.UpdateTableLayout(ctx, table)
	if err != nil {
		return domain.Table{}, err
	}

	s.logAudit(ctx, "table_layout", "table", updated.ID, fmt.Sprintf("x=%d,y=%d,w=%d,h=%d,shape=%s", updated.X, updated.Y, updated.Width, updated.Height, updated.Shape))
	return *updated, nil
}

func tableGeometry(req domain.TableLayoutRequest) (domain.Table, error) {
	shape := strings.ToLower(strings.TrimSpace(req.Shape))
	if shape == "" {
		shape = domain.TableShapeSquare
	}
	width, height := req.Width, req.Height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 100
	}

	switch {
	case !domain.IsTableShape(shape):
		return domain.Table{}, fmt.Errorf("%w: unknown shape %q", store.ErrInvalidRequest, shape)
	case req.X < 0 || req.Y < 0 || width < 0 || height < 0:
		return domain.Table{}, fmt.Errorf("%w: geometry cannot be negative", store.ErrInvalidRequest)
	}
	return domain.Table{X: req.X, Y: req.Y, Width: width, Height: height, Shape: shape}, nil
}
