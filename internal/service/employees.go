package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/store"
)

const minPasswordLength = 6

func (s *Service) ListEmployees(ctx context.Context) ([]domain.UserAccount, error) {
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateEmployee(ctx context.Context, req domain.EmployeeCreateRequest) (domain.UserAccount, error) {
	user, err := s.newAccount(req)
	if err != nil {
		return domain.UserAccount{}, err
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return domain.UserAccount{}, err
	}

	s.logAudit(ctx, "employee_create", "user", created.ID, fmt.Sprintf("email=%s,role=%s", created.Email, created.Role))
	return *created, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.ErrInvalidRequest
	}
	if actor, ok := ActorFromContext(ctx); ok && actor.UserID == id {
		return fmt.Errorf("%w: cannot delete your own account", store.ErrInvalidRequest)
	}

	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "employee_delete", "user", id, "")
	return nil
}

// EnsureAdmin creates the bootstrap administrator unless the email is
// already registered.
func (s *Service) EnsureAdmin(ctx context.Context, name string, email string, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	if strings.TrimSpace(name) == "" {
		name = "Administrator"
	}
	user, err := s.newAccount(domain.EmployeeCreateRequest{Name: name, Email: email, Password: password, Role: domain.RoleAdmin})
	if err != nil {
		return err
	}
	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created")
	s.logAudit(ctx, "employee_bootstrap", "user", created.ID, created.Email)
	return nil
}

func (s *Service) newAccount(req domain.EmployeeCreateRequest) (domain.UserAccount, error) {
	name := cleanName(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleWorker
	}

	if name == "" {
		return domain.UserAccount{}, fmt.Errorf("%w: name is required", store.ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.UserAccount{}, fmt.Errorf("%w: invalid email", store.ErrInvalidRequest)
	}
	if len(req.Password) < minPasswordLength {
		return domain.UserAccount{}, fmt.Errorf("%w: password must be at least %d characters", store.ErrInvalidRequest, minPasswordLength)
	}
	if !domain.IsRole(role) {
		return domain.UserAccount{}, fmt.Errorf("%w: unknown role %q", store.ErrInvalidRequest, role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserAccount{}, fmt.Errorf("hash password: %w", err)
	}
	return domain.UserAccount{
		Name:      name,
		Email:     email,
		Password:  string(hash),
		Role:      role,
		CreatedAt: s.now(),
	}, nil
}
