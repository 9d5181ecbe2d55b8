package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tablepos/backend/internal/cache"
	"tablepos/backend/internal/domain"
	"tablepos/backend/internal/notify"
	"tablepos/backend/internal/store"
	"tablepos/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	reports   cache.ReportCache
	reportTTL time.Duration
	observers []notify.Observer
	// notifyTimeout bounds each observer call.
	notifyTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func New(repo store.Repository, reports cache.ReportCache, reportTTL time.Duration, logger *zap.Logger) *Service {
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:          repo,
		reports:       reports,
		reportTTL:     reportTTL,
		notifyTimeout: time.Second,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// AddObserver registers a listener for committed order changes. It must be
// called before the service starts handling requests.
func (s *Service) AddObserver(observer notify.Observer) {
	if observer != nil {
		s.observers = append(s.observers, observer)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

// actingUser returns the caller's user id, which every write needs.
func actingUser(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return domain.Actor{}, fmt.Errorf("%w: acting user required", store.ErrInvalidRequest)
	}
	return actor, nil
}

func (s *Service) publish(ctx context.Context, sale domain.Sale) {
	if sale.TableID == "" || len(s.observers) == 0 {
		return
	}

	event := notify.OrderEvent{
		Type:    notify.EventOrderUpdated,
		TableID: sale.TableID,
		Order:   sale,
		At:      s.now(),
	}
	for _, observer := range s.observers {
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		err := observer.Notify(notifyCtx, event)
		cancel()
		if err != nil {
			s.logger.Warn("order event not delivered",
				zap.String("table_id", sale.TableID),
				zap.String("sale_id", sale.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{UserID: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(context.WithoutCancel(ctx), domain.AuditLog{
		ID:         xid.New("audit"),
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  s.now(),
	}); err != nil {
		s.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("entity", entityType+"/"+entityID),
			zap.Error(err),
		)
	}
}

func cleanName(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
