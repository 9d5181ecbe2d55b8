package service

import (
	"context"

	"tablepos/backend/internal/domain"
)

func (s *Service) ClockIn(ctx context.Context) (domain.TimeClockEntry, error) {
	actor, err := actingUser(ctx)
	if err != nil {
		return domain.TimeClockEntry{}, err
	}

	entry, err := s.repo.ClockIn(ctx, domain.TimeClockEntry{UserID: actor.UserID, ClockIn: s.now()})
	if err != nil {
		return domain.TimeClockEntry{}, err
	}
	s.logAudit(ctx, "clock_in", "time_clock", entry.ID, "")
	return *entry, nil
}

func (s *Service) ClockOut(ctx context.Context) (domain.TimeClockEntry, error) {
	actor, err := actingUser(ctx)
	if err != nil {
		return domain.TimeClockEntry{}, err
	}

	entry, err := s.repo.ClockOut(ctx, actor.UserID, s.now())
	if err != nil {
		return domain.TimeClockEntry{}, err
	}
	s.logAudit(ctx, "clock_out", "time_clock", entry.ID, "")
	return *entry, nil
}
