package service

import (
	"context"

	"github.com/entwine-app/entwine/internal/apperr"
	"github.com/entwine-app/entwine/internal/model"
	"github.com/entwine-app/entwine/internal/repository"
)

// MatchService resolves a caller-presented matchId into the canonical
// couple. Every engine and the aggregator go through it, so the two users'
// personal match records always land on the same game history.
type MatchService struct {
	matchRepo repository.MatchRepo
}

func NewMatchService(matchRepo repository.MatchRepo) *MatchService {
	return &MatchService{matchRepo: matchRepo}
}

// Resolve validates that the caller belongs to the match and returns the
// canonical couple.
func (s *MatchService) Resolve(ctx context.Context, matchID, callerID string) (*model.Couple, error) {
	const op = "MatchService.Resolve"

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "match lookup failed", err)
	}
	if m == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "match not found")
	}
	if callerID != m.UserA && callerID != m.UserB {
		return nil, apperr.New(apperr.CodeNotParticipant, op, "caller is not part of this match")
	}

	return &model.Couple{
		PairKey: model.PairKey(m.UserA, m.UserB),
		MatchID: m.MatchID,
		UserA:   m.UserA,
		UserB:   m.UserB,
	}, nil
}

// ResolveEligible additionally requires the mutual-like flag, which gates
// all game invitations.
func (s *MatchService) ResolveEligible(ctx context.Context, matchID, callerID string) (*model.Couple, error) {
	const op = "MatchService.ResolveEligible"

	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, apperr.E(apperr.CodeDependency, op, "match lookup failed", err)
	}
	if m == nil {
		return nil, apperr.New(apperr.CodeNotFound, op, "match not found")
	}
	if callerID != m.UserA && callerID != m.UserB {
		return nil, apperr.New(apperr.CodeNotParticipant, op, "caller is not part of this match")
	}
	if !m.MutualLike {
		return nil, apperr.New(apperr.CodeConflict, op, "match is not mutual")
	}

	return &model.Couple{
		PairKey: model.PairKey(m.UserA, m.UserB),
		MatchID: m.MatchID,
		UserA:   m.UserA,
		UserB:   m.UserB,
	}, nil
}
