package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/stwalsh4118/dossier/api/internal/dossier"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/metrics"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/repository"
)

// BulkResult summarizes a bulk survey update.
type BulkResult struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	// Stale is set when the write succeeded but the follow-up pass failed.
	Stale bool `json:"stale"`
}

// SurveyService guards updates to the lot-measured flag.
type SurveyService interface {
	// SetLoteMedido updates one member. The published view is updated
	// optimistically and rolled back if the write fails.
	// Returns ErrPermissionDenied, ErrMemberNotFound, ErrPolicyViolation or an
	// ErrUpstreamUnavailable-wrapped error.
	SetLoteMedido(ctx context.Context, actor models.Actor, memberID string, value bool) (*models.MemberView, error)

	// SetLoteMedidoBulk updates every eligible member in one write, then runs
	// a full pass. Unsetting skips members holding a required document.
	// Returns ErrNotEligible when nothing is left to write.
	SetLoteMedidoBulk(ctx context.Context, actor models.Actor, value bool, memberIDs []string) (*BulkResult, error)
}

type surveyService struct {
	members    repository.MemberRepository
	reconciler Reconciler
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// NewSurveyService creates a new instance of SurveyService.
func NewSurveyService(members repository.MemberRepository, reconciler Reconciler, m *metrics.Metrics, log *logger.Logger) SurveyService {
	return &surveyService{
		members:    members,
		reconciler: reconciler,
		metrics:    m,
		log:        log.WithComponent("survey"),
	}
}

func (s *surveyService) SetLoteMedido(ctx context.Context, actor models.Actor, memberID string, value bool) (*models.MemberView, error) {
	if err := s.authorize(actor, memberID); err != nil {
		return nil, err
	}

	snapshot, err := s.reconciler.Current(ctx)
	if err != nil {
		return nil, err
	}

	view, idx, ok := snapshot.Find(memberID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	if !value && view.HasRequiredDocument() {
		s.metrics.IncrementGuardRejection(metrics.ReasonPolicy)
		s.log.Warn("Refused to unset lote medido", map[string]interface{}{
			"member_id": memberID,
			"actor_id":  actor.ID,
		})
		return nil, fmt.Errorf("%w: cannot unset: required documents present", ErrPolicyViolation)
	}

	updated := view
	updated.StoredSurvey = models.SurveyStateFromBool(value)
	updated.Member.Survey = updated.StoredSurvey
	updated.Survey = dossier.DeriveSurvey(view.Documents, updated.StoredSurvey)

	optimistic := snapshot.WithView(idx, updated)
	swapped := s.reconciler.CompareAndSwap(snapshot, optimistic)

	if err := s.members.UpdateSurvey(ctx, memberID, value); err != nil {
		// A pass that ran meanwhile already reflects the store; leave it.
		if swapped {
			s.reconciler.CompareAndSwap(optimistic, snapshot)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
		}
		s.log.Error("Failed to persist lote medido", err, map[string]interface{}{
			"member_id": memberID,
		})
		return nil, upstream("update survey", err)
	}

	s.metrics.IncrementSurveyUpdates("single", 1)
	s.log.Info("Lote medido updated", map[string]interface{}{
		"member_id": memberID,
		"value":     value,
		"actor_id":  actor.ID,
	})

	return &updated, nil
}

func (s *surveyService) SetLoteMedidoBulk(ctx context.Context, actor models.Actor, value bool, memberIDs []string) (*BulkResult, error) {
	if err := s.authorize(actor, ""); err != nil {
		return nil, err
	}

	snapshot, err := s.reconciler.Current(ctx)
	if err != nil {
		return nil, err
	}

	candidates := dedupe(memberIDs)
	eligible := make([]string, 0, len(candidates))
	for _, id := range candidates {
		view, _, ok := snapshot.Find(id)
		if !ok {
			continue
		}
		if !value && view.HasRequiredDocument() {
			continue
		}
		eligible = append(eligible, id)
	}

	if len(eligible) == 0 {
		s.metrics.IncrementGuardRejection(metrics.ReasonNotEligible)
		s.log.Warn("Bulk lote medido update had no eligible members", map[string]interface{}{
			"requested": len(candidates),
			"value":     value,
		})
		return nil, ErrNotEligible
	}

	if err := s.members.UpdateSurveyBulk(ctx, eligible, value); err != nil {
		s.log.Error("Failed to persist bulk lote medido", err, map[string]interface{}{
			"count": len(eligible),
		})
		return nil, upstream("update survey bulk", err)
	}

	result := &BulkResult{
		Requested: len(candidates),
		Updated:   len(eligible),
		Skipped:   len(candidates) - len(eligible),
	}

	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		result.Stale = true
	}

	s.metrics.IncrementSurveyUpdates("bulk", len(eligible))
	s.log.Info("Bulk lote medido updated", map[string]interface{}{
		"requested": result.Requested,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"stale":     result.Stale,
		"value":     value,
		"actor_id":  actor.ID,
	})

	return result, nil
}

func (s *surveyService) authorize(actor models.Actor, memberID string) error {
	if actor.HasElevatedPrivilege() {
		return nil
	}
	s.metrics.IncrementGuardRejection(metrics.ReasonPermission)
	s.log.Warn("Survey update denied", map[string]interface{}{
		"actor_id":  actor.ID,
		"member_id": memberID,
	})
	return ErrPermissionDenied
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
