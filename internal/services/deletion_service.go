package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/dossier/api/internal/dossier"
	"github.com/stwalsh4118/dossier/api/internal/logger"
	"github.com/stwalsh4118/dossier/api/internal/metrics"
	"github.com/stwalsh4118/dossier/api/internal/models"
	"github.com/stwalsh4118/dossier/api/internal/repository"
	"github.com/stwalsh4118/dossier/api/internal/storage"
)

// DeletionService runs the document deletion approval workflow.
type DeletionService interface {
	// RequestDeletion records a Pending request on behalf of any
	// authenticated actor. Validation failures wrap ErrInvalidInput and the
	// validator.ValidationErrors. The document id, type, link and member must
	// match the stored document, otherwise the error wraps ErrDocumentMismatch.
	RequestDeletion(ctx context.Context, actor models.Actor, input models.DeletionRequestInput) (*models.DeletionRequest, error)

	// ListRequests returns every request, newest first.
	ListRequests(ctx context.Context, actor models.Actor) ([]models.DeletionRequest, error)

	// ProcessRequest approves or rejects a Pending request. Approval does not
	// delete anything. Returns ErrInvalidStateTransition if the request is
	// no longer Pending, whatever the decision.
	ProcessRequest(ctx context.Context, actor models.Actor, requestID string, decision models.DeletionStatus) (*models.DeletionRequest, error)

	// DeleteDocument removes the stored file, then the document record, then
	// runs a full pass. If the record removal fails after the file is gone the
	// error wraps ErrOrphanedFile.
	DeleteDocument(ctx context.Context, actor models.Actor, documentID int64) error

	// ExecuteRequest deletes the document of an Approved request. It returns
	// ErrDocumentMismatch if the stored document changed since the request.
	ExecuteRequest(ctx context.Context, actor models.Actor, requestID string) error
}

type deletionService struct {
	requests   repository.DeletionRequestRepository
	members    repository.MemberRepository
	files      storage.FileStore
	reconciler Reconciler
	validate   *validator.Validate
	metrics    *metrics.Metrics
	log        *logger.Logger
	now        func() time.Time
}

// NewDeletionService creates a new instance of DeletionService.
func NewDeletionService(
	requests repository.DeletionRequestRepository,
	members repository.MemberRepository,
	files storage.FileStore,
	reconciler Reconciler,
	m *metrics.Metrics,
	log *logger.Logger,
) DeletionService {
	return &deletionService{
		requests:   requests,
		members:    members,
		files:      files,
		reconciler: reconciler,
		validate:   validator.New(),
		metrics:    m,
		log:        log.WithComponent("deletion"),
		now:        time.Now,
	}
}

func (s *deletionService) RequestDeletion(ctx context.Context, actor models.Actor, input models.DeletionRequestInput) (*models.DeletionRequest, error) {
	if !actor.Authenticated() {
		return nil, s.deny(actor, "request deletion")
	}

	input.RequestedBy = actor.ID
	input.RequestedByEmail = actor.Email

	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !input.DocumentType.IsKnown() {
		return nil, fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, input.DocumentType)
	}

	doc, err := s.document(ctx, input.DocumentID)
	if err != nil {
		return nil, err
	}
	if !matchesDocument(doc, input.DocumentType, input.DocumentLink, input.MemberID) {
		s.log.Warn("Deletion request does not match stored document", map[string]interface{}{
			"document_id": input.DocumentID,
			"member_id":   input.MemberID,
			"actor_id":    actor.ID,
		})
		return nil, fmt.Errorf("%w: %w: document %d", ErrInvalidInput, ErrDocumentMismatch, input.DocumentID)
	}

	req, err := s.requests.Create(ctx, input)
	if err != nil {
		s.log.Error("Failed to create deletion request", err, map[string]interface{}{
			"document_id": input.DocumentID,
		})
		return nil, upstream("create deletion request", err)
	}

	s.metrics.IncrementDeletionRequests(string(models.DeletionPending))
	s.log.Info("Deletion requested", map[string]interface{}{
		"request_id":  req.ID,
		"document_id": req.DocumentID,
		"member_id":   req.MemberID,
		"actor_id":    actor.ID,
	})

	return req, nil
}

func (s *deletionService) ListRequests(ctx context.Context, actor models.Actor) ([]models.DeletionRequest, error) {
	if !actor.HasElevatedPrivilege() {
		return nil, s.deny(actor, "list deletion requests")
	}

	requests, err := s.requests.List(ctx)
	if err != nil {
		return nil, upstream("list deletion requests", err)
	}
	return requests, nil
}

func (s *deletionService) ProcessRequest(ctx context.Context, actor models.Actor, requestID string, decision models.DeletionStatus) (*models.DeletionRequest, error) {
	if !actor.HasElevatedPrivilege() {
		return nil, s.deny(actor, "process deletion request")
	}

	req, err := s.find(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.Status.Terminal() {
		return nil, fmt.Errorf("%w: request %s is %s", ErrInvalidStateTransition, requestID, req.Status)
	}
	if !decision.IsDecision() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidDecision, decision)
	}
	if !req.Status.CanTransitionTo(decision) {
		return nil, fmt.Errorf("%w: request %s is %s", ErrInvalidStateTransition, requestID, req.Status)
	}

	processedAt := s.now().UTC()
	if err := s.requests.SetStatus(ctx, requestID, decision, actor.ID, processedAt); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, fmt.Errorf("%w: request %s was processed concurrently", ErrInvalidStateTransition, requestID)
		}
		s.log.Error("Failed to update deletion request", err, map[string]interface{}{
			"request_id": requestID,
		})
		return nil, upstream("set deletion request status", err)
	}

	approver := actor.ID
	req.Status = decision
	req.ProcessedAt = &processedAt
	req.ProcessedBy = &approver

	s.metrics.IncrementDeletionRequests(string(decision))
	s.log.Info("Deletion request processed", map[string]interface{}{
		"request_id": requestID,
		"decision":   decision,
		"actor_id":   actor.ID,
	})

	return req, nil
}

func (s *deletionService) DeleteDocument(ctx context.Context, actor models.Actor, documentID int64) error {
	if !actor.HasElevatedPrivilege() {
		return s.deny(actor, "delete document")
	}

	doc, err := s.document(ctx, documentID)
	if err != nil {
		return err
	}
	return s.remove(ctx, actor, doc)
}

// remove deletes the stored file, then the record, then runs a pass.
func (s *deletionService) remove(ctx context.Context, actor models.Actor, doc *models.RawDocument) error {
	documentID := doc.ID

	// A document without a link has no stored file.
	if doc.Link != nil && *doc.Link != "" {
		path, err := dossier.StoragePath(*doc.Link)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}

		bucket := doc.Type.Bucket()
		if err := s.files.Delete(ctx, bucket, path); err != nil {
			s.log.Error("Failed to delete stored file", err, map[string]interface{}{
				"document_id": documentID,
				"bucket":      bucket,
				"path":        path,
			})
			return upstream("delete stored file", err)
		}
	}

	if err := s.members.DeleteDocument(ctx, documentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID)
		}
		s.log.Error("Stored file deleted but document record remains", err, map[string]interface{}{
			"document_id": documentID,
			"member_id":   doc.MemberID,
		})
		return fmt.Errorf("%w: %w", ErrOrphanedFile, upstream("delete document record", err))
	}

	s.metrics.IncrementDocumentsDeleted()
	s.log.Info("Document deleted", map[string]interface{}{
		"document_id": documentID,
		"member_id":   doc.MemberID,
		"actor_id":    actor.ID,
	})

	// The deletion is committed; a failed pass only leaves the snapshot stale.
	if _, err := s.reconciler.Reconcile(ctx); err != nil {
		s.log.Warn("Document deleted but snapshot is stale", map[string]interface{}{
			"document_id": documentID,
			"error":       err.Error(),
		})
	}

	return nil
}

func (s *deletionService) ExecuteRequest(ctx context.Context, actor models.Actor, requestID string) error {
	if !actor.HasElevatedPrivilege() {
		return s.deny(actor, "execute deletion request")
	}

	req, err := s.find(ctx, requestID)
	if err != nil {
		return err
	}

	if req.Status != models.DeletionApproved {
		return fmt.Errorf("%w: request %s is %s, not %s",
			ErrInvalidStateTransition, requestID, req.Status, models.DeletionApproved)
	}

	doc, err := s.document(ctx, req.DocumentID)
	if err != nil {
		return err
	}
	if !matchesDocument(doc, req.DocumentType, req.DocumentLink, req.MemberID) {
		s.log.Warn("Approved request no longer matches stored document", map[string]interface{}{
			"request_id":  requestID,
			"document_id": req.DocumentID,
		})
		return fmt.Errorf("%w: request %s, document %d", ErrDocumentMismatch, requestID, req.DocumentID)
	}

	return s.remove(ctx, actor, doc)
}

func (s *deletionService) document(ctx context.Context, documentID int64) (*models.RawDocument, error) {
	doc, err := s.members.FindDocument(ctx, documentID)
	if err != nil {
		return nil, upstream("find document", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID)
	}
	return doc, nil
}

// matchesDocument reports whether doc is the document a request describes.
func matchesDocument(doc *models.RawDocument, docType models.DocumentType, link, memberID string) bool {
	return doc.Type == docType &&
		doc.MemberID == memberID &&
		doc.Link != nil && *doc.Link == link
}

func (s *deletionService) find(ctx context.Context, requestID string) (*models.DeletionRequest, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, upstream("find deletion request", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeletionRequestNotFound, requestID)
	}
	return req, nil
}

func (s *deletionService) deny(actor models.Actor, op string) error {
	s.metrics.IncrementGuardRejection(metrics.ReasonPermission)
	s.log.Warn("Permission denied", map[string]interface{}{
		"operation": op,
		"actor_id":  actor.ID,
	})
	return ErrPermissionDenied
}
