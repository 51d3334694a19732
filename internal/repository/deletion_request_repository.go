package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/dossier/api/internal/database"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// DeletionRequestRepository defines persistence for document deletion requests.
type DeletionRequestRepository interface {
	// Create stores a new request in Pending state.
	Create(ctx context.Context, input models.DeletionRequestInput) (*models.DeletionRequest, error)

	// List returns every request, newest first, with the member summary joined.
	List(ctx context.Context) ([]models.DeletionRequest, error)

	// FindByID returns one request. Returns nil, nil if it does not exist.
	FindByID(ctx context.Context, id string) (*models.DeletionRequest, error)

	// SetStatus records an approver decision. The update only applies to a
	// request that is still Pending; otherwise ErrNotPending is returned.
	SetStatus(ctx context.Context, id string, status models.DeletionStatus, approverID string, processedAt time.Time) error
}

type deletionRequestRepository struct {
	db  *database.Database
	now func() time.Time
}

// NewDeletionRequestRepository creates a new instance of DeletionRequestRepository.
func NewDeletionRequestRepository(db *database.Database) DeletionRequestRepository {
	return &deletionRequestRepository{db: db, now: time.Now}
}

const selectDeletionRequestColumns = `
	SELECT
		r.id::text,
		r.document_id,
		r.document_type,
		r.document_link,
		r.socio_id::text,
		r.requested_by,
		COALESCE(r.requested_by_email, ''),
		r.request_status,
		r.created_at,
		r.processed_at,
		r.processed_by,
		s.nombres,
		s."apellidoPaterno",
		s.dni
	FROM document_deletion_requests r
	LEFT JOIN socio_titulares s ON s.id = r.socio_id
`

// Create inserts a Pending request with a fresh UUID.
func (r *deletionRequestRepository) Create(ctx context.Context, input models.DeletionRequestInput) (*models.DeletionRequest, error) {
	req := &models.DeletionRequest{
		ID:               uuid.New().String(),
		DocumentID:       input.DocumentID,
		DocumentType:     input.DocumentType,
		DocumentLink:     input.DocumentLink,
		MemberID:         input.MemberID,
		RequestedBy:      input.RequestedBy,
		RequestedByEmail: input.RequestedByEmail,
		Status:           models.DeletionPending,
		CreatedAt:        r.now().UTC(),
	}

	query := `
		INSERT INTO document_deletion_requests (
			id, document_id, document_type, document_link, socio_id,
			requested_by, requested_by_email, request_status, created_at
		) VALUES ($1::uuid, $2, $3, $4, $5::uuid, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		req.ID,
		req.DocumentID,
		string(req.DocumentType),
		req.DocumentLink,
		req.MemberID,
		req.RequestedBy,
		req.RequestedByEmail,
		string(req.Status),
		req.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert deletion request for document %d: %w", req.DocumentID, err)
	}

	return req, nil
}

// List returns all requests ordered by creation time, newest first.
func (r *deletionRequestRepository) List(ctx context.Context) ([]models.DeletionRequest, error) {
	rows, err := r.db.Pool.Query(ctx, selectDeletionRequestColumns+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deletion requests: %w", err)
	}
	defer rows.Close()

	requests := []models.DeletionRequest{}
	for rows.Next() {
		req, err := scanDeletionRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deletion request rows: %w", err)
	}
	return requests, nil
}

// FindByID loads a single request.
func (r *deletionRequestRepository) FindByID(ctx context.Context, id string) (*models.DeletionRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	row := r.db.Pool.QueryRow(ctx, selectDeletionRequestColumns+` WHERE r.id = $1::uuid`, id)
	req, err := scanDeletionRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// SetStatus applies a decision only while the request is Pending, so two
// concurrent approvers cannot both succeed.
func (r *deletionRequestRepository) SetStatus(ctx context.Context, id string, status models.DeletionStatus, approverID string, processedAt time.Time) error {
	query := `
		UPDATE document_deletion_requests
		SET request_status = $2, processed_at = $3, processed_by = $4
		WHERE id = $1::uuid AND request_status = $5
	`

	tag, err := r.db.Pool.Exec(ctx, query, id, string(status), processedAt, approverID, string(models.DeletionPending))
	if err != nil {
		return fmt.Errorf("failed to update deletion request %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deletion request %s: %w", id, ErrNotPending)
	}
	return nil
}

func scanDeletionRequest(row pgx.Row) (*models.DeletionRequest, error) {
	var req models.DeletionRequest
	var docType, status string
	var nombres, apellido, dni *string

	err := row.Scan(
		&req.ID,
		&req.DocumentID,
		&docType,
		&req.DocumentLink,
		&req.MemberID,
		&req.RequestedBy,
		&req.RequestedByEmail,
		&status,
		&req.CreatedAt,
		&req.ProcessedAt,
		&req.ProcessedBy,
		&nombres,
		&apellido,
		&dni,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan deletion request row: %w", err)
	}

	req.DocumentType = models.DocumentType(docType)
	req.Status = models.DeletionStatus(status)
	if dni != nil {
		req.Member = &models.MemberSummary{DNI: *dni}
		if nombres != nil {
			req.Member.Nombres = *nombres
		}
		if apellido != nil {
			req.Member.ApellidoPaterno = *apellido
		}
	}

	return &req, nil
}
