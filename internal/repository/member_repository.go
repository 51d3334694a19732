package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/stwalsh4118/dossier/api/internal/database"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// MemberRepository defines data access for member profiles and their documents.
type MemberRepository interface {
	// FetchMembers returns every member with its raw documents attached,
	// ordered by paternal surname. Profiles and documents are read from one
	// snapshot; the call either returns everything or fails.
	FetchMembers(ctx context.Context) ([]models.Member, error)

	// FetchLocalidades returns the distinct, sorted, non-empty localities.
	FetchLocalidades(ctx context.Context) ([]string, error)

	// FindDocument returns a single raw document.
	// Returns nil, nil if the document does not exist.
	FindDocument(ctx context.Context, id int64) (*models.RawDocument, error)

	// UpdateSurvey persists the lot-measured flag of one member.
	// Returns ErrNotFound if no member has the id.
	UpdateSurvey(ctx context.Context, memberID string, measured bool) error

	// UpdateSurveyBulk persists the flag for a set of members in one statement.
	UpdateSurveyBulk(ctx context.Context, memberIDs []string, measured bool) error

	// DeleteDocument removes a document record.
	// Returns ErrNotFound if no document has the id.
	DeleteDocument(ctx context.Context, id int64) error
}

// memberRepository is the PostgreSQL implementation of MemberRepository.
type memberRepository struct {
	db *database.Database
}

// NewMemberRepository creates a new instance of MemberRepository.
func NewMemberRepository(db *database.Database) MemberRepository {
	return &memberRepository{db: db}
}

const selectMembersQuery = `
	SELECT
		id::text,
		COALESCE(dni, ''),
		COALESCE(nombres, ''),
		COALESCE("apellidoPaterno", ''),
		COALESCE("apellidoMaterno", ''),
		COALESCE(localidad, ''),
		mz,
		lote,
		is_lote_medido
	FROM socio_titulares
	ORDER BY "apellidoPaterno" ASC, id ASC
`

const selectDocumentsQuery = `
	SELECT
		id,
		socio_id::text,
		tipo_documento,
		link_documento
	FROM socio_documentos
	ORDER BY id ASC
`

// FetchMembers reads profiles and documents inside one read-only,
// repeatable-read transaction so both result sets share a snapshot.
func (r *memberRepository) FetchMembers(ctx context.Context) ([]models.Member, error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin member snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	members, err := scanMembers(ctx, tx)
	if err != nil {
		return nil, err
	}

	docs, err := scanDocuments(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to close member snapshot: %w", err)
	}

	byMember := make(map[string]int, len(members))
	for i := range members {
		byMember[members[i].ID] = i
	}
	for _, doc := range docs {
		if i, ok := byMember[doc.MemberID]; ok {
			members[i].Documents = append(members[i].Documents, doc)
		}
	}

	return members, nil
}

func scanMembers(ctx context.Context, tx pgx.Tx) ([]models.Member, error) {
	rows, err := tx.Query(ctx, selectMembersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		var measured *bool
		if err := rows.Scan(
			&m.ID,
			&m.DNI,
			&m.Nombres,
			&m.ApellidoPaterno,
			&m.ApellidoMaterno,
			&m.Localidad,
			&m.Mz,
			&m.Lote,
			&measured,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member row: %w", err)
		}
		m.Survey = models.SurveyStateFromNullable(measured)
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

func scanDocuments(ctx context.Context, tx pgx.Tx) ([]models.RawDocument, error) {
	rows, err := tx.Query(ctx, selectDocumentsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []models.RawDocument
	for rows.Next() {
		var d models.RawDocument
		var docType string
		if err := rows.Scan(&d.ID, &d.MemberID, &docType, &d.Link); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		d.Type = models.DocumentType(docType)
		docs = append(docs, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

// FetchLocalidades returns the distinct localities members are registered in.
func (r *memberRepository) FetchLocalidades(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT localidad
		FROM socio_titulares
		WHERE localidad IS NOT NULL AND localidad <> ''
		ORDER BY localidad ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query localidades: %w", err)
	}
	defer rows.Close()

	localidades := []string{}
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan localidad: %w", err)
		}
		localidades = append(localidades, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating localidad rows: %w", err)
	}
	return localidades, nil
}

// FindDocument loads a single document record by id.
func (r *memberRepository) FindDocument(ctx context.Context, id int64) (*models.RawDocument, error) {
	query := `
		SELECT id, socio_id::text, tipo_documento, link_documento
		FROM socio_documentos
		WHERE id = $1
	`

	var d models.RawDocument
	var docType string
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.MemberID, &docType, &d.Link)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query document %d: %w", id, err)
	}
	d.Type = models.DocumentType(docType)

	return &d, nil
}

// UpdateSurvey sets is_lote_medido for one member.
func (r *memberRepository) UpdateSurvey(ctx context.Context, memberID string, measured bool) error {
	query := `UPDATE socio_titulares SET is_lote_medido = $2 WHERE id = $1::uuid`

	tag, err := r.db.Pool.Exec(ctx, query, memberID, measured)
	if err != nil {
		return fmt.Errorf("failed to update lote medido for member %s: %w", memberID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	return nil
}

// UpdateSurveyBulk sets is_lote_medido for every member in memberIDs with a
// single set-based statement.
func (r *memberRepository) UpdateSurveyBulk(ctx context.Context, memberIDs []string, measured bool) error {
	if len(memberIDs) == 0 {
		return nil
	}

	query := `UPDATE socio_titulares SET is_lote_medido = $2 WHERE id = ANY($1::uuid[])`

	if _, err := r.db.Pool.Exec(ctx, query, memberIDs, measured); err != nil {
		return fmt.Errorf("failed to bulk update lote medido (%d members): %w", len(memberIDs), err)
	}
	return nil
}

// DeleteDocument removes one document record.
func (r *memberRepository) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM socio_documentos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return nil
}
