package models

import "time"

// DeletionStatus is the state of a document deletion request.
type DeletionStatus string

const (
	DeletionPending  DeletionStatus = "Pending"
	DeletionApproved DeletionStatus = "Approved"
	DeletionRejected DeletionStatus = "Rejected"
)

// Terminal reports whether no further transition is possible.
func (s DeletionStatus) Terminal() bool {
	return s == DeletionApproved || s == DeletionRejected
}

// IsDecision reports whether s is a valid approver decision.
func (s DeletionStatus) IsDecision() bool {
	return s == DeletionApproved || s == DeletionRejected
}

// CanTransitionTo encodes Pending -> {Approved, Rejected}. Nothing else is legal.
func (s DeletionStatus) CanTransitionTo(next DeletionStatus) bool {
	return s == DeletionPending && next.IsDecision()
}

// MemberSummary is the member identity joined onto a deletion request listing.
type MemberSummary struct {
	Nombres         string `json:"nombres"`
	ApellidoPaterno string `json:"apellidoPaterno"`
	DNI             string `json:"dni"`
}

// DeletionRequest asks an approver to authorise removing a document. It holds
// a snapshot of the document identity taken when the request was made.
type DeletionRequest struct {
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
	ProcessedAt      *time.Time     `db:"processed_at" json:"processedAt,omitempty"`
	ProcessedBy      *string        `db:"processed_by" json:"processedBy,omitempty"`
	Member           *MemberSummary `json:"member,omitempty"`
	ID               string         `db:"id" json:"id"`
	DocumentType     DocumentType   `db:"document_type" json:"documentType"`
	DocumentLink     string         `db:"document_link" json:"documentLink"`
	MemberID         string         `db:"socio_id" json:"memberId"`
	RequestedBy      string         `db:"requested_by" json:"requestedBy"`
	RequestedByEmail string         `db:"requested_by_email" json:"requestedByEmail"`
	Status           DeletionStatus `db:"request_status" json:"status"`
	DocumentID       int64          `db:"document_id" json:"documentId"`
}

// DeletionRequestInput is what a requester submits. RequestedBy and
// RequestedByEmail are filled from the acting identity, never from the body.
type DeletionRequestInput struct {
	DocumentID       int64        `json:"document_id" validate:"required,gt=0"`
	DocumentType     DocumentType `json:"document_type" validate:"required"`
	DocumentLink     string       `json:"document_link" validate:"required,url"`
	MemberID         string       `json:"socio_id" validate:"required"`
	RequestedBy      string       `json:"-" validate:"required"`
	RequestedByEmail string       `json:"-" validate:"omitempty,email"`
}
