package models

// DocumentType is the closed set of dossier document kinds.
type DocumentType string

const (
	DocumentSitePlan          DocumentType = "Planos de ubicación"
	DocumentDescriptiveReport DocumentType = "Memoria descriptiva"
	DocumentFormSheet         DocumentType = "Ficha"
	DocumentContract          DocumentType = "Contrato"
	DocumentPaymentReceipt    DocumentType = "Comprobante de Pago"
	DocumentReceiptAlias      DocumentType = "Recibo"
)

// Storage buckets for uploaded files.
const (
	BucketSitePlans          = "planos"
	BucketDescriptiveReports = "memorias"
	BucketDocuments          = "documents"
)

// IsKnown reports whether t belongs to the enumerated document types.
func (t DocumentType) IsKnown() bool {
	switch t {
	case DocumentSitePlan, DocumentDescriptiveReport, DocumentFormSheet,
		DocumentContract, DocumentPaymentReceipt, DocumentReceiptAlias:
		return true
	}
	return false
}

// IsAllowed reports whether documents of this type can appear in a dossier.
// Receipt aliases are recognised on upload but never validated into a dossier.
func (t DocumentType) IsAllowed() bool {
	return t.IsKnown() && t != DocumentReceiptAlias
}

// IsRequired reports whether the type gates the lot-measured guard.
func (t DocumentType) IsRequired() bool {
	return t == DocumentSitePlan || t == DocumentDescriptiveReport
}

// Bucket returns the storage bucket holding files of this type.
func (t DocumentType) Bucket() string {
	switch t {
	case DocumentSitePlan:
		return BucketSitePlans
	case DocumentDescriptiveReport:
		return BucketDescriptiveReports
	default:
		return BucketDocuments
	}
}

// RawDocument is a document row as stored. A nil Link means the file was
// never uploaded.
type RawDocument struct {
	ID       int64        `db:"id" json:"id"`
	MemberID string       `db:"socio_id" json:"memberId"`
	Type     DocumentType `db:"tipo_documento" json:"type"`
	Link     *string      `db:"link_documento" json:"link,omitempty"`
}

// ValidatedDocument is a RawDocument that passed the validity filter.
// It is recomputed on every reconciliation pass and never persisted.
// ReceiptNumber is set for payment receipts and holds the ledger key the
// file was matched against.
type ValidatedDocument struct {
	ID            int64        `json:"id"`
	MemberID      string       `json:"memberId"`
	Type          DocumentType `json:"type"`
	Link          string       `json:"link"`
	ReceiptNumber string       `json:"receiptNumber,omitempty"`
}
