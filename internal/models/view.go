package models

import "time"

// PaymentStatus is the derived payment status of a member.
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "Pagado"
	PaymentUnpaid PaymentStatus = "No Pagado"
)

// PaymentInfo is derived from the ledger on every pass.
type PaymentInfo struct {
	Status        PaymentStatus `json:"status"`
	ReceiptNumber *string       `json:"receiptNumber"`
}

// MemberView is the reconciled dossier of one member. It is rebuilt wholesale
// on every reconciliation pass and is the only structure readers consume.
//
// Survey is the effective state: measured when a required document is present,
// otherwise the stored state. StoredSurvey keeps what the store holds.
type MemberView struct {
	Member
	Documents    []ValidatedDocument `json:"documents"`
	Payment      PaymentInfo         `json:"paymentInfo"`
	Survey       SurveyState         `json:"survey"`
	StoredSurvey SurveyState         `json:"storedSurvey"`
}

// HasRequiredDocument reports whether any validated document gates the
// lot-measured guard.
func (v MemberView) HasRequiredDocument() bool {
	for _, d := range v.Documents {
		if d.Type.IsRequired() {
			return true
		}
	}
	return false
}

// IsLoteMedido is the effective boolean shown to consumers.
func (v MemberView) IsLoteMedido() bool {
	return v.Survey.Measured()
}

// Snapshot is the full materialized view produced by one reconciliation pass.
// A published Snapshot is never modified; changes produce a new Snapshot.
type Snapshot struct {
	ReconciledAt time.Time    `json:"reconciledAt"`
	Views        []MemberView `json:"views"`
	Localidades  []string     `json:"localidades"`
}

// Find returns the view of memberID and its position, or false.
func (s *Snapshot) Find(memberID string) (MemberView, int, bool) {
	if s == nil {
		return MemberView{}, -1, false
	}
	for i, v := range s.Views {
		if v.ID == memberID {
			return v, i, true
		}
	}
	return MemberView{}, -1, false
}

// WithView returns a copy of s with the view at index i replaced.
func (s *Snapshot) WithView(i int, view MemberView) *Snapshot {
	views := make([]MemberView, len(s.Views))
	copy(views, s.Views)
	views[i] = view
	return &Snapshot{
		ReconciledAt: s.ReconciledAt,
		Views:        views,
		Localidades:  s.Localidades,
	}
}
