package dossier

import (
	"github.com/stwalsh4118/dossier/api/internal/ledger"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// DerivePayment scans the member's ledger entries in encounter order. The
// first entry with a receipt number and a whitelisted type marks the member
// as paid; later entries are not considered.
func DerivePayment(entries []ledger.Entry) models.PaymentInfo {
	for _, e := range entries {
		if e.ReceiptNumber == nil || *e.ReceiptNumber == "" {
			continue
		}
		if !e.TransactionType.Whitelisted() {
			continue
		}
		receipt := *e.ReceiptNumber
		return models.PaymentInfo{
			Status:        models.PaymentPaid,
			ReceiptNumber: &receipt,
		}
	}

	return models.PaymentInfo{Status: models.PaymentUnpaid}
}

// HasRequiredDocument reports whether docs contain a site plan or a
// descriptive report.
func HasRequiredDocument(docs []models.ValidatedDocument) bool {
	for _, d := range docs {
		if d.Type.IsRequired() {
			return true
		}
	}
	return false
}

// DeriveSurvey ORs the required-document evidence into the stored state.
// Documents can only raise the state to measured, never lower it.
func DeriveSurvey(docs []models.ValidatedDocument, stored models.SurveyState) models.SurveyState {
	if HasRequiredDocument(docs) {
		return models.SurveyMeasured
	}
	return stored
}
