// Package dossier holds the pure per-member reconciliation rules: which
// uploaded documents count, and which statuses they imply.
package dossier

import (
	"strings"

	"github.com/stwalsh4118/dossier/api/internal/ledger"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

const receiptFileSuffix = ".pdf"

// ReceiptKey extracts the ledger receipt number embedded in a payment-receipt
// link: the segment after the final "/", minus a trailing ".pdf".
// It returns false when the link has no "/" or the stem is empty.
func ReceiptKey(link string) (string, bool) {
	i := strings.LastIndex(link, "/")
	if i < 0 {
		return "", false
	}
	stem := strings.TrimSuffix(link[i+1:], receiptFileSuffix)
	if stem == "" {
		return "", false
	}
	return stem, true
}

// ValidateDocuments filters a member's raw documents down to those that are
// recognised and currently valid. Input order is preserved.
//
// A document is dropped when its type is not allowed or it has no link.
// A payment receipt is kept only when its receipt key maps to a whitelisted
// transaction type in the index. Malformed records are excluded, never erred.
func ValidateDocuments(docs []models.RawDocument, ix *ledger.Index) []models.ValidatedDocument {
	out := make([]models.ValidatedDocument, 0, len(docs))

	for _, doc := range docs {
		if !doc.Type.IsAllowed() || doc.Link == nil || *doc.Link == "" {
			continue
		}

		validated := models.ValidatedDocument{
			ID:       doc.ID,
			MemberID: doc.MemberID,
			Type:     doc.Type,
			Link:     *doc.Link,
		}

		if doc.Type == models.DocumentPaymentReceipt {
			key, ok := ReceiptKey(*doc.Link)
			if !ok {
				continue
			}
			txType, found := ix.TypeForReceipt(key)
			if !found || !txType.Whitelisted() {
				continue
			}
			validated.ReceiptNumber = key
		}

		out = append(out, validated)
	}

	return out
}
