// Package ledger indexes payment-ledger rows for the reconciliation pass.
package ledger

import (
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// Entry is the part of a ledger row the dossier cares about.
type Entry struct {
	ReceiptNumber   *string
	TransactionType models.TransactionType
}

// Index is an immutable lookup structure built once per reconciliation pass.
// It is safe for concurrent reads.
type Index struct {
	byDNI         map[string][]Entry
	typeByReceipt map[string]models.TransactionType
	size          int
}

// NewIndex builds the per-member transaction lists and the receipt -> type map.
//
// Rows without a DNI are skipped. Per-DNI lists keep input order and keep
// duplicates. Duplicate receipt numbers resolve last-write-wins.
func NewIndex(transactions []models.Transaction) *Index {
	ix := &Index{
		byDNI:         make(map[string][]Entry),
		typeByReceipt: make(map[string]models.TransactionType),
	}

	for _, tx := range transactions {
		if tx.DNI == "" {
			continue
		}
		ix.size++

		ix.byDNI[tx.DNI] = append(ix.byDNI[tx.DNI], Entry{
			ReceiptNumber:   tx.ReceiptNumber,
			TransactionType: tx.TransactionType,
		})

		if tx.ReceiptNumber != nil && *tx.ReceiptNumber != "" && tx.TransactionType != "" {
			ix.typeByReceipt[*tx.ReceiptNumber] = tx.TransactionType
		}
	}

	return ix
}

// ForDNI returns the member's ledger entries in encounter order.
// The returned slice must not be modified.
func (ix *Index) ForDNI(dni string) []Entry {
	if ix == nil {
		return nil
	}
	return ix.byDNI[dni]
}

// TypeForReceipt looks up the transaction type recorded for a receipt number.
func (ix *Index) TypeForReceipt(receipt string) (models.TransactionType, bool) {
	if ix == nil {
		return "", false
	}
	t, ok := ix.typeByReceipt[receipt]
	return t, ok
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.size
}
