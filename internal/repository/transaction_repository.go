package repository

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/dossier/api/internal/database"
	"github.com/stwalsh4118/dossier/api/internal/models"
)

// TransactionRepository defines read access to the payment ledger.
type TransactionRepository interface {
	// FetchTransactions returns every ledger row carrying a DNI, ordered by
	// primary key so "first match" rules are deterministic.
	FetchTransactions(ctx context.Context) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *database.Database
}

// NewTransactionRepository creates a new instance of TransactionRepository.
func NewTransactionRepository(db *database.Database) TransactionRepository {
	return &transactionRepository{db: db}
}

// FetchTransactions reads the ledger rows the reconciliation pass joins on.
func (r *transactionRepository) FetchTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `
		SELECT
			id,
			dni,
			receipt_number,
			COALESCE(transaction_type, '')
		FROM ingresos
		WHERE dni IS NOT NULL
		ORDER BY id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var txType string
		if err := rows.Scan(&tx.ID, &tx.DNI, &tx.ReceiptNumber, &txType); err != nil {
			return nil, fmt.Errorf("failed to scan ledger row: %w", err)
		}
		tx.TransactionType = models.TransactionType(txType)
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}
	return transactions, nil
}
