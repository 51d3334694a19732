package models

// TransactionType is the free-form type recorded on a ledger row.
type TransactionType string

// Ledger transaction types that count as a payment.
const (
	TransactionSale           TransactionType = "Venta"
	TransactionIncome         TransactionType = "Ingreso"
	TransactionPaymentReceipt TransactionType = "Recibo de Pago"
)

// Whitelisted reports whether the type counts as a valid payment.
func (t TransactionType) Whitelisted() bool {
	switch t {
	case TransactionSale, TransactionIncome, TransactionPaymentReceipt:
		return true
	}
	return false
}

// Transaction is one row of the payment ledger. DNI is a join key over a
// different identity space than Member.ID, not a foreign key.
type Transaction struct {
	ID              int64           `db:"id" json:"id"`
	DNI             string          `db:"dni" json:"dni"`
	ReceiptNumber   *string         `db:"receipt_number" json:"receiptNumber,omitempty"`
	TransactionType TransactionType `db:"transaction_type" json:"transactionType"`
}
