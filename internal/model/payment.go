package model

import "time"

// PaymentMethod identifies how a subscription payment was made.
type PaymentMethod string

const (
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodPayPal       PaymentMethod = "paypal"
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// IsValid checks if the payment method is supported.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodStripe, PaymentMethodBankTransfer:
		return true
	}
	return false
}

// PaymentReceipt records a single applied subscription payment.
// Receipts are append-only; the account row keeps only the resulting
// plan and expiry.
type PaymentReceipt struct {
	ID             string        `json:"id"`
	AccountID      string        `json:"account_id"`
	Plan           Plan          `json:"plan"`
	Method         PaymentMethod `json:"method"`
	TransactionID  string        `json:"transaction_id"`
	DurationMonths int           `json:"duration_months"`
	CreatedAt      time.Time     `json:"created_at"`
}
