package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de paiement — transitions monotones ready → paid → refunded
const (
	PaymentStatusReady    = "ready"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

type Payment struct {
	ID          gocql.UUID `json:"payment_id" db:"payment_id"`
	UserID      string     `json:"user_id" db:"user_id"`
	MerchantUID string     `json:"merchant_uid" db:"merchant_uid"`
	ImpUID      string     `json:"imp_uid,omitempty" db:"imp_uid"`
	Amount      int64      `json:"amount" db:"amount"`
	Status      string     `json:"status" db:"status"`
	PaidAt      *time.Time `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
