package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Statuts de remboursement — approved et rejected sont terminaux
const (
	RefundStatusPending  = "pending"
	RefundStatusApproved = "approved"
	RefundStatusRejected = "rejected"
)

// Longueur maximale des motifs (demande et rejet)
const RefundReasonMaxLen = 500

type RefundRequest struct {
	ID             gocql.UUID `json:"refund_id" db:"refund_id"`
	PaymentID      gocql.UUID `json:"payment_id" db:"payment_id"`
	UserID         string     `json:"user_id" db:"user_id"`
	Reason         string     `json:"reason" db:"reason"`
	RejectReason   string     `json:"reject_reason,omitempty" db:"reject_reason"`
	Status         string     `json:"status" db:"status"`
	StripeRefundID string     `json:"stripe_refund_id,omitempty" db:"stripe_refund_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
