package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* ===================== Enums (string) ===================== */

const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentMethodCard       = "card"
	PaymentMethodStoredCard = "stored_card"
)

const (
	GatewayProviderSimulated = "simulated"
	GatewayProviderMidtrans  = "midtrans"
)

/* ===================== Model ===================== */

// Payment is the finalized transaction record. Created only on a successful
// gateway confirmation; never mutated afterwards except by refund.
type Payment struct {
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"payment_id"`

	PaymentEnrollmentID uuid.UUID  `gorm:"column:payment_enrollment_id;type:uuid;not null;index" json:"payment_enrollment_id"`
	PaymentParentID     *uuid.UUID `gorm:"column:payment_parent_id;type:uuid;index" json:"payment_parent_id,omitempty"`

	PaymentAmount   float64 `gorm:"column:payment_amount;type:numeric(12,2);not null;check:payment_amount >= 0" json:"payment_amount"`
	PaymentCurrency string  `gorm:"column:payment_currency;type:varchar(3);not null" json:"payment_currency"`

	PaymentStatus string `gorm:"column:payment_status;type:varchar(20);not null;default:'completed'" json:"payment_status"`

	// method descriptor: fresh card + last4, or the stored token id
	PaymentMethod    string     `gorm:"column:payment_method;type:varchar(20);not null" json:"payment_method"`
	PaymentCardLast4 *string    `gorm:"column:payment_card_last4;type:varchar(4)" json:"payment_card_last4,omitempty"`
	PaymentTokenID   *uuid.UUID `gorm:"column:payment_token_id;type:uuid" json:"payment_token_id,omitempty"`

	PaymentGatewayProvider string `gorm:"column:payment_gateway_provider;type:varchar(20);not null" json:"payment_gateway_provider"`
	PaymentTransactionID   string `gorm:"column:payment_transaction_id;type:varchar(64);not null;index" json:"payment_transaction_id"`

	// course id/name snapshot and any gateway extras
	PaymentMeta datatypes.JSONMap `gorm:"column:payment_meta;type:jsonb" json:"payment_meta,omitempty"`

	PaymentRefundedAt *time.Time `gorm:"column:payment_refunded_at" json:"payment_refunded_at,omitempty"`

	CreatedAt time.Time      `gorm:"column:payment_created_at;autoCreateTime" json:"payment_created_at"`
	UpdatedAt time.Time      `gorm:"column:payment_updated_at;autoUpdateTime" json:"payment_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:payment_deleted_at;index" json:"payment_deleted_at,omitempty"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) IsRefunded() bool { return p.PaymentStatus == PaymentStatusRefunded }
