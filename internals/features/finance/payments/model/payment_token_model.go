package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentToken is a stored, reusable payment method. Created when the payer
// opts in at payment time, read back on later enrollments.
type PaymentToken struct {
	TokenID uuid.UUID `gorm:"column:token_id;type:uuid;default:gen_random_uuid();primaryKey" json:"token_id"`

	// owning customer: the parent profile id (guest parents included)
	TokenCustomerID uuid.UUID `gorm:"column:token_customer_id;type:uuid;not null;index" json:"token_customer_id"`

	TokenCardBrand string `gorm:"column:token_card_brand;type:varchar(20);not null" json:"token_card_brand"`
	TokenCardLast4 string `gorm:"column:token_card_last4;type:varchar(4);not null" json:"token_card_last4"`
	TokenExpMonth  int    `gorm:"column:token_exp_month;not null" json:"token_exp_month"`
	TokenExpYear   int    `gorm:"column:token_exp_year;not null" json:"token_exp_year"`

	// opaque reference at the gateway side
	TokenGatewayRef string `gorm:"column:token_gateway_ref;type:varchar(128);not null" json:"-"`

	TokenIsUsable bool `gorm:"column:token_is_usable;not null;default:true" json:"token_is_usable"`

	CreatedAt time.Time      `gorm:"column:token_created_at;autoCreateTime" json:"token_created_at"`
	UpdatedAt time.Time      `gorm:"column:token_updated_at;autoUpdateTime" json:"token_updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"column:token_deleted_at;index" json:"token_deleted_at,omitempty"`
}

func (PaymentToken) TableName() string { return "payment_tokens" }

func (t *PaymentToken) IsExpired(now time.Time) bool {
	if t.TokenExpYear == 0 {
		return false
	}
	endOfMonth := time.Date(t.TokenExpYear, time.Month(t.TokenExpMonth), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0)
	return now.After(endOfMonth)
}
