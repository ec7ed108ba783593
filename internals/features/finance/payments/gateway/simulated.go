package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/finance/payments/model"
)

// Deterministic test-card rules, same idea as PSP sandbox cards.
const (
	cardSuffixDeclined     = "0002"
	cardSuffixInsufficient = "9995"
)

// SimulatedGateway approves or declines locally without touching a PSP.
// Tokens are persisted so "pay with saved card" works across enrollments.
type SimulatedGateway struct {
	DB *gorm.DB
}

func NewSimulatedGateway(db *gorm.DB) *SimulatedGateway {
	return &SimulatedGateway{DB: db}
}

func (g *SimulatedGateway) ProcessPayment(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Amount <= 0 {
		return ChargeResult{ErrorMessage: "invalid amount"}, nil
	}

	var last4, brand, ref string
	switch {
	case req.TokenID != nil:
		var tok model.PaymentToken
		err := g.DB.WithContext(ctx).
			First(&tok, "token_id = ? AND token_customer_id = ? AND token_is_usable = TRUE", req.TokenID, req.CustomerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ChargeResult{ErrorMessage: "Saved card not found"}, nil
		}
		if err != nil {
			return ChargeResult{}, err
		}
		if tok.IsExpired(time.Now()) {
			return ChargeResult{ErrorMessage: "Saved card has expired"}, nil
		}
		last4, brand, ref = tok.TokenCardLast4, tok.TokenCardBrand, tok.TokenGatewayRef

	case req.Card != nil:
		num := strings.ReplaceAll(strings.TrimSpace(req.Card.Number), " ", "")
		if len(num) < 12 {
			return ChargeResult{ErrorMessage: "Invalid card number"}, nil
		}
		last4 = num[len(num)-4:]
		brand = detectBrand(num)
		ref = "sim_" + randHex(12)

		switch {
		case strings.HasSuffix(num, cardSuffixDeclined):
			return ChargeResult{ErrorMessage: "Card declined"}, nil
		case strings.HasSuffix(num, cardSuffixInsufficient):
			return ChargeResult{ErrorMessage: "Insufficient funds"}, nil
		}

	default:
		return ChargeResult{ErrorMessage: "No payment method provided"}, nil
	}

	res := ChargeResult{
		Success:       true,
		TransactionID: "tx_" + randHex(10),
	}

	// opt-in tokenization, fresh cards only
	if req.SaveCard && req.Card != nil {
		tok := model.PaymentToken{
			TokenCustomerID: req.CustomerID,
			TokenCardBrand:  brand,
			TokenCardLast4:  last4,
			TokenExpMonth:   req.Card.ExpMonth,
			TokenExpYear:    req.Card.ExpYear,
			TokenGatewayRef: ref,
			TokenIsUsable:   true,
		}
		if err := g.DB.WithContext(ctx).Create(&tok).Error; err != nil {
			// charge already succeeded; losing the token is not a charge failure
			return res, nil
		}
		res.StoredToken = &tok
	}
	return res, nil
}

func (g *SimulatedGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (RefundResult, error) {
	if !strings.HasPrefix(transactionID, "tx_") {
		return RefundResult{ErrorMessage: fmt.Sprintf("unknown transaction %q", transactionID)}, nil
	}
	if amount <= 0 {
		return RefundResult{ErrorMessage: "invalid refund amount"}, nil
	}
	return RefundResult{Success: true}, nil
}

func (g *SimulatedGateway) ListStoredPaymentMethods(ctx context.Context, customerID uuid.UUID) ([]model.PaymentToken, error) {
	var rows []model.PaymentToken
	err := g.DB.WithContext(ctx).
		Where("token_customer_id = ? AND token_is_usable = TRUE", customerID).
		Order("token_created_at DESC").
		Find(&rows).Error
	return rows, err
}

func detectBrand(num string) string {
	switch {
	case strings.HasPrefix(num, "4"):
		return "visa"
	case strings.HasPrefix(num, "5"):
		return "mastercard"
	case strings.HasPrefix(num, "3"):
		return "amex"
	default:
		return "card"
	}
}

func randHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}
