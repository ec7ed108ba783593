package gateway

import (
	"context"
	"math"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"gorm.io/gorm"

	"kartacademy_backend/internals/features/finance/payments/model"
)

// MidtransGateway charges through the Midtrans Core API. Card data must be
// tokenized client-side (MidtransJS); req.Card is therefore rejected here and
// req.TokenID refers to a stored gateway token.
type MidtransGateway struct {
	DB     *gorm.DB
	Client coreapi.Client
}

func NewMidtransGateway(db *gorm.DB, serverKey string, useProduction bool) *MidtransGateway {
	g := &MidtransGateway{DB: db}
	env := midtrans.Sandbox
	if useProduction {
		env = midtrans.Production
	}
	g.Client.New(serverKey, env)
	return g
}

func (g *MidtransGateway) ProcessPayment(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Card != nil {
		return ChargeResult{ErrorMessage: "Raw card data is not accepted for this gateway; tokenize first"}, nil
	}
	if req.TokenID == nil {
		return ChargeResult{ErrorMessage: "No payment method provided"}, nil
	}

	var tok model.PaymentToken
	if err := g.DB.WithContext(ctx).
		First(&tok, "token_id = ? AND token_customer_id = ? AND token_is_usable = TRUE", req.TokenID, req.CustomerID).Error; err != nil {
		return ChargeResult{ErrorMessage: "Saved card not found"}, nil
	}

	charge := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.EnrollmentID.String(),
			GrossAmt: int64(math.Round(req.Amount)),
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID:        tok.TokenGatewayRef,
			Authentication: true,
		},
		Items: &[]midtrans.ItemDetails{{
			ID:    req.CourseID.String(),
			Price: int64(math.Round(req.Amount)),
			Qty:   1,
			Name:  truncate(req.CourseName, 50),
		}},
	}

	resp, err := g.Client.ChargeTransaction(charge)
	if err != nil {
		return ChargeResult{ErrorMessage: err.Message}, nil
	}

	switch resp.TransactionStatus {
	case "capture", "settlement":
		return ChargeResult{Success: true, TransactionID: resp.TransactionID}, nil
	case "pending":
		return ChargeResult{ErrorMessage: "Payment is pending confirmation at the gateway"}, nil
	default:
		msg := resp.StatusMessage
		if msg == "" {
			msg = "Payment was declined"
		}
		return ChargeResult{ErrorMessage: msg}, nil
	}
}

func (g *MidtransGateway) RefundPayment(ctx context.Context, transactionID string, amount float64) (RefundResult, error) {
	resp, err := g.Client.RefundTransaction(transactionID, &coreapi.RefundReq{
		Amount: int64(math.Round(amount)),
		Reason: "admin refund",
	})
	if err != nil {
		return RefundResult{ErrorMessage: err.Message}, nil
	}
	if resp.StatusCode != "200" {
		return RefundResult{ErrorMessage: resp.StatusMessage}, nil
	}
	return RefundResult{Success: true}, nil
}

func (g *MidtransGateway) ListStoredPaymentMethods(ctx context.Context, customerID uuid.UUID) ([]model.PaymentToken, error) {
	var rows []model.PaymentToken
	err := g.DB.WithContext(ctx).
		Where("token_customer_id = ? AND token_is_usable = TRUE", customerID).
		Order("token_created_at DESC").
		Find(&rows).Error
	return rows, err
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
