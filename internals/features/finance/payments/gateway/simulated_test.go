package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func simCharge(number string, amount float64) ChargeRequest {
	return ChargeRequest{
		EnrollmentID: uuid.New(),
		CourseID:     uuid.New(),
		CustomerID:   uuid.New(),
		Amount:       amount,
		Currency:     "USD",
		Card: &CardDetails{
			Number: number, HolderName: "Test Driver", ExpMonth: 1, ExpYear: 2030, CVV: "123",
		},
	}
}

func TestSimulatedGatewayCardRules(t *testing.T) {
	tests := []struct {
		name    string
		number  string
		amount  float64
		wantOK  bool
		wantMsg string
	}{
		{"approved visa", "4242424242424242", 299, true, ""},
		{"declined suffix", "4000000000000002", 299, false, "Card declined"},
		{"insufficient funds", "4000000000009995", 299, false, "Insufficient funds"},
		{"too short", "4242", 299, false, "Invalid card number"},
		{"zero amount", "4242424242424242", 0, false, "invalid amount"},
	}

	g := &SimulatedGateway{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := g.ProcessPayment(context.Background(), simCharge(tt.number, tt.amount))
			if err != nil {
				t.Fatalf("ProcessPayment: %v", err)
			}
			if res.Success != tt.wantOK {
				t.Fatalf("success = %v, want %v (msg %q)", res.Success, tt.wantOK, res.ErrorMessage)
			}
			if tt.wantOK {
				if !strings.HasPrefix(res.TransactionID, "tx_") {
					t.Fatalf("transaction id = %q", res.TransactionID)
				}
				return
			}
			if res.ErrorMessage != tt.wantMsg {
				t.Fatalf("message = %q, want %q", res.ErrorMessage, tt.wantMsg)
			}
			if res.TransactionID != "" {
				t.Fatal("declined charge must not carry a transaction id")
			}
		})
	}
}

func TestSimulatedGatewayNoMethod(t *testing.T) {
	g := &SimulatedGateway{}
	req := simCharge("4242424242424242", 100)
	req.Card = nil

	res, err := g.ProcessPayment(context.Background(), req)
	if err != nil {
		t.Fatalf("ProcessPayment: %v", err)
	}
	if res.Success || res.ErrorMessage != "No payment method provided" {
		t.Fatalf("res = %+v", res)
	}
}

func TestSimulatedGatewayRefund(t *testing.T) {
	g := &SimulatedGateway{}
	ctx := context.Background()

	res, err := g.RefundPayment(ctx, "tx_abc123", 299)
	if err != nil || !res.Success {
		t.Fatalf("refund: %+v, %v", res, err)
	}

	res, err = g.RefundPayment(ctx, "bogus", 299)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if res.Success {
		t.Fatal("unknown transaction must not refund")
	}

	res, err = g.RefundPayment(ctx, "tx_abc123", -1)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if res.Success {
		t.Fatal("negative amount must not refund")
	}
}

func TestDetectBrand(t *testing.T) {
	tests := []struct{ number, want string }{
		{"4242424242424242", "visa"},
		{"5555555555554444", "mastercard"},
		{"371449635398431", "amex"},
		{"6011000990139424", "card"},
	}
	for _, tt := range tests {
		if got := detectBrand(tt.number); got != tt.want {
			t.Errorf("detectBrand(%s) = %s, want %s", tt.number, got, tt.want)
		}
	}
}
