package gateway

import (
	"log"

	"gorm.io/gorm"

	"kartacademy_backend/internals/configs"
	"kartacademy_backend/internals/features/finance/payments/model"
)

// FromConfig picks the gateway adapter from PAYMENT_GATEWAY_PROVIDER.
func FromConfig(db *gorm.DB) PaymentGateway {
	switch configs.PaymentGatewayProvider {
	case model.GatewayProviderMidtrans:
		log.Println("[PAYMENTS] gateway: midtrans")
		return NewMidtransGateway(db, configs.MidtransServerKey, configs.MidtransUseProd)
	default:
		log.Println("[PAYMENTS] gateway: simulated")
		return NewSimulatedGateway(db)
	}
}
