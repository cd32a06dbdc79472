// internal/services/payment_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/harvestdirect/backend/internal/config"
	"github.com/harvestdirect/backend/internal/models"
)

var decimalHundred = decimal.NewFromInt(100)

// PaymentService fronts Stripe for order payments. All payment status
// writes go through the fulfillment engine so the ledger has one owner.
type PaymentService struct {
	orderService *OrderService
	config       *config.Config
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

func NewPaymentService(orderService *OrderService, cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		orderService: orderService,
		config:       cfg,
	}
}

func (s *PaymentService) CreatePaymentIntent(buyerID, orderID uuid.UUID) (*PaymentIntentResponse, error) {
	order, err := s.orderService.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, ErrUnauthorized
	}
	if order.PaymentStatus == models.PaymentStatusCompleted {
		return nil, errors.New("order is already paid")
	}

	// Stripe amounts are integer cents.
	amountInCents := order.TotalAmount.Mul(decimalHundred).IntPart()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(s.config.Payment.Currency),
	}
	params.AddMetadata("order_id", order.ID.String())
	params.AddMetadata("buyer_id", buyerID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment maps the payment intent's terminal status onto the
// order's payment status.
func (s *PaymentService) ConfirmPayment(buyerID, orderID uuid.UUID, paymentIntentID string) (*models.Order, error) {
	order, err := s.orderService.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, ErrUnauthorized
	}

	pi, err := paymentintent.Get(paymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		return s.orderService.UpdatePaymentStatus(orderID, models.PaymentStatusCompleted)
	case stripe.PaymentIntentStatusRequiresAction,
		stripe.PaymentIntentStatusRequiresConfirmation,
		stripe.PaymentIntentStatusRequiresPaymentMethod,
		stripe.PaymentIntentStatusProcessing:
		return order, nil
	default:
		return s.orderService.UpdatePaymentStatus(orderID, models.PaymentStatusFailed)
	}
}

// RefundOrder refunds a completed payment in full through Stripe and
// marks the order REFUNDED.
func (s *PaymentService) RefundOrder(orderID uuid.UUID, paymentIntentID string) (*models.Order, error) {
	order, err := s.orderService.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentStatusCompleted {
		return nil, errors.New("can only refund completed payments")
	}

	if paymentIntentID != "" {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(paymentIntentID),
			Reason:        stripe.String("requested_by_customer"),
		}
		if _, err := refund.New(params); err != nil {
			return nil, fmt.Errorf("failed to process refund: %w", err)
		}
	}

	return s.orderService.UpdatePaymentStatus(orderID, models.PaymentStatusRefunded)
}
