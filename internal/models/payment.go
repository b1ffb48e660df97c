package models

import "time"

// IntentStatus tracks a gateway order from creation to capture.
type IntentStatus string

const (
	IntentStatusCreated IntentStatus = "created"
	IntentStatusPaid    IntentStatus = "paid"
)

// PaymentIntent is the local record of a gateway order. Amount is in minor
// currency units.
type PaymentIntent struct {
	IntentID  string            `json:"intentId"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Notes     map[string]string `json:"notes,omitempty"`
	Status    IntentStatus      `json:"status"`
	PaymentID string            `json:"paymentId,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// CreateIntentRequest is the /razorpay/order body. Amount is in major units.
type CreateIntentRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

// CreateIntentResponse mirrors the gateway order. OrderID repeats IntentID
// under the name checkout widgets read.
type CreateIntentResponse struct {
	IntentID string `json:"intentId"`
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status"`
}

// VerifyPaymentRequest is the checkout callback payload.
type VerifyPaymentRequest struct {
	IntentID  string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type VerifyPaymentResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// GatewayOrder is the subset of a Razorpay order the service reads.
type GatewayOrder struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}
