package models

import "time"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// orderTransitions lists the statuses reachable from each status.
// Delivered and Cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsValid reports whether s is one of the known statuses.
func (s OrderStatus) IsValid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether an order in status s may move to next.
// Re-applying the current status is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DeliveryInfo is the shipping contact captured at checkout.
type DeliveryInfo struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country,omitempty"`
}

// OrderItem is one product line in an order snapshot.
type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Order is the durable record of a payment-verified purchase.
type Order struct {
	OrderID      string       `json:"orderId"`
	UserID       string       `json:"userId"`
	IntentID     string       `json:"intentId,omitempty"`
	PaymentID    string       `json:"paymentId"`
	DeliveryInfo DeliveryInfo `json:"deliveryInfo"`
	TotalCost    float64      `json:"totalCost"`
	Items        []OrderItem  `json:"items"`
	Status       OrderStatus  `json:"status"`
	OrderDate    time.Time    `json:"orderDate"`
	PaymentDate  time.Time    `json:"paymentDate"`
}

// CreateOrderRequest is the /saveorder body sent after a verified payment.
type CreateOrderRequest struct {
	PaymentID    string       `json:"paymentId"`
	IntentID     string       `json:"intentId"`
	DeliveryInfo DeliveryInfo `json:"deliveryInfo"`
	TotalCost    float64      `json:"totalCost"`
	Items        Quantities   `json:"items"`
	PaymentDate  *time.Time   `json:"paymentDate"`
}

// UpdateOrderStatusRequest is the admin status update body.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status"`
}

// OrderListFilter narrows an order listing. An empty UserID lists all orders.
type OrderListFilter struct {
	UserID string
}
