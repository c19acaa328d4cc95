package http

import (
	"time"
)

// CreateOrderRequest is the intake payload.
// Error optionally names a failure to simulate during processing; it is
// passed through to the business-logic step untouched.
type CreateOrderRequest struct {
	Error string                   `json:"error,omitempty"`
	Items []CreateOrderItemRequest `json:"items"`
}

// CreateOrderItemRequest is one line item of the intake payload.
// The unit price travels as a string to keep decimal amounts exact in JSON.
type CreateOrderItemRequest struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CreateOrderResponse is returned on successful intake.
type CreateOrderResponse struct {
	UUID        string    `json:"uuid"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderResponse is the full view of one order.
type OrderResponse struct {
	UUID        string               `json:"uuid"`
	Status      string               `json:"status"`
	TotalAmount string               `json:"total_amount"`
	Items       []OrderItemResponse  `json:"items"`
	Events      []OrderEventResponse `json:"events"`
}

// OrderItemResponse is one line item of an order view.
type OrderItemResponse struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// OrderEventResponse is one lifecycle event of an order view.
type OrderEventResponse struct {
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
