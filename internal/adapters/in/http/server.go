// Package http provides the inbound REST surface of the service.
// Handlers translate between the wire DTOs and the application's commands
// and queries; no business rules live here.
package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CreateOrderHandler accepts new orders.
type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CreateOrderCommand) (commands.CreateOrderResult, error)
}

// CancelOrderHandler cancels pending orders.
type CancelOrderHandler interface {
	Handle(ctx context.Context, cmd commands.CancelOrderCommand) error
}

// GetOrderHandler serves order views.
type GetOrderHandler interface {
	Handle(ctx context.Context, query queries.GetOrderQuery) (queries.GetOrderQueryResponse, error)
}

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler CreateOrderHandler
	cancelOrderHandler CancelOrderHandler
	getOrderHandler    GetOrderHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler CreateOrderHandler,
	cancelOrderHandler CancelOrderHandler,
	getOrderHandler GetOrderHandler,
) *Server {
	return &Server{
		createOrderHandler: createOrderHandler,
		cancelOrderHandler: cancelOrderHandler,
		getOrderHandler:    getOrderHandler,
	}
}

// RegisterRoutes binds the API routes to the echo instance.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/orders", s.CreateOrder)
	e.GET("/api/orders/:ref", s.GetOrder)
	e.POST("/api/orders/:ref/cancel", s.CancelOrder)
}

// CreateOrder handles POST /api/orders - accepts a new order and hands its
// processing job to the queue.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var request CreateOrderRequest
	if err := ctx.Bind(&request); err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	items, err := parseLineItems(request.Items)
	if err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), items, request.Error)
	if err != nil {
		return ctx.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    http.StatusUnprocessableEntity,
			Message: "Invalid order data: " + err.Error(),
		})
	}

	result, err := s.createOrderHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to create order",
		})
	}

	return ctx.JSON(http.StatusCreated, CreateOrderResponse{
		UUID:        result.ExternalRef,
		Status:      wireStatus(result.Status.String()),
		TotalAmount: result.TotalAmount.StringFixed(2),
		CreatedAt:   result.CreatedAt,
	})
}

// GetOrder handles GET /api/orders/:ref - returns the order view with its
// line items and full event history.
func (s *Server) GetOrder(ctx echo.Context) error {
	query, err := queries.NewGetOrderQuery(ctx.Param("ref"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order reference",
		})
	}

	view, err := s.getOrderHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Order not found",
			})
		}
		return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "Failed to retrieve order",
		})
	}

	items := make([]OrderItemResponse, len(view.LineItems))
	for i, item := range view.LineItems {
		items[i] = OrderItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
		}
	}

	events := make([]OrderEventResponse, len(view.Events))
	for i, event := range view.Events {
		events[i] = OrderEventResponse{
			Type:      event.Type,
			CreatedAt: event.CreatedAt,
			Payload:   event.Payload,
		}
	}

	return ctx.JSON(http.StatusOK, OrderResponse{
		UUID:        view.ExternalRef,
		Status:      wireStatus(view.Status),
		TotalAmount: view.TotalAmount.StringFixed(2),
		Items:       items,
		Events:      events,
	})
}

// CancelOrder handles POST /api/orders/:ref/cancel - cancels an order that
// has not started processing yet.
func (s *Server) CancelOrder(ctx echo.Context) error {
	cmd, err := commands.NewCancelOrderCommand(ctx.Param("ref"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "Invalid order reference",
		})
	}

	if err = s.cancelOrderHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
			return ctx.JSON(http.StatusNotFound, ErrorResponse{
				Code:    http.StatusNotFound,
				Message: "Order not found",
			})
		case errors.Is(err, order.ErrInvalidTransition):
			return ctx.JSON(http.StatusConflict, ErrorResponse{
				Code:    http.StatusConflict,
				Message: "Order can no longer be cancelled",
			})
		default:
			return ctx.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "Failed to cancel order",
			})
		}
	}

	return ctx.NoContent(http.StatusNoContent)
}

// wireStatus converts a status name to its lowercase wire form.
func wireStatus(name string) string {
	return strings.ToLower(name)
}

// parseLineItems converts wire items into domain line items, surfacing the
// first validation error encountered.
func parseLineItems(requests []CreateOrderItemRequest) ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(requests))
	for _, request := range requests {
		unitPrice, err := decimal.NewFromString(request.UnitPrice)
		if err != nil {
			return nil, errs.NewValueIsInvalidErrorWithCause("unit_price", err)
		}

		item, err := order.NewLineItem(request.ProductName, request.Quantity, unitPrice)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}
