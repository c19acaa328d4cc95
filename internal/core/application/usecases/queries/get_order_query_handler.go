package queries

import (
	"context"
	"encoding/json"

	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads order views straight from the database,
// bypassing the aggregate. The write model never depends on this read path.
type GetOrderQueryHandler struct {
	db *gorm.DB
}

// NewGetOrderQueryHandler creates a handler for order view queries.
// Requires a GORM database connection for query execution.
func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db}
}

// Handle executes the query and assembles the order view.
// Returns errs.ObjectNotFoundError when no order has the given reference.
// Line items and events are returned in insertion order, which for events is
// also lifecycle order.
func (h GetOrderQueryHandler) Handle(
	ctx context.Context,
	query GetOrderQuery,
) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	var head struct {
		ID          uuid.UUID
		Status      int
		TotalAmount decimal.Decimal
	}
	err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			total_amount
		FROM orders
		WHERE external_ref = ?
	`, query.ExternalRef()).Scan(&head).Error
	if err != nil {
		return GetOrderQueryResponse{}, err
	}
	if head.ID == uuid.Nil {
		return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("externalRef", query.ExternalRef())
	}

	response := GetOrderQueryResponse{
		ExternalRef: query.ExternalRef(),
		Status:      order.Status(head.Status).String(),
		TotalAmount: head.TotalAmount,
		LineItems:   make([]LineItemResponse, 0),
		Events:      make([]EventResponse, 0),
	}

	if response.LineItems, err = h.readLineItems(ctx, head.ID); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if response.Events, err = h.readEvents(ctx, head.ID); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return response, nil
}

func (h GetOrderQueryHandler) readLineItems(
	ctx context.Context,
	orderID uuid.UUID,
) ([]LineItemResponse, error) {
	items := make([]LineItemResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			product_name,
			quantity,
			unit_price
		FROM order_line_items
		WHERE order_id = ?
		ORDER BY id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item LineItemResponse
		if err = rows.Scan(&item.ProductName, &item.Quantity, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (h GetOrderQueryHandler) readEvents(
	ctx context.Context,
	orderID uuid.UUID,
) ([]EventResponse, error) {
	events := make([]EventResponse, 0)

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			event_type,
			created_at,
			payload
		FROM order_events
		WHERE order_id = ?
		ORDER BY id
	`, orderID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var event EventResponse
		var payload []byte
		if err = rows.Scan(&event.Type, &event.CreatedAt, &payload); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err = json.Unmarshal(payload, &event.Payload); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}

	return events, rows.Err()
}
