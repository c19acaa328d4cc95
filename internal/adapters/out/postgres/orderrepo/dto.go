// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"encoding/json"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Line items and events live in child tables keyed by the order id; both are
// written through the aggregate, never independently.
type OrderDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ExternalRef string          `gorm:"type:uuid;uniqueIndex"`
	Status      int             `gorm:"index"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2)"`
	CreatedAt   time.Time       `gorm:"index"`
	LineItems   []LineItemDTO   `gorm:"foreignKey:OrderID;references:ID"`
	Events      []EventDTO      `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName specifies the database table name for order entities.
// Overrides GORM's default naming convention to use "orders".
func (OrderDTO) TableName() string {
	return "orders"
}

// LineItemDTO represents one order line in the database.
// Rows are immutable after intake; the serial primary key preserves the
// original item order.
type LineItemDTO struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	OrderID     uuid.UUID `gorm:"type:uuid;index"`
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal `gorm:"type:numeric(14,2)"`
}

// TableName specifies the database table name for order line items.
func (LineItemDTO) TableName() string {
	return "order_line_items"
}

// EventDTO represents one lifecycle event in the database.
// The table is append-only: rows are inserted when their order transitions
// and never updated or deleted. The serial primary key preserves append
// order even for events sharing a timestamp.
type EventDTO struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"type:uuid;index"`
	EventType string
	CreatedAt time.Time
	Payload   []byte `gorm:"type:jsonb"`
}

// TableName specifies the database table name for order events.
func (EventDTO) TableName() string {
	return "order_events"
}

// fromDomain converts an order domain aggregate to its database representation.
// The order-level CreatedAt mirrors the timestamp of the creation event so
// the enqueue sweep can filter on order age without joining the event table.
func fromDomain(aggregate *order.Order) (OrderDTO, error) {
	id := aggregate.ID().Bytes()
	events := aggregate.Events()

	eventDTOs := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dto, err := eventFromDomain(id, event)
		if err != nil {
			return OrderDTO{}, err
		}
		eventDTOs = append(eventDTOs, dto)
	}

	items := aggregate.LineItems()
	itemDTOs := make([]LineItemDTO, 0, len(items))
	for _, item := range items {
		itemDTOs = append(itemDTOs, LineItemDTO{
			OrderID:     id,
			ProductName: item.ProductName(),
			Quantity:    item.Quantity(),
			UnitPrice:   item.UnitPrice(),
		})
	}

	return OrderDTO{
		ID:          id,
		ExternalRef: aggregate.ExternalRef(),
		Status:      int(aggregate.Status()),
		TotalAmount: aggregate.TotalAmount(),
		CreatedAt:   events[0].CreatedAt(),
		LineItems:   itemDTOs,
		Events:      eventDTOs,
	}, nil
}

func eventFromDomain(orderID uuid.UUID, event order.Event) (EventDTO, error) {
	var payload []byte
	if p := event.Payload(); p != nil {
		raw, err := json.Marshal(p)
		if err != nil {
			return EventDTO{}, err
		}
		payload = raw
	}

	return EventDTO{
		OrderID:   orderID,
		EventType: event.Type().String(),
		CreatedAt: event.CreatedAt(),
		Payload:   payload,
	}, nil
}

// toDomain converts a database DTO to an order domain aggregate.
// Reconstructs the complete aggregate including the event log using RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.LineItems))
	for _, itemDTO := range dto.LineItems {
		item, itemErr := order.NewLineItem(itemDTO.ProductName, itemDTO.Quantity, itemDTO.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	events := make([]order.Event, 0, len(dto.Events))
	for _, eventDTO := range dto.Events {
		event, eventErr := eventToDomain(eventDTO)
		if eventErr != nil {
			return nil, eventErr
		}
		events = append(events, event)
	}

	return order.RestoreOrder(id, dto.ExternalRef, items, events, order.Status(dto.Status), dto.TotalAmount)
}

func eventToDomain(dto EventDTO) (order.Event, error) {
	eventType, err := order.EventTypeFromString(dto.EventType)
	if err != nil {
		return order.Event{}, err
	}

	var payload map[string]any
	if len(dto.Payload) > 0 {
		if err = json.Unmarshal(dto.Payload, &payload); err != nil {
			return order.Event{}, err
		}
	}

	return order.RestoreEvent(eventType, dto.CreatedAt, payload)
}
