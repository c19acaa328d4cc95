package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCreateOrderHandler struct {
	receivedCmd commands.CreateOrderCommand
	result      commands.CreateOrderResult
	err         error
}

func (s *stubCreateOrderHandler) Handle(
	_ context.Context, cmd commands.CreateOrderCommand,
) (commands.CreateOrderResult, error) {
	s.receivedCmd = cmd
	return s.result, s.err
}

type stubCancelOrderHandler struct {
	receivedCmd commands.CancelOrderCommand
	err         error
}

func (s *stubCancelOrderHandler) Handle(_ context.Context, cmd commands.CancelOrderCommand) error {
	s.receivedCmd = cmd
	return s.err
}

type stubGetOrderHandler struct {
	receivedQuery queries.GetOrderQuery
	response      queries.GetOrderQueryResponse
	err           error
}

func (s *stubGetOrderHandler) Handle(
	_ context.Context, query queries.GetOrderQuery,
) (queries.GetOrderQueryResponse, error) {
	s.receivedQuery = query
	return s.response, s.err
}

type serverFixture struct {
	echo    *echo.Echo
	create  *stubCreateOrderHandler
	cancel  *stubCancelOrderHandler
	getView *stubGetOrderHandler
}

func newServerFixture() serverFixture {
	create := &stubCreateOrderHandler{}
	cancel := &stubCancelOrderHandler{}
	getView := &stubGetOrderHandler{}

	e := echo.New()
	NewServer(create, cancel, getView).RegisterRoutes(e)

	return serverFixture{echo: e, create: create, cancel: cancel, getView: getView}
}

func (f serverFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder_Created(t *testing.T) {
	f := newServerFixture()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.create.result = commands.CreateOrderResult{
		ExternalRef: "5f4c7a1e-9a44-4c1e-8f5d-2b3a1c9d0e7f",
		Status:      order.Pending,
		TotalAmount: decimal.RequireFromString("21.97"),
		CreatedAt:   createdAt,
	}

	rec := f.do(http.MethodPost, "/api/orders", `{
		"items": [
			{"product_name": "Widget", "quantity": 2, "unit_price": "9.99"},
			{"product_name": "Gadget", "quantity": 1, "unit_price": "1.99"}
		]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)

	var response CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "5f4c7a1e-9a44-4c1e-8f5d-2b3a1c9d0e7f", response.UUID)
	assert.Equal(t, "pending", response.Status)
	assert.Equal(t, "21.97", response.TotalAmount)
	assert.True(t, createdAt.Equal(response.CreatedAt))

	require.NoError(t, f.create.receivedCmd.Validate())
	assert.Len(t, f.create.receivedCmd.LineItems(), 2)
	assert.Empty(t, f.create.receivedCmd.FailureDirective())
}

func TestCreateOrder_PassesFailureDirective(t *testing.T) {
	f := newServerFixture()
	f.create.result = commands.CreateOrderResult{Status: order.Pending}

	rec := f.do(http.MethodPost, "/api/orders", `{
		"error": "business",
		"items": [{"product_name": "Widget", "quantity": 1, "unit_price": "5.00"}]
	}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "business", f.create.receivedCmd.FailureDirective())
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	f := newServerFixture()

	rec := f.do(http.MethodPost, "/api/orders", `{"items": not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_InvalidUnitPrice(t *testing.T) {
	f := newServerFixture()

	rec := f.do(http.MethodPost, "/api/orders", `{
		"items": [{"product_name": "Widget", "quantity": 1, "unit_price": "cheap"}]
	}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusUnprocessableEntity, response.Code)
	assert.Contains(t, response.Message, "unit_price")
}

func TestCreateOrder_NoItems(t *testing.T) {
	f := newServerFixture()

	rec := f.do(http.MethodPost, "/api/orders", `{"items": []}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCreateOrder_HandlerError(t *testing.T) {
	f := newServerFixture()
	f.create.err = errors.New("db down")

	rec := f.do(http.MethodPost, "/api/orders", `{
		"items": [{"product_name": "Widget", "quantity": 1, "unit_price": "5.00"}]
	}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetOrder_Found(t *testing.T) {
	f := newServerFixture()
	createdAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.getView.response = queries.GetOrderQueryResponse{
		ExternalRef: "5f4c7a1e-9a44-4c1e-8f5d-2b3a1c9d0e7f",
		Status:      "Completed",
		TotalAmount: decimal.RequireFromString("9.99"),
		LineItems: []queries.LineItemResponse{
			{ProductName: "Widget", Quantity: 1, UnitPrice: decimal.RequireFromString("9.99")},
		},
		Events: []queries.EventResponse{
			{Type: "order_created", CreatedAt: createdAt},
			{Type: "processing_started", CreatedAt: createdAt.Add(time.Second)},
			{Type: "order_completed", CreatedAt: createdAt.Add(2 * time.Second)},
		},
	}

	rec := f.do(http.MethodGet, "/api/orders/5f4c7a1e-9a44-4c1e-8f5d-2b3a1c9d0e7f", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var response OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "completed", response.Status)
	assert.Equal(t, "9.99", response.TotalAmount)
	require.Len(t, response.Items, 1)
	assert.Equal(t, "Widget", response.Items[0].ProductName)
	assert.Equal(t, "9.99", response.Items[0].UnitPrice)
	require.Len(t, response.Events, 3)
	assert.Equal(t, "order_created", response.Events[0].Type)
	assert.Equal(t, "order_completed", response.Events[2].Type)

	assert.Equal(t, "5f4c7a1e-9a44-4c1e-8f5d-2b3a1c9d0e7f", f.getView.receivedQuery.ExternalRef())
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newServerFixture()
	f.getView.err = errs.NewObjectNotFoundError("externalRef", "missing")

	rec := f.do(http.MethodGet, "/api/orders/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetOrder_HandlerError(t *testing.T) {
	f := newServerFixture()
	f.getView.err = errors.New("db down")

	rec := f.do(http.MethodGet, "/api/orders/some-ref", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCancelOrder_NoContent(t *testing.T) {
	f := newServerFixture()

	rec := f.do(http.MethodPost, "/api/orders/some-ref/cancel", "")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "some-ref", f.cancel.receivedCmd.ExternalRef())
}

func TestCancelOrder_NotFound(t *testing.T) {
	f := newServerFixture()
	f.cancel.err = errs.NewObjectNotFoundError("externalRef", "some-ref")

	rec := f.do(http.MethodPost, "/api/orders/some-ref/cancel", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder_AlreadyProcessing(t *testing.T) {
	f := newServerFixture()
	f.cancel.err = order.NewInvalidTransitionError(order.Processing, order.Cancelled)

	rec := f.do(http.MethodPost, "/api/orders/some-ref/cancel", "")

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrder_HandlerError(t *testing.T) {
	f := newServerFixture()
	f.cancel.err = errors.New("db down")

	rec := f.do(http.MethodPost, "/api/orders/some-ref/cancel", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
