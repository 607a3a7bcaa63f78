package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

const idempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// CreateOrder --> POST /api/orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	in := entity.CreateOrderInput{}
	if err := c.Bind(&in); err != nil {
		return invalidPayload(c)
	}

	key := c.Request().Header.Get(idempotencyHeader)
	order, replayed, err := h.orderService.CreateIdempotent(c.Request().Context(), key, in)
	if err != nil {
		return respondError(c, err)
	}

	code := http.StatusCreated
	if replayed {
		code = http.StatusOK
	}
	return c.JSON(code, map[string]any{
		"message": "Order created successfully!",
		"order":   order,
	})
}

// GetOrder --> GET /api/orders/:order_number
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderService.GetByNumber(c.Request().Context(), c.Param("order_number"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders --> GET /api/orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// UpdateOrder --> PUT /api/orders/:id
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	patch := entity.OrderPatch{}
	if err := c.Bind(&patch); err != nil {
		return invalidPayload(c)
	}

	order, err := h.orderService.Update(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CancelOrder --> DELETE /api/orders/:id
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	if _, err := h.orderService.Cancel(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Order cancelled successfully"})
}

// Stats --> GET /api/stats
func (h *OrderHandler) Stats(c echo.Context) error {
	stats, err := h.orderService.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}
