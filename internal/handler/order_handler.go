package handler

import (
	"net/http"

	"order-service/internal/service"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OrderHandler serves /api/orders
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orders.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al obtener las órdenes")
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	order, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Error al obtener la orden")
	}
	return c.JSON(http.StatusOK, order)
}

// Create places an order and returns it together with its invoice
func (h *OrderHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.CreateOrderInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid order payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}
	log.Info("Order creation request",
		zap.Uint("client_id", req.ClientID),
		zap.Int("lines", len(req.Products)))

	order, invoice, err := h.orders.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al crear la orden")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"order":   order,
		"invoice": invoice,
	})
}

func (h *OrderHandler) Update(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}

	var req service.UpdateOrderInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Invalid order payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	order, err := h.orders.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Error al actualizar la orden")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	if err := h.orders.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Error al eliminar la orden")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Orden eliminada correctamente"})
}
