package handler

import (
	"net/http"

	"order-service/internal/service"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductHandler serves /api/products
type ProductHandler struct {
	products *service.ProductService
}

func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.products.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al obtener los productos")
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Error al obtener el producto")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Invalid product payload", zap.Error(err))
		return badRequest(c, "Nombre y precio son requeridos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	product, err := h.products.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al crear el producto")
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}

	var req service.ProductPatch
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Invalid product payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	product, err := h.products.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Error al actualizar el producto")
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Error al eliminar el producto")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Producto eliminado correctamente"})
}
