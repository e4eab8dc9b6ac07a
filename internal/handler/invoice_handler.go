package handler

import (
	"net/http"

	"order-service/internal/service"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// InvoiceHandler serves /api/invoices
type InvoiceHandler struct {
	invoices *service.InvoiceService
	emails   *service.EmailService
}

func NewInvoiceHandler(invoices *service.InvoiceService, emails *service.EmailService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, emails: emails}
}

func (h *InvoiceHandler) List(c echo.Context) error {
	invoices, err := h.invoices.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al obtener las facturas")
	}
	return c.JSON(http.StatusOK, invoices)
}

func (h *InvoiceHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	invoice, err := h.invoices.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Error al obtener la factura")
	}
	return c.JSON(http.StatusOK, invoice)
}

// Generate issues an invoice for an order that has none
func (h *InvoiceHandler) Generate(c echo.Context) error {
	var req service.GenerateInvoiceInput
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Invalid invoice payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}

	invoice, err := h.invoices.Generate(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al generar la factura")
	}
	return c.JSON(http.StatusCreated, invoice)
}

// Send emails an existing invoice to its client again
func (h *InvoiceHandler) Send(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}

	entry, err := h.emails.ResendInvoice(c.Request().Context(), id)
	if err != nil {
		if entry != nil {
			// Delivery failed but was logged
			logger.FromContext(c).Warn("Invoice email failed", zap.Uint("invoice_id", id), zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{
				"message": "No se pudo enviar la factura",
				"log":     entry,
			})
		}
		return respondError(c, err, "Error al enviar la factura")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Factura enviada correctamente",
		"log":     entry,
	})
}
