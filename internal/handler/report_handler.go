package handler

import (
	"net/http"

	"order-service/internal/service"

	"github.com/labstack/echo/v4"
)

// ReportHandler serves /api/reports
type ReportHandler struct {
	reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func dateRange(c echo.Context) (service.DateRange, error) {
	return service.ParseDateRange(c.QueryParam("desde"), c.QueryParam("hasta"))
}

// Sales handles GET /ventas
func (h *ReportHandler) Sales(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respondError(c, err, "Fechas inválidas")
	}
	report, err := h.reports.Sales(c.Request().Context(), r)
	if err != nil {
		return respondError(c, err, "Error al generar el reporte de ventas")
	}
	return c.JSON(http.StatusOK, report)
}

// SalesByProduct handles GET /ventas-producto
func (h *ReportHandler) SalesByProduct(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respondError(c, err, "Fechas inválidas")
	}
	rows, err := h.reports.SalesByProduct(c.Request().Context(), r)
	if err != nil {
		return respondError(c, err, "Error al generar el reporte de ventas por producto")
	}
	return c.JSON(http.StatusOK, rows)
}

// SalesByClient handles GET /ventas-cliente
func (h *ReportHandler) SalesByClient(c echo.Context) error {
	r, err := dateRange(c)
	if err != nil {
		return respondError(c, err, "Fechas inválidas")
	}
	rows, err := h.reports.SalesByClient(c.Request().Context(), r)
	if err != nil {
		return respondError(c, err, "Error al generar el reporte de ventas por cliente")
	}
	return c.JSON(http.StatusOK, rows)
}

// Summary handles GET /resumen
func (h *ReportHandler) Summary(c echo.Context) error {
	summary, err := h.reports.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al generar el resumen")
	}
	return c.JSON(http.StatusOK, summary)
}
