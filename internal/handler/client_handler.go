package handler

import (
	"net/http"

	"order-service/internal/service"
	"order-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClientHandler serves /api/clients
type ClientHandler struct {
	clients *service.ClientService
}

func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

func (h *ClientHandler) List(c echo.Context) error {
	clients, err := h.clients.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Error al obtener los clientes")
	}
	return c.JSON(http.StatusOK, clients)
}

func (h *ClientHandler) Get(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	client, err := h.clients.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Error al obtener el cliente")
	}
	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.ClientInput
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid client payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	client, err := h.clients.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Error al crear el cliente")
	}
	return c.JSON(http.StatusCreated, client)
}

func (h *ClientHandler) Update(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}

	var req service.ClientPatch
	if err := c.Bind(&req); err != nil {
		logger.FromContext(c).Warn("Invalid client payload", zap.Error(err))
		return badRequest(c, "Datos incompletos o inválidos")
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, service.InputError(&req, err), "Datos incompletos o inválidos")
	}

	client, err := h.clients.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Error al actualizar el cliente")
	}
	return c.JSON(http.StatusOK, client)
}

func (h *ClientHandler) Delete(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "ID inválido")
	}
	if err := h.clients.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "Error al eliminar el cliente")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cliente eliminado correctamente"})
}
