package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/LeslieKogi/sunrise-backend/internal/entity"
	"github.com/LeslieKogi/sunrise-backend/internal/service"
)

type FlavourHandler struct {
	flavourService *service.FlavourService
}

func NewFlavourHandler(flavourService *service.FlavourService) *FlavourHandler {
	return &FlavourHandler{flavourService: flavourService}
}

func pathID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListFlavours --> GET /api/flavours
func (h *FlavourHandler) ListFlavours(c echo.Context) error {
	flavours, err := h.flavourService.ListAvailable(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, flavours)
}

// ListAllFlavours --> GET /api/flavours/all
func (h *FlavourHandler) ListAllFlavours(c echo.Context) error {
	flavours, err := h.flavourService.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, flavours)
}

// GetFlavour --> GET /api/flavours/:id
func (h *FlavourHandler) GetFlavour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	flavour, err := h.flavourService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, flavour)
}

// CreateFlavour --> POST /api/flavours
func (h *FlavourHandler) CreateFlavour(c echo.Context) error {
	in := entity.FlavourInput{}
	if err := c.Bind(&in); err != nil {
		return invalidPayload(c)
	}

	flavour, err := h.flavourService.Create(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Flavour created successfully",
		"flavour": flavour,
	})
}

// UpdateFlavour --> PUT /api/flavours/:id
func (h *FlavourHandler) UpdateFlavour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	patch := entity.FlavourPatch{}
	if err := c.Bind(&patch); err != nil {
		return invalidPayload(c)
	}

	flavour, err := h.flavourService.Update(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, flavour)
}

// DeleteFlavour --> DELETE /api/flavours/:id
func (h *FlavourHandler) DeleteFlavour(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "Invalid ID")
	}
	if err := h.flavourService.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Flavour deleted successfully"})
}
