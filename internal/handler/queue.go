package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/model"
	"github.com/attendo/clinic-queue/internal/repository"
)

// QueueAdminHandler manages queue creation, listing and deactivation.
// Creation and deactivation are admin operations; listing by sector is
// available to every authenticated operator since staff views are
// built from it.
type QueueAdminHandler struct {
	Queues  *repository.QueueRepo
	Tickets *repository.TicketRepo
}

// NewQueueAdminHandler constructs a QueueAdminHandler.
func NewQueueAdminHandler(queues *repository.QueueRepo, tickets *repository.TicketRepo) *QueueAdminHandler {
	if queues == nil || tickets == nil {
		panic("nil repository passed to NewQueueAdminHandler")
	}
	return &QueueAdminHandler{Queues: queues, Tickets: tickets}
}

// Create handles POST /v1/queues.  Queue names are unique inside the
// owning unit; a duplicate returns 409.
func (h *QueueAdminHandler) Create(c echo.Context) error {
	var body struct {
		UnitID   uint64 `json:"unit_id"`
		SectorID uint64 `json:"sector_id"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.UnitID == 0 || body.SectorID == 0 || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_id, sector_id and name are required"})
	}
	// The sector must exist and belong to the same unit.
	sector, err := h.Queues.SectorByID(c.Request().Context(), body.SectorID)
	if err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if sector.UnitID != body.UnitID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sector does not belong to unit"})
	}
	q := &model.Queue{UnitID: body.UnitID, SectorID: body.SectorID, Name: body.Name}
	if err := h.Queues.Create(c.Request().Context(), q); err != nil {
		if errors.Is(err, repository.ErrQueueNameTaken) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create queue"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"queue": q})
}

// ListBySector handles GET /v1/sectors/:id/queues.
func (h *QueueAdminHandler) ListBySector(c echo.Context) error {
	sectorID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sector id"})
	}
	if _, err := h.Queues.SectorByID(c.Request().Context(), sectorID); err != nil {
		if errors.Is(err, repository.ErrSectorNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "sector not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	queues, err := h.Queues.QueuesBySector(c.Request().Context(), sectorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list queues"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": queues})
}

// Deactivate handles DELETE /v1/queues/:id.  A queue that
// still has WAITING tickets cannot be switched off; drain or cancel
// them first.
func (h *QueueAdminHandler) Deactivate(c echo.Context) error {
	queueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	err := h.Queues.Deactivate(c.Request().Context(), queueID, h.Tickets)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrQueueNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "queue not found"})
		case errors.Is(err, repository.ErrQueueHasWaiting):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to deactivate queue"})
	}
	return c.NoContent(http.StatusNoContent)
}
