package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/attendo/clinic-queue/internal/repository"
	"github.com/attendo/clinic-queue/internal/service"
)

// DispatchHandler exposes the dispatch engine over HTTP.  All routes
// except the public panel snapshot require an authenticated operator;
// the operator id for call-next comes from the JWT, never the body.
type DispatchHandler struct {
	Dispatcher *service.Dispatcher
}

// NewDispatchHandler constructs a DispatchHandler.
func NewDispatchHandler(d *service.Dispatcher) *DispatchHandler {
	if d == nil {
		panic("nil dispatcher passed to NewDispatchHandler")
	}
	return &DispatchHandler{Dispatcher: d}
}

// operatorID extracts the authenticated operator id stored by the JWT
// middleware.
func operatorID(c echo.Context) (uint64, error) {
	id, ok := c.Get("operator_id").(uint64)
	if !ok || id == 0 {
		return 0, errors.New("no operator in context")
	}
	return id, nil
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id != 0
}

// dispatchError translates engine and repository errors into HTTP
// responses: resolution failures and empty queues map to 404, state
// conflicts to 409, illegal transitions to 422.
func dispatchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrQueueNotFound),
		errors.Is(err, repository.ErrSectorNotFound),
		errors.Is(err, repository.ErrCustomerNotFound),
		errors.Is(err, repository.ErrOperatorNotFound),
		errors.Is(err, repository.ErrTicketNotFound),
		errors.Is(err, service.ErrNothingWaiting):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyWaiting),
		errors.Is(err, service.ErrQueueInactive):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrTicketNotCalled),
		errors.Is(err, service.ErrTicketFinished):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("dispatch: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// Admit handles POST /v1/tickets.  It enters a customer into a queue
// and returns the created WAITING ticket.
func (h *DispatchHandler) Admit(c echo.Context) error {
	var req service.AdmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.CustomerID == 0 || req.QueueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "customer_id and queue_id are required"})
	}
	t, err := h.Dispatcher.Admit(c.Request().Context(), req)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket": t})
}

// CallNext handles POST /v1/queues/:id/call-next.  The body carries
// the counter or room label the customer should walk to.
func (h *DispatchHandler) CallNext(c echo.Context) error {
	opID, err := operatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	queueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	var body struct {
		CounterLabel string `json:"counter_label"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.CounterLabel == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "counter_label is required"})
	}
	t, err := h.Dispatcher.CallNext(c.Request().Context(), queueID, opID, body.CounterLabel)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// Finalize handles POST /v1/tickets/:id/finalize.
func (h *DispatchHandler) Finalize(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	t, err := h.Dispatcher.Finalize(c.Request().Context(), ticketID)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// Cancel handles POST /v1/tickets/:id/cancel.
func (h *DispatchHandler) Cancel(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	t, err := h.Dispatcher.Cancel(c.Request().Context(), ticketID)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket": t})
}

// Forward handles POST /v1/tickets/:id/forward.  It finalizes the
// origin ticket and admits the same customer into the destination
// queue from the request body.
func (h *DispatchHandler) Forward(c echo.Context) error {
	ticketID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var dest service.AdmitRequest
	if err := c.Bind(&dest); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if dest.QueueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "queue_id is required"})
	}
	t, err := h.Dispatcher.Forward(c.Request().Context(), ticketID, dest)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ticket": t})
}

// WaitingList handles GET /v1/queues/:id/tickets.  It returns the
// queue's WAITING tickets in call order.
func (h *DispatchHandler) WaitingList(c echo.Context) error {
	queueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	list, err := h.Dispatcher.WaitingList(c.Request().Context(), queueID)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": list})
}

// Panel handles GET /v1/queues/:id/panel.  It is public: displays that
// just connected fetch the current snapshot here and then follow the
// broadcast topic for changes.
func (h *DispatchHandler) Panel(c echo.Context) error {
	queueID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid queue id"})
	}
	u, err := h.Dispatcher.PanelSnapshot(c.Request().Context(), queueID)
	if err != nil {
		return dispatchError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}
