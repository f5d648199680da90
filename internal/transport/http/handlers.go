package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/service/booking"
	"agenda/backend/internal/store"
)

type bookingService interface {
	Create(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error)
	Update(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error)
	Delete(ctx context.Context, kind domain.BookingKind, id uuid.UUID) error
	List(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error)
}

// BookingHandler serves one booking kind; quotes and schedules share every
// code path and differ only in the kind passed to the service.
type BookingHandler struct {
	svc  bookingService
	kind domain.BookingKind
	log  *slog.Logger
}

func NewBookingHandler(svc bookingService, kind domain.BookingKind, log *slog.Logger) *BookingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &BookingHandler{
		svc:  svc,
		kind: kind,
		log:  log.With(slog.String("component", "http."+string(kind)+"s")),
	}
}

type createRequest struct {
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime"`
	OwnerID   string   `json:"ownerId"`
	ClientID  string   `json:"clientId"`
	Day       int      `json:"day"`
	Month     int      `json:"month"`
	Year      int      `json:"year"`
	Status    *bool    `json:"status"`
	Default   bool     `json:"default"`
	Products  []string `json:"products"`
}

type updateRequest struct {
	StartTime *string  `json:"startTime"`
	EndTime   *string  `json:"endTime"`
	OwnerID   *string  `json:"ownerId"`
	ClientID  *string  `json:"clientId"`
	Day       *int     `json:"day"`
	Month     *int     `json:"month"`
	Year      *int     `json:"year"`
	Status    *bool    `json:"status"`
	Products  []string `json:"products"`
}

func (h *BookingHandler) List(c *gin.Context) {
	ownerID, ok := h.parseOwnerQuery(c)
	if !ok {
		return
	}

	list, err := h.svc.List(c.Request.Context(), h.kind, ownerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		string(h.kind) + "s": list,
		"status":             http.StatusOK,
	})
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	in := booking.CreateInput{
		Kind:      h.kind,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Date:      domain.CalendarDate{Year: req.Year, Month: req.Month, Day: req.Day},
		Status:    req.Status,
		Default:   req.Default,
	}

	if req.OwnerID != "" {
		id, err := uuid.Parse(req.OwnerID)
		if err != nil {
			h.badRequest(c, "ownerId must be a UUID")
			return
		}
		in.OwnerID = id
	}
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			h.badRequest(c, "clientId must be a UUID")
			return
		}
		in.ClientID = &id
	}
	if req.Products != nil {
		ids, err := parseUUIDs(req.Products)
		if err != nil {
			h.badRequest(c, "products must be a list of UUIDs")
			return
		}
		in.ProductIDs = ids
	}

	created, products, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info("booking created",
		slog.String("booking_id", created.ID.String()),
		slog.String("owner_id", created.OwnerID.String()),
	)

	resp := gin.H{
		string(h.kind): created,
		"status":       http.StatusOK,
	}
	if h.kind == domain.BookingKindQuote {
		resp["products"] = products
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	in := booking.UpdateInput{
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Day:       req.Day,
		Month:     req.Month,
		Year:      req.Year,
		Status:    req.Status,
	}
	if req.OwnerID != nil {
		oid, err := uuid.Parse(*req.OwnerID)
		if err != nil {
			h.badRequest(c, "ownerId must be a UUID")
			return
		}
		in.OwnerID = &oid
	}
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			h.badRequest(c, "clientId must be a UUID")
			return
		}
		in.ClientID = &cid
	}
	if req.Products != nil {
		ids, err := parseUUIDs(req.Products)
		if err != nil {
			h.badRequest(c, "products must be a list of UUIDs")
			return
		}
		in.ProductIDs = ids
	}

	updated, products, err := h.svc.Update(c.Request.Context(), h.kind, id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info("booking updated", slog.String("booking_id", id.String()))

	resp := gin.H{
		string(h.kind): updated,
		"status":       http.StatusOK,
	}
	if h.kind == domain.BookingKindQuote {
		resp["products"] = products
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), h.kind, id); err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info("booking deleted", slog.String("booking_id", id.String()))

	c.JSON(http.StatusOK, gin.H{
		"message": string(h.kind) + " deleted successfully",
		"status":  http.StatusOK,
	})
}

func (h *BookingHandler) parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.badRequest(c, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BookingHandler) parseOwnerQuery(c *gin.Context) (uuid.UUID, bool) {
	raw := c.Query("ownerId")
	if raw == "" {
		h.badRequest(c, `provide an "ownerId" query parameter`)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.badRequest(c, "ownerId must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *BookingHandler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "status": http.StatusBadRequest})
}

// writeError maps the service's error kinds to transport status codes:
// validation failures are 400, conflicts 409, missing entities and dangling
// references 404.
func (h *BookingHandler) writeError(c *gin.Context, err error) {
	var (
		missingErr  *booking.MissingFieldsError
		windowErr   *booking.WindowError
		dateErr     *booking.DateRangeError
		conflictErr *booking.ConflictError
		refErr      *booking.ReferenceNotFoundError
	)

	switch {
	case errors.As(err, &missingErr), errors.As(err, &windowErr), errors.As(err, &dateErr):
		h.badRequest(c, err.Error())
	case errors.Is(err, booking.ErrImmutableDefault):
		h.badRequest(c, err.Error())
	case errors.As(err, &conflictErr), errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "status": http.StatusConflict})
	case errors.As(err, &refErr):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "status": http.StatusNotFound})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": string(h.kind) + " not found", "status": http.StatusNotFound})
	default:
		h.log.Error("request failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "status": http.StatusInternalServerError})
	}
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
