package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"stayhub/internal/bookings/interval"
	"stayhub/internal/bookings/service"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	httputil "stayhub/pkg/http"
	"stayhub/pkg/logger"
	"stayhub/pkg/middleware"
	"stayhub/pkg/model"
)

type BookingHandler struct {
	service service.BookingService
	cfg     *config.Config
	log     *logger.Logger
}

func NewBookingHandler(svc service.BookingService, cfg *config.Config) *BookingHandler {
	return &BookingHandler{
		service: svc,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	userID := middleware.UserIDFromContext(r.Context())

	booking, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	bookings, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

// ListByProperty lists a property's bookings. With ?active=true only the
// bookings currently holding dates are returned, unpaginated.
func (h *BookingHandler) ListByProperty(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if r.URL.Query().Get("active") == "true" {
		bookings, err := h.service.ListActiveByProperty(r.Context(), ps.ByName("propertyId"))
		if err != nil {
			h.writeError(w, "ListByProperty", err)
			return
		}
		if err := httputil.WriteSuccess(w, bookings); err != nil {
			h.log.Error("failed to write success response", "handler", "ListByProperty", "error", err)
		}
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListByProperty", err)
		return
	}

	bookings, total, err := h.service.ListByProperty(r.Context(), ps.ByName("propertyId"), limit, offset)
	if err != nil {
		h.writeError(w, "ListByProperty", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListByProperty", "error", err)
	}
}

type availabilityRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

// CheckAvailability answers whether a date range is free. Left unauthenticated
// so property pages can query it before login. Accepts the range as a POST
// body or as query parameters.
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req availabilityRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "CheckAvailability", apperrors.InvalidInput("Invalid request body"))
			return
		}
	} else {
		query := r.URL.Query()
		req = availabilityRequest{
			PropertyID: query.Get("property_id"),
			CheckIn:    query.Get("check_in"),
			CheckOut:   query.Get("check_out"),
		}
	}
	propertyID := req.PropertyID

	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		h.writeError(w, "CheckAvailability", apperrors.InvalidInput("invalid check_in, must be RFC3339 or YYYY-MM-DD"))
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		h.writeError(w, "CheckAvailability", apperrors.InvalidInput("invalid check_out, must be RFC3339 or YYYY-MM-DD"))
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), propertyID, checkIn, checkOut)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]any{
		"property_id": propertyID,
		"available":   available,
		"nights":      interval.Nights(checkIn, checkOut),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "error", err)
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, "Cancel", apperrors.InvalidInput("Invalid request body"))
			return
		}
	}

	booking, err := h.service.Cancel(r.Context(), ps.ByName("id"), req.Reason)
	if err != nil {
		h.writeError(w, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "error", err)
	}
}

func (h *BookingHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Confirm(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Confirm", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Confirm", "error", err)
	}
}

type paymentWebhookRequest struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// PaymentWebhook receives payment outcomes from the payment collaborator.
// Authenticity comes from the HMAC signature check wrapped around the route.
func (h *BookingHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req paymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "PaymentWebhook", apperrors.InvalidInput("Invalid request body"))
		return
	}

	booking, err := h.service.UpdatePaymentStatus(r.Context(), req.BookingID, model.PaymentStatus(req.Status))
	if err != nil {
		h.writeError(w, "PaymentWebhook", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "PaymentWebhook", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	auth := func(handle httprouter.Handle) httprouter.Handle {
		return middleware.RequireAuth(h.cfg.JWTSecret, h.log, handle)
	}

	router.POST("/api/v1/bookings", auth(h.Create))
	router.GET("/api/v1/bookings", auth(h.GetAll))
	router.GET("/api/v1/bookings/id/:id", auth(h.GetByID))
	router.POST("/api/v1/bookings/id/:id/cancel", auth(h.Cancel))
	router.POST("/api/v1/bookings/id/:id/confirm", auth(h.Confirm))
	router.GET("/api/v1/bookings/property/:propertyId", auth(h.ListByProperty))
	router.GET("/api/v1/bookings/check-availability", h.CheckAvailability)
	router.POST("/api/v1/bookings/check-availability", h.CheckAvailability)

	webhook := h.PaymentWebhook
	if h.cfg.PaymentWebhookSecret != "" {
		webhook = wrapHandle(middleware.WebhookSignatureVerification(h.cfg.PaymentWebhookSecret, h.log), webhook)
	}
	router.POST("/api/v1/payments/webhook", webhook)
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

// wrapHandle adapts an http.Handler middleware to a single httprouter route.
func wrapHandle(mw func(http.Handler) http.Handler, handle httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handle(w, r, ps)
		})).ServeHTTP(w, r)
	}
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
