package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"stayhub/internal/properties/service"
	"stayhub/pkg/config"
	apperrors "stayhub/pkg/errors"
	httputil "stayhub/pkg/http"
	"stayhub/pkg/logger"
	"stayhub/pkg/middleware"
	"stayhub/pkg/model"
)

type PropertyHandler struct {
	service service.PropertyService
	cfg     *config.Config
	log     *logger.Logger
}

func NewPropertyHandler(svc service.PropertyService, cfg *config.Config) *PropertyHandler {
	return &PropertyHandler{
		service: svc,
		cfg:     cfg,
		log:     cfg.Log,
	}
}

func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if !middleware.IsHostFromContext(r.Context()) {
		h.writeError(w, "Create", apperrors.Forbidden("Only hosts can create listings"))
		return
	}

	var property model.Property
	if err := json.NewDecoder(r.Body).Decode(&property); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), &property)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *PropertyHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	property, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *PropertyHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	properties, total, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, properties, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

// Search filters the public catalog by location, capacity, price, and date
// availability.
func (h *PropertyHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	var filter *model.PropertyFilter
	if r.Method == http.MethodPost {
		filter = &model.PropertyFilter{}
		if err := json.NewDecoder(r.Body).Decode(filter); err != nil {
			h.writeError(w, "Search", apperrors.InvalidInput("Invalid request body"))
			return
		}
	} else {
		filter, err = parseFilter(r)
		if err != nil {
			h.writeError(w, "Search", err)
			return
		}
	}

	properties, err := h.service.Search(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	if err := httputil.WriteSuccess(w, properties); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "error", err)
	}
}

func (h *PropertyHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	properties, err := h.service.ListByHost(r.Context(), middleware.UserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WriteSuccess(w, properties); err != nil {
		h.log.Error("failed to write success response", "handler", "ListMine", "error", err)
	}
}

func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	property, err := h.service.Update(r.Context(), ps.ByName("id"), middleware.UserIDFromContext(r.Context()), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, property); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id"), middleware.UserIDFromContext(r.Context())); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *PropertyHandler) RegisterRoutes(router *httprouter.Router) {
	auth := func(handle httprouter.Handle) httprouter.Handle {
		return middleware.RequireAuth(h.cfg.JWTSecret, h.log, handle)
	}

	router.GET("/api/v1/properties", h.GetAll)
	router.GET("/api/v1/properties/search", h.Search)
	router.POST("/api/v1/properties/filter", h.Search)
	router.GET("/api/v1/properties/id/:id", h.GetByID)

	router.POST("/api/v1/properties", auth(h.Create))
	router.GET("/api/v1/properties/mine", auth(h.ListMine))
	router.PATCH("/api/v1/properties/id/:id", auth(h.Update))
	router.DELETE("/api/v1/properties/id/:id", auth(h.Delete))
}

func (h *PropertyHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func parseFilter(r *http.Request) (*model.PropertyFilter, error) {
	query := r.URL.Query()
	filter := &model.PropertyFilter{Location: query.Get("location")}

	if guestsStr := query.Get("guests"); guestsStr != "" {
		guests, err := strconv.Atoi(guestsStr)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid guests parameter: " + guestsStr)
		}
		filter.Guests = guests
	}
	if priceStr := query.Get("max_price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid max_price parameter: " + priceStr)
		}
		filter.MaxPrice = price
	}
	if checkInStr := query.Get("check_in"); checkInStr != "" {
		checkIn, err := parseDate(checkInStr)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid check_in, must be RFC3339 or YYYY-MM-DD")
		}
		filter.CheckIn = &checkIn
	}
	if checkOutStr := query.Get("check_out"); checkOutStr != "" {
		checkOut, err := parseDate(checkOutStr)
		if err != nil {
			return nil, apperrors.InvalidInput("invalid check_out, must be RFC3339 or YYYY-MM-DD")
		}
		filter.CheckOut = &checkOut
	}

	return filter, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}
