// Package api exposes the HTTP surface: basket mutation, discount
// administration, checkout, and the gateway verification callback.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
	"github.com/saeedNW/snappfood-go/internal/domain/discount"
	"github.com/saeedNW/snappfood-go/internal/domain/food"
	"github.com/saeedNW/snappfood-go/internal/domain/order"
	"github.com/saeedNW/snappfood-go/internal/domain/payment"
)

// userIDHeader carries the authenticated user identity, set by the auth
// layer in front of this service.
const userIDHeader = "X-User-ID"

// Handler wires the domain services to HTTP routes.
type Handler struct {
	foods     food.Repository
	baskets   *basket.Service
	discounts *discount.Service
	payments  *payment.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	foods food.Repository,
	baskets *basket.Service,
	discounts *discount.Service,
	payments *payment.Service,
) *Handler {
	return &Handler{
		foods:     foods,
		baskets:   baskets,
		discounts: discounts,
		payments:  payments,
	}
}

// Register mounts all API routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/foods", h.listFoods)
	mux.HandleFunc("GET /api/foods/{id}", h.getFood)

	mux.HandleFunc("GET /api/basket", h.getBasket)
	mux.HandleFunc("POST /api/basket/item", h.addBasketItem)
	mux.HandleFunc("DELETE /api/basket/item", h.removeBasketItem)
	mux.HandleFunc("POST /api/basket/discount", h.addBasketDiscount)
	mux.HandleFunc("DELETE /api/basket/discount", h.removeBasketDiscount)
	mux.HandleFunc("DELETE /api/basket", h.clearBasket)

	mux.HandleFunc("POST /api/discounts", h.createDiscount)
	mux.HandleFunc("GET /api/discounts", h.listDiscounts)
	mux.HandleFunc("DELETE /api/discounts/{id}", h.deleteDiscount)

	mux.HandleFunc("POST /api/checkout", h.checkout)
	mux.HandleFunc("GET /payment/verify", h.verifyPayment)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// userID extracts the authenticated user from the request, writing a 401
// response and returning false when it is missing.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	if id == "" {
		respondError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors to HTTP status codes. Unknown
// errors are logged and hidden behind a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, food.ErrNotFound),
		errors.Is(err, discount.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrAddressNotFound),
		errors.Is(err, payment.ErrNotFound),
		errors.Is(err, basket.ErrItemNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, discount.ErrCodeExists),
		errors.Is(err, payment.ErrAlreadyVerified):
		respondError(w, http.StatusConflict, err.Error())

	case errors.Is(err, discount.ErrKindRequired),
		errors.Is(err, basket.ErrDiscountNotInBasket),
		errors.Is(err, order.ErrEmptyBasket):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, discount.ErrNotActive),
		errors.Is(err, discount.ErrCapacityFull),
		errors.Is(err, discount.ErrExpired),
		errors.Is(err, discount.ErrAlreadyUsed),
		errors.Is(err, discount.ErrSupplierConflict),
		errors.Is(err, discount.ErrNotApplicable),
		errors.Is(err, discount.ErrGeneralConflict):
		respondError(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, payment.ErrUpstream):
		respondError(w, http.StatusBadGateway, "payment gateway unavailable")

	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 response
// and returning false on malformed input.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
