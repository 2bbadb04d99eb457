package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/saeedNW/snappfood-go/internal/domain/discount"
)

type createDiscountRequest struct {
	Code          string   `json:"code"`
	Percent       *float64 `json:"percent,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	ExpiresInDays int      `json:"expiresInDays,omitempty"`
	Limit         int      `json:"limit,omitempty"`
	SupplierID    string   `json:"supplierId,omitempty"`
}

type discountJSON struct {
	ID         string  `json:"id"`
	Code       string  `json:"code"`
	Kind       string  `json:"kind"`
	Value      float64 `json:"value"`
	Limit      int     `json:"limit,omitempty"`
	Usage      int     `json:"usage"`
	ExpiresAt  string  `json:"expiresAt,omitempty"`
	SupplierID string  `json:"supplierId,omitempty"`
	Active     bool    `json:"active"`
}

func (h *Handler) createDiscount(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	create := discount.CreateRequest{
		Code:          req.Code,
		ExpiresInDays: req.ExpiresInDays,
		Limit:         req.Limit,
		SupplierID:    req.SupplierID,
	}
	if req.Percent != nil {
		v := decimal.NewFromFloat(*req.Percent)
		create.Percent = &v
	}
	if req.Amount != nil {
		v := decimal.NewFromFloat(*req.Amount)
		create.Amount = &v
	}

	d, err := h.discounts.Create(r.Context(), create)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toDiscountJSON(*d))
}

func (h *Handler) listDiscounts(w http.ResponseWriter, r *http.Request) {
	list, err := h.discounts.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]discountJSON, len(list))
	for i, d := range list {
		out[i] = toDiscountJSON(d)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteDiscount(w http.ResponseWriter, r *http.Request) {
	if err := h.discounts.Delete(r.Context(), r.PathValue("id")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "discount deleted"})
}

func toDiscountJSON(d discount.Discount) discountJSON {
	out := discountJSON{
		ID:         d.ID,
		Code:       d.Code,
		Kind:       string(d.Kind.Type()),
		Value:      d.Kind.Value().InexactFloat64(),
		Limit:      d.Limit,
		Usage:      d.Usage,
		SupplierID: d.SupplierID,
		Active:     d.Active,
	}
	if d.ExpiresAt != nil {
		out.ExpiresAt = d.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return out
}
