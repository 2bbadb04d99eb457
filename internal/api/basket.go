package api

import (
	"net/http"

	"github.com/saeedNW/snappfood-go/internal/domain/basket"
)

type basketItemRequest struct {
	FoodID string `json:"foodId"`
}

type basketDiscountRequest struct {
	Code string `json:"code"`
}

type pricedLineJSON struct {
	FoodID         string  `json:"foodId"`
	Name           string  `json:"name"`
	Quantity       int     `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	TotalAmount    float64 `json:"totalAmount"`
	DiscountAmount float64 `json:"discountAmount"`
	PaymentAmount  float64 `json:"paymentAmount"`
	DiscountCode   string  `json:"discountCode,omitempty"`
	SupplierID     string  `json:"supplierId"`
}

type generalDiscountJSON struct {
	Code           string  `json:"code,omitempty"`
	Percent        float64 `json:"percent,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
}

type pricedBasketJSON struct {
	TotalAmount         float64             `json:"totalAmount"`
	PaymentAmount       float64             `json:"paymentAmount"`
	TotalDiscountAmount float64             `json:"totalDiscountAmount"`
	Lines               []pricedLineJSON    `json:"lines"`
	GeneralDiscount     generalDiscountJSON `json:"generalDiscount"`
}

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	priced, err := h.baskets.Price(r.Context(), uid)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPricedBasketJSON(priced))
}

func (h *Handler) addBasketItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req basketItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.baskets.AddItem(r.Context(), uid, req.FoodID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "item added to basket"})
}

func (h *Handler) removeBasketItem(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req basketItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.baskets.RemoveItem(r.Context(), uid, req.FoodID); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "item removed from basket"})
}

func (h *Handler) addBasketDiscount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req basketDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.baskets.AddDiscount(r.Context(), uid, req.Code); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "discount code added"})
}

func (h *Handler) removeBasketDiscount(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req basketDiscountRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.baskets.RemoveDiscount(r.Context(), uid, req.Code); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "discount code removed"})
}

func (h *Handler) clearBasket(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.baskets.Clear(r.Context(), uid); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "basket cleared"})
}

func toPricedBasketJSON(priced *basket.PricedBasket) pricedBasketJSON {
	out := pricedBasketJSON{
		TotalAmount:         priced.TotalAmount.InexactFloat64(),
		PaymentAmount:       priced.PaymentAmount.InexactFloat64(),
		TotalDiscountAmount: priced.TotalDiscountAmount.InexactFloat64(),
		Lines:               make([]pricedLineJSON, len(priced.Lines)),
	}
	for i, line := range priced.Lines {
		out.Lines[i] = pricedLineJSON{
			FoodID:         line.FoodID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPrice:      line.UnitPrice.InexactFloat64(),
			TotalAmount:    line.TotalAmount.InexactFloat64(),
			DiscountAmount: line.DiscountAmount.InexactFloat64(),
			PaymentAmount:  line.PaymentAmount.InexactFloat64(),
			DiscountCode:   line.DiscountCode,
			SupplierID:     line.SupplierID,
		}
	}
	if priced.GeneralDiscount.Applied {
		out.GeneralDiscount = generalDiscountJSON{
			Code:           priced.GeneralDiscount.Code,
			Percent:        priced.GeneralDiscount.Percent.InexactFloat64(),
			Amount:         priced.GeneralDiscount.Amount.InexactFloat64(),
			DiscountAmount: priced.GeneralDiscount.DiscountAmount.InexactFloat64(),
		}
	}
	return out
}
