package api

import (
	"net/http"

	"github.com/saeedNW/snappfood-go/internal/domain/food"
)

type foodJSON struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	IsActive    bool    `json:"isActive"`
	SupplierID  string  `json:"supplierId"`
}

func (h *Handler) listFoods(w http.ResponseWriter, r *http.Request) {
	foods, err := h.foods.List(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	out := make([]foodJSON, len(foods))
	for i, f := range foods {
		out[i] = toFoodJSON(f)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) getFood(w http.ResponseWriter, r *http.Request) {
	f, err := h.foods.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toFoodJSON(*f))
}

func toFoodJSON(f food.Food) foodJSON {
	return foodJSON{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Price:       f.Price.InexactFloat64(),
		Discount:    f.Discount.InexactFloat64(),
		IsActive:    f.IsActive,
		SupplierID:  f.SupplierID,
	}
}
