package api

import (
	"net/http"

	"github.com/saeedNW/snappfood-go/internal/domain/payment"
)

type checkoutRequest struct {
	AddressID   string `json:"addressId"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
	Mobile      string `json:"mobile,omitempty"`
}

type checkoutResponse struct {
	Settled    bool   `json:"settled"`
	GatewayURL string `json:"gatewayUrl,omitempty"`
	OrderID    string `json:"orderId"`
	Message    string `json:"message,omitempty"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.payments.Checkout(r.Context(), uid, payment.CheckoutRequest{
		AddressID:   req.AddressID,
		Description: req.Description,
		Email:       req.Email,
		Mobile:      req.Mobile,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	resp := checkoutResponse{
		Settled:    result.Settled,
		GatewayURL: result.GatewayURL,
		OrderID:    result.OrderID,
	}
	if result.Settled {
		resp.Message = "payment settled, no gateway redirect required"
	}
	respondJSON(w, http.StatusOK, resp)
}

// verifyPayment handles the gateway callback and redirects the user to the
// frontend success or failure page. It never renders a page itself.
func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	authority := r.URL.Query().Get("Authority")
	status := r.URL.Query().Get("Status")
	if authority == "" {
		respondError(w, http.StatusBadRequest, "missing authority")
		return
	}

	url, err := h.payments.Verify(r.Context(), authority, status)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
