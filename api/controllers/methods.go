package controllers

import (
	"net/http"

	"github.com/dnghuy/vietcart-backend/api/responses"
	"github.com/dnghuy/vietcart-backend/internal/paymentmethods"
	"github.com/dnghuy/vietcart-backend/internal/shipping"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

// PaymentMethods lists the active payment options for the checkout UI.
func PaymentMethods(repo paymentmethods.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}

// ShippingMethods lists the active delivery options and their fees.
func ShippingMethods(repo shipping.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		methods, err := repo.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, methods)
	}
}
