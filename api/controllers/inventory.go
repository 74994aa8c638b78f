package controllers

import (
	"net/http"

	"github.com/dnghuy/vietcart-backend/api/responses"
	"github.com/dnghuy/vietcart-backend/api/validators"
	"github.com/dnghuy/vietcart-backend/internal/inventory"
	"github.com/dnghuy/vietcart-backend/internal/ledger"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

// LedgerHistory returns a variant's stock audit trail, newest first.
func LedgerHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

type initialStockRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// StockInitial seeds a variant's opening stock, once.
func StockInitial(adjuster *inventory.Adjuster, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := optionalUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload initialStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := adjuster.RecordInitialStock(r.Context(), variantID, payload.Quantity, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"stock_qty": payload.Quantity})
	}
}

type stockAdjustRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// StockAdjust applies a signed manual stock correction.
func StockAdjust(adjuster *inventory.Adjuster, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := optionalUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload stockAdjustRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stockAfter, err := adjuster.Adjust(r.Context(), variantID, payload.Delta, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"stock_qty": stockAfter})
	}
}
