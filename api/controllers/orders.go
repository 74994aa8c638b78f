package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/api/responses"
	"github.com/dnghuy/vietcart-backend/api/validators"
	"github.com/dnghuy/vietcart-backend/internal/orders"
	"github.com/dnghuy/vietcart-backend/pkg/enums"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

// OrderGet serves the confirmation payload. Authenticated owners hit it with
// their session; guests pass the access token issued at placement.
func OrderGet(lookup *orders.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if token := strings.TrimSpace(r.URL.Query().Get("access_token")); token != "" {
			confirmation, err := lookup.ForGuestToken(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if confirmation.OrderID != orderID {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
				return
			}
			responses.WriteSuccess(w, confirmation)
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmation, err := lookup.ForUser(r.Context(), orderID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, confirmation)
	}
}

// OrderCancel cancels the caller's own order when its status still allows it.
func OrderCancel(lifecycle orders.Lifecycle, lookup *orders.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Ownership check before any mutation.
		if _, err := lookup.ForUser(r.Context(), orderID, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := lifecycle.Cancel(r.Context(), orderID, &userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.NewConfirmation(order))
	}
}

type statusUpdateRequest struct {
	StatusID int `json:"status_id" validate:"required,min=1"`
}

// AdminOrderStatusUpdate applies a single status transition.
func AdminOrderStatusUpdate(lifecycle orders.Lifecycle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := optionalUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload statusUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(payload.StatusID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		order, err := lifecycle.UpdateStatus(r.Context(), orderID, target, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.NewConfirmation(order))
	}
}

type batchStatusRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" validate:"required,min=1"`
	StatusID int         `json:"status_id" validate:"required,min=1"`
}

// AdminBatchStatusUpdate applies the same transition to each order
// independently and reports a per-order result list.
func AdminBatchStatusUpdate(lifecycle orders.Lifecycle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := optionalUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload batchStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParseOrderStatus(payload.StatusID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}
		results := lifecycle.BatchUpdateStatus(r.Context(), payload.OrderIDs, target, actorID)
		responses.WriteSuccess(w, results)
	}
}

type paymentStatusRequest struct {
	PaymentStatus string              `json:"payment_status" validate:"required"`
	Refund        *orders.RefundInput `json:"refund,omitempty"`
}

// AdminPaymentStatusUpdate records an externally-driven payment outcome.
func AdminPaymentStatusUpdate(lifecycle orders.Lifecycle, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := pathUUID(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := enums.ParsePaymentStatus(payload.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}
		order, err := lifecycle.UpdatePaymentStatus(r.Context(), orderID, target, payload.Refund)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.NewConfirmation(order))
	}
}

type orderStatusView struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// OrderStatuses enumerates the stable status ids for admin filtering.
func OrderStatuses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses := make([]orderStatusView, 0, 5)
		for _, status := range enums.AllOrderStatuses() {
			statuses = append(statuses, orderStatusView{ID: int(status), Name: status.String()})
		}
		responses.WriteSuccess(w, statuses)
	}
}
