package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/api/middleware"
	"github.com/dnghuy/vietcart-backend/api/responses"
	"github.com/dnghuy/vietcart-backend/api/validators"
	cartsvc "github.com/dnghuy/vietcart-backend/internal/cart"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
)

type cartLineRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type cartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CartGet returns the authenticated user's cart.
func CartGet(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartAdd adds quantity of a variant to the authenticated cart.
func CartAdd(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartLineRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Add(r.Context(), userID, payload.VariantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartUpdate sets a line's quantity; zero removes the line.
func CartUpdate(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Update(r.Context(), userID, variantID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartRemove deletes a line from the authenticated cart.
func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := svc.Remove(r.Context(), userID, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// CartMerge fires the once-per-login reconciliation of the device-local cart
// into the authenticated cart. Merge failures are deliberately reported as
// success to the client: the local cart is preserved and the next login
// retries silently.
func CartMerge(reconciler *cartsvc.Reconciler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		deviceID := middleware.DeviceIDFromContext(r.Context())
		if sessionID == "" || deviceID == "" {
			responses.WriteSuccess(w, map[string]string{"merge": "skipped"})
			return
		}

		if err := reconciler.Merge(r.Context(), sessionID, userID, deviceID); err != nil {
			responses.WriteSuccess(w, map[string]string{"merge": "deferred"})
			return
		}
		responses.WriteSuccess(w, map[string]string{"merge": "done"})
	}
}

type localCartAddRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// LocalCartGet reads the guest device cart.
func LocalCartGet(store *localcart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := deviceIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := store.ReadAll(r.Context(), deviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lines == nil {
			lines = []localcart.Line{}
		}
		responses.WriteSuccess(w, lines)
	}
}

// LocalCartAdd upserts a line in the guest device cart.
func LocalCartAdd(store *localcart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := deviceIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload localCartAddRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Add(r.Context(), deviceID, localcart.Line{
			VariantID: payload.VariantID,
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := store.ReadAll(r.Context(), deviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// LocalCartUpdate sets a line's quantity; zero removes the line.
func LocalCartUpdate(store *localcart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := deviceIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload cartQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Update(r.Context(), deviceID, variantID, payload.Quantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := store.ReadAll(r.Context(), deviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

// LocalCartRemove deletes a line from the guest device cart.
func LocalCartRemove(store *localcart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceID, err := deviceIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		variantID, err := pathUUID(r, "variantID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := store.Remove(r.Context(), deviceID, variantID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lines, err := store.ReadAll(r.Context(), deviceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lines)
	}
}

func deviceIDFromContext(r *http.Request) (string, error) {
	deviceID := middleware.DeviceIDFromContext(r.Context())
	if deviceID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "X-Device-Id header required")
	}
	return deviceID, nil
}
