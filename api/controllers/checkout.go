package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dnghuy/vietcart-backend/api/middleware"
	"github.com/dnghuy/vietcart-backend/api/responses"
	"github.com/dnghuy/vietcart-backend/api/validators"
	"github.com/dnghuy/vietcart-backend/internal/checkout"
	"github.com/dnghuy/vietcart-backend/internal/localcart"
	"github.com/dnghuy/vietcart-backend/internal/orders"
	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/logger"
	"github.com/dnghuy/vietcart-backend/pkg/types"
)

type checkoutStateResponse struct {
	Step  checkout.Step  `json:"step"`
	Draft checkout.Draft `json:"draft"`
}

// CheckoutBegin starts a fresh checkout for the session, replacing any
// abandoned draft.
func CheckoutBegin(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, authenticated, err := checkoutSessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		machine, err := manager.Begin(key, authenticated)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutStateResponse{
			Step:  machine.Current(),
			Draft: machine.Draft(),
		})
	}
}

type guestInfoRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// CheckoutSetGuestInfo records guest contact fields on the draft.
func CheckoutSetGuestInfo(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload guestInfoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		machine.SetGuestInfo(checkout.CustomerInfo{
			Name:  payload.Name,
			Phone: payload.Phone,
			Email: payload.Email,
		})
		responses.WriteSuccess(w, checkoutStateResponse{Step: machine.Current(), Draft: machine.Draft()})
	}
}

type addressRequest struct {
	Line     string `json:"line"`
	Ward     string `json:"ward"`
	District string `json:"district"`
	Province string `json:"province"`
}

// CheckoutSetAddress records the shipping destination on the draft.
func CheckoutSetAddress(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		machine.SetAddress(types.Address{
			Line:     payload.Line,
			Ward:     payload.Ward,
			District: payload.District,
			Province: payload.Province,
		})
		responses.WriteSuccess(w, checkoutStateResponse{Step: machine.Current(), Draft: machine.Draft()})
	}
}

type paymentSelectionRequest struct {
	PaymentMethodID  uuid.UUID  `json:"payment_method_id" validate:"required"`
	ShippingMethodID uuid.UUID  `json:"shipping_method_id" validate:"required"`
	DeliveryNotes    string     `json:"delivery_notes,omitempty"`
	DiscountID       *uuid.UUID `json:"discount_id,omitempty"`
}

// CheckoutSetPayment records payment and shipping selections on the draft.
func CheckoutSetPayment(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentSelectionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		machine.SetPayment(payload.PaymentMethodID, payload.ShippingMethodID, payload.DeliveryNotes, payload.DiscountID)
		responses.WriteSuccess(w, checkoutStateResponse{Step: machine.Current(), Draft: machine.Draft()})
	}
}

// CheckoutNext validates the current step and advances.
func CheckoutNext(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		step, err := machine.NextStep(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkoutStateResponse{Step: step, Draft: machine.Draft()})
	}
}

// CheckoutBack moves one step back, unguarded.
func CheckoutBack(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		step := machine.PreviousStep()
		responses.WriteSuccess(w, checkoutStateResponse{Step: step, Draft: machine.Draft()})
	}
}

type goToStepRequest struct {
	Step string `json:"step" validate:"required"`
}

// CheckoutGoTo jumps to a previously-visited step.
func CheckoutGoTo(manager *checkout.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		machine, err := sessionMachine(manager, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload goToStepRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		target, err := checkout.ParseStep(payload.Step)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid step"))
			return
		}
		step, err := machine.GoToStep(target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, checkoutStateResponse{Step: step, Draft: machine.Draft()})
	}
}

// CheckoutPlace converts the reviewed draft into an order. The busy flag on
// the machine blocks a concurrent double-submit from the same session; the
// Idempotency-Key header dedupes retries after a timeout. Guest local carts
// are cleared only after placement reports success.
func CheckoutPlace(manager *checkout.Manager, placer orders.Placer, local *localcart.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key, authenticated, err := checkoutSessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		machine, err := manager.Get(key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
		if idempotencyKey == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
			return
		}

		draft, err := machine.BeginPlacement()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer machine.FinishPlacement()

		input := orders.PlaceInput{
			IdempotencyKey: idempotencyKey,
			Draft:          draft,
		}
		userID, err := optionalUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.UserID = userID

		deviceID := middleware.DeviceIDFromContext(r.Context())
		if !authenticated {
			lines, err := local.ReadAll(r.Context(), deviceID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.GuestLines = lines
		}

		confirmation, err := placer.Place(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if !authenticated && deviceID != "" {
			if err := local.Clear(r.Context(), deviceID); err != nil && logg != nil {
				logg.Warn(r.Context(), "local cart clear after placement failed")
			}
		}
		manager.End(key)

		responses.WriteSuccessStatus(w, http.StatusCreated, confirmation)
	}
}

func sessionMachine(manager *checkout.Manager, r *http.Request) (*checkout.Machine, error) {
	key, _, err := checkoutSessionKey(r)
	if err != nil {
		return nil, err
	}
	return manager.Get(key)
}

// checkoutSessionKey scopes a draft to the auth session when one exists,
// otherwise to the guest device.
func checkoutSessionKey(r *http.Request) (string, bool, error) {
	if sessionID := middleware.SessionIDFromContext(r.Context()); sessionID != "" {
		return "s:" + sessionID, true, nil
	}
	if userID := middleware.UserIDFromContext(r.Context()); userID != "" {
		return "u:" + userID, true, nil
	}
	if deviceID := middleware.DeviceIDFromContext(r.Context()); deviceID != "" {
		return "d:" + deviceID, false, nil
	}
	return "", false, pkgerrors.New(pkgerrors.CodeValidation, "a session or X-Device-Id header is required for checkout")
}
