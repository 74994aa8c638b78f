package checkout

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
	"github.com/dnghuy/vietcart-backend/pkg/types"
)

// Machine drives one checkout session through its steps. Forward movement is
// guarded: the current step's fields must validate before the step advances.
// Backward movement and navigation to an already-passed step are free. The
// machine is single-writer by contract; the mutex exists only to make the
// placement busy flag safe against a double-submit.
type Machine struct {
	mu           sync.Mutex
	steps        []Step
	index        int
	maxValidated int
	draft        Draft
	placing      bool
	validate     *validator.Validate
	methods      methodChecker
}

// NewMachine starts a checkout flow. Authenticated sessions skip the
// guest-info step entirely.
func NewMachine(authenticated bool, methods methodChecker) *Machine {
	steps := []Step{StepAddress, StepPayment, StepReview}
	if !authenticated {
		steps = append([]Step{StepGuestInfo}, steps...)
	}
	return &Machine{
		steps:        steps,
		index:        0,
		maxValidated: -1,
		validate:     newValidator(),
		methods:      methods,
	}
}

// Current returns the step the session is on.
func (m *Machine) Current() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps[m.index]
}

// Draft returns a copy of the collected form state.
func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft
}

// SetGuestInfo records the guest contact fields without validating them;
// validation happens on the next forward transition.
func (m *Machine) SetGuestInfo(info CustomerInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.CustomerInfo = info
}

// SetAddress records the shipping destination.
func (m *Machine) SetAddress(addr types.Address) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.ShippingAddress = addr
}

// SetPayment records the payment and shipping method selections plus the
// optional notes and discount.
func (m *Machine) SetPayment(paymentMethodID, shippingMethodID uuid.UUID, notes string, discountID *uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.draft.PaymentMethodID = paymentMethodID
	m.draft.ShippingMethodID = shippingMethodID
	m.draft.DeliveryNotes = notes
	m.draft.DiscountID = discountID
}

// NextStep validates the current step's fields and advances on success. On
// failure the step is unchanged and the error carries a field-keyed map.
func (m *Machine) NextStep(ctx context.Context) (Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.steps[m.index]
	if current == StepReview {
		return current, pkgerrors.New(pkgerrors.CodeStateConflict, "already at the final step")
	}

	if err := m.validateStep(ctx, current); err != nil {
		return current, err
	}

	if m.index > m.maxValidated {
		m.maxValidated = m.index
	}
	m.index++
	return m.steps[m.index], nil
}

// PreviousStep moves back one step without validation.
func (m *Machine) PreviousStep() Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index > 0 {
		m.index--
	}
	return m.steps[m.index]
}

// GoToStep jumps directly to a previously-visited step. Skipping ahead of the
// last validated step is rejected.
func (m *Machine) GoToStep(target Step) (Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	targetIndex := -1
	for i, step := range m.steps {
		if step == target {
			targetIndex = i
			break
		}
	}
	if targetIndex < 0 {
		return m.steps[m.index], pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout step")
	}
	if targetIndex > m.maxValidated+1 {
		return m.steps[m.index], pkgerrors.New(pkgerrors.CodeStateConflict, "cannot skip ahead of the last completed step")
	}
	m.index = targetIndex
	return m.steps[m.index], nil
}

// BeginPlacement reserves the draft for a single in-flight placement. It
// fails unless the session has reached review with every prior step
// validated, or when another placement is already running.
func (m *Machine) BeginPlacement() (Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.steps[m.index] != StepReview {
		return Draft{}, pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be placed from the review step")
	}
	if m.placing {
		return Draft{}, pkgerrors.New(pkgerrors.CodeConflict, "a placement is already in progress")
	}
	m.placing = true
	return m.draft, nil
}

// FinishPlacement releases the busy flag after a placement attempt.
func (m *Machine) FinishPlacement() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.placing = false
}

func (m *Machine) validateStep(ctx context.Context, step Step) error {
	switch step {
	case StepGuestInfo:
		fields := guestInfoFields{
			Name:  m.draft.CustomerInfo.Name,
			Phone: m.draft.CustomerInfo.Phone,
			Email: m.draft.CustomerInfo.Email,
		}
		if err := m.validate.Struct(fields); err != nil {
			return validationError(fieldErrors(err))
		}
	case StepAddress:
		fields := addressFields{
			Line:     m.draft.ShippingAddress.Line,
			Ward:     m.draft.ShippingAddress.Ward,
			District: m.draft.ShippingAddress.District,
			Province: m.draft.ShippingAddress.Province,
		}
		if err := m.validate.Struct(fields); err != nil {
			return validationError(fieldErrors(err))
		}
	case StepPayment:
		fields := paymentFields{
			PaymentMethodID:  m.draft.PaymentMethodID,
			ShippingMethodID: m.draft.ShippingMethodID,
		}
		if err := m.validate.Struct(fields); err != nil {
			return validationError(fieldErrors(err))
		}
		if m.methods != nil {
			active, err := m.methods.IsActivePaymentMethod(ctx, m.draft.PaymentMethodID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment method")
			}
			if !active {
				return validationError(map[string]string{"payment_method_id": "must be an active payment method"})
			}
			active, err = m.methods.IsActiveShippingMethod(ctx, m.draft.ShippingMethodID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check shipping method")
			}
			if !active {
				return validationError(map[string]string{"shipping_method_id": "must be an active shipping method"})
			}
		}
	}
	return nil
}
