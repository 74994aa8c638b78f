package checkout

import (
	"context"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	pkgerrors "github.com/dnghuy/vietcart-backend/pkg/errors"
)

// Vietnamese mobile numbers: leading 0 or +84, then a mobile prefix digit and
// eight more digits.
var vnMobilePattern = regexp.MustCompile(`^(0|\+84)(3|5|7|8|9)[0-9]{8}$`)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("vnmobile", func(fl validator.FieldLevel) bool {
		return vnMobilePattern.MatchString(fl.Field().String())
	})
	return v
}

type guestInfoFields struct {
	Name  string `validate:"required"`
	Phone string `validate:"required,vnmobile"`
	Email string `validate:"omitempty,email"`
}

type addressFields struct {
	Line     string `validate:"required"`
	Ward     string `validate:"required"`
	District string `validate:"required"`
	Province string `validate:"required"`
}

type paymentFields struct {
	PaymentMethodID  uuid.UUID `validate:"required"`
	ShippingMethodID uuid.UUID `validate:"required"`
}

var fieldKeys = map[string]string{
	"Name":             "name",
	"Phone":            "phone",
	"Email":            "email",
	"Line":             "address_line",
	"Ward":             "ward",
	"District":         "district",
	"Province":         "province",
	"PaymentMethodID":  "payment_method_id",
	"ShippingMethodID": "shipping_method_id",
}

var fieldMessages = map[string]string{
	"vnmobile": "must be a valid Vietnamese mobile number",
	"email":    "must be a well-formed email address",
	"required": "is required",
}

// fieldErrors flattens validator output into the field-keyed map returned to
// the caller when a guarded transition fails.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		out["_"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		key := fieldKeys[fe.StructField()]
		if key == "" {
			key = fe.StructField()
		}
		msg := fieldMessages[fe.Tag()]
		if msg == "" {
			msg = "is invalid"
		}
		out[key] = msg
	}
	return out
}

func validationError(fields map[string]string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "checkout step validation failed").
		WithDetails(map[string]any{"fields": fields})
}

type methodChecker interface {
	IsActivePaymentMethod(ctx context.Context, id uuid.UUID) (bool, error)
	IsActiveShippingMethod(ctx context.Context, id uuid.UUID) (bool, error)
}
