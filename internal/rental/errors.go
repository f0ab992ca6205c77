package rental

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrBundleNotFound  = errors.New("bundle not found")

	ErrEmptyCart         = errors.New("cart must contain at least one item")
	ErrInvalidQty        = errors.New("item qty must be greater than zero")
	ErrEmptyDateRange    = errors.New("rental date range must span at least one day")
	ErrInvalidDateRange  = errors.New("rental end must not be before start")
	ErrTermsNotAccepted  = errors.New("terms must be accepted")
	ErrProductInactive   = errors.New("product is not active")
	ErrRequiresContact   = errors.New("rentals of 15 days or more are quoted manually")
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrOrderNotAmendable = errors.New("only pending orders can be amended")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Validation reports whether err rejects the request input itself, as opposed
// to a missing record or an unreachable state.
func Validation(err error) bool {
	for _, e := range []error{
		ErrEmptyCart, ErrInvalidQty, ErrEmptyDateRange, ErrInvalidDateRange,
		ErrTermsNotAccepted, ErrProductInactive, ErrRequiresContact,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

func NotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrBundleNotFound)
}

func InvalidState(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrOrderNotAmendable) ||
		errors.Is(err, ErrDuplicateOrder)
}
