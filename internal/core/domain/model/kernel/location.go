package kernel

import (
	"fmt"
	"regexp"
	"strings"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const maxLocationLength = 64

var (
	// ErrLocationIsNotConstructed is returned for a zero-value Location.
	ErrLocationIsNotConstructed = errs.NewValueIsRequiredError("location must be created via NewLocation")

	locationPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_\-]*$`)
)

// Location is the code of a stock-holding place (warehouse, store, bin). Lots are kept per
// (product, variant, location) and reservations never cross locations.
//
// Codes are normalized to upper case: "dhaka-wh1" and "DHAKA-WH1" are the same location.
type Location struct { //nolint:recvcheck //using for validation
	code  string
	guard guard.ConstructorGuard
}

// NewLocation normalizes and validates a location code.
func NewLocation(code string) (Location, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return Location{}, errs.NewValueIsRequiredError("location")
	}
	if len(normalized) > maxLocationLength {
		return Location{}, errs.NewValueIsOutOfRangeError("location length", len(normalized), 1, maxLocationLength)
	}
	if !locationPattern.MatchString(normalized) {
		return Location{}, errs.NewValueIsInvalidErrorWithCause(
			"location",
			fmt.Errorf("%q contains characters outside A-Z, 0-9, '-' and '_'", code),
		)
	}

	return Location{code: normalized, guard: guard.NewConstructorGuard()}, nil
}

// MustNewLocation panics on an invalid code. Intended for tests and constants.
func MustNewLocation(code string) Location {
	loc, err := NewLocation(code)
	if err != nil {
		panic(err)
	}
	return loc
}

func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

func (l Location) Code() string {
	return l.code
}

func (l Location) String() string {
	return l.code
}

func (l Location) IsEqual(other Location) bool {
	return l.code == other.code
}
