package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

const DefaultInvoicePrefix = "INV"

var invoicePrefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}$`)

// InvoiceNumberer formats invoice numbers as <PREFIX>-<year>-<6-digit seq>-<orderId>.
// Sequences above 999999 keep all their digits.
type InvoiceNumberer struct {
	prefix string
}

func NewInvoiceNumberer(prefix string) (InvoiceNumberer, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	if !invoicePrefixPattern.MatchString(prefix) {
		return InvoiceNumberer{}, errs.NewValueIsInvalidErrorWithCause("invoice prefix",
			fmt.Errorf("%q must be 1-10 upper case letters or digits starting with a letter", prefix))
	}
	return InvoiceNumberer{prefix: prefix}, nil
}

func (n InvoiceNumberer) Format(seq int64, orderID kernel.UUID, at time.Time) (string, error) {
	if seq <= 0 {
		return "", errs.NewValueIsOutOfRangeError("invoice sequence", seq, 1, "unbounded")
	}
	if err := orderID.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%06d-%s", n.prefix, at.Year(), seq, orderID), nil
}
