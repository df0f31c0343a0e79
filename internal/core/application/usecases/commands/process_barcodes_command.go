package commands

import (
	"errors"
	"fmt"
	"strings"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/ports"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrProcessBarcodesCommandIsNotConstructed = errors.New(
	"ProcessBarcodesCommand must be created via NewProcessBarcodesCommand constructor",
)

// ProcessBarcodesCommand carries the barcodes scanned off a parcel. The kind tells a
// pick (outgoing) scan from a return scan.
type ProcessBarcodesCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	kind    ports.ReconciliationKind
	scanned []string
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

// NewProcessBarcodesCommand trims the scanned codes and drops blank reads. An empty scan
// is allowed and reconciles as everything missing.
func NewProcessBarcodesCommand(
	orderID kernel.UUID,
	kind ports.ReconciliationKind,
	scanned []string,
	actor kernel.Actor,
) (ProcessBarcodesCommand, error) {
	if err := errors.Join(orderID.Validate(), actor.Validate()); err != nil {
		return ProcessBarcodesCommand{}, err
	}
	if kind != ports.ReconciliationPick && kind != ports.ReconciliationReturn {
		return ProcessBarcodesCommand{}, errs.NewValueIsInvalidErrorWithCause("reconciliation kind",
			fmt.Errorf("%q is not a reconciliation kind", string(kind)))
	}

	codes := make([]string, 0, len(scanned))
	for _, code := range scanned {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, code)
		}
	}
	return ProcessBarcodesCommand{
		orderID: orderID,
		kind:    kind,
		scanned: codes,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessBarcodesCommand) Validate() error {
	return c.guard.Validate(ErrProcessBarcodesCommandIsNotConstructed)
}

func (c ProcessBarcodesCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ProcessBarcodesCommand) Kind() ports.ReconciliationKind {
	return c.kind
}

func (c ProcessBarcodesCommand) Scanned() []string {
	return append([]string(nil), c.scanned...)
}
