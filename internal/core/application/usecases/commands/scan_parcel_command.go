package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/application/fulfillment"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrScanParcelCommandIsNotConstructed = errors.New(
	"ScanParcelCommand must be created via NewScanParcelCommand constructor",
)

// ScanParcelCommand is a warehouse scanner reading a courier tracking code at handover
// or when a parcel comes back.
type ScanParcelCommand struct { //nolint:recvcheck //using for validation
	kind         fulfillment.ScanKind
	trackingCode string
	actor        kernel.Actor

	guard guard.ConstructorGuard
}

func NewScanParcelCommand(kind fulfillment.ScanKind, trackingCode string, actor kernel.Actor) (ScanParcelCommand, error) {
	_, kindErr := kind.Target()
	if err := errors.Join(kindErr, actor.Validate()); err != nil {
		return ScanParcelCommand{}, err
	}
	trackingCode = strings.TrimSpace(trackingCode)
	if trackingCode == "" {
		return ScanParcelCommand{}, errs.NewValueIsRequiredError("tracking code")
	}

	return ScanParcelCommand{
		kind:         kind,
		trackingCode: trackingCode,
		actor:        actor,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c ScanParcelCommand) Validate() error {
	return c.guard.Validate(ErrScanParcelCommandIsNotConstructed)
}

func (c ScanParcelCommand) Kind() fulfillment.ScanKind {
	return c.kind
}

func (c ScanParcelCommand) TrackingCode() string {
	return c.trackingCode
}

func (c ScanParcelCommand) Actor() kernel.Actor {
	return c.actor
}
