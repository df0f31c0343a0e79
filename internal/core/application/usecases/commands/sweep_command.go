package commands

import (
	"errors"

	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	DefaultSweepBatchSize = 100
	maxSweepBatchSize     = 1000
)

var ErrSweepCommandIsNotConstructed = errors.New(
	"SweepCommand must be created via NewSweepCommand constructor",
)

// SweepCommand triggers one run of a periodic batch operation: courier reconciliation,
// back-order retry or outbox relay. BatchSize caps how many records one run touches.
//
// Example:
//
//	cmd, _ := NewSweepCommand(DefaultSweepBatchSize)
//	results, err := reconcileHandler.Handle(ctx, cmd)
type SweepCommand struct { //nolint:recvcheck //using for validation
	batchSize int

	guard guard.ConstructorGuard
}

func NewSweepCommand(batchSize int) (SweepCommand, error) {
	if batchSize <= 0 || batchSize > maxSweepBatchSize {
		return SweepCommand{}, errs.NewValueIsOutOfRangeError("batch size", batchSize, 1, maxSweepBatchSize)
	}

	return SweepCommand{
		batchSize: batchSize,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c SweepCommand) Validate() error {
	return c.guard.Validate(ErrSweepCommandIsNotConstructed)
}

func (c SweepCommand) BatchSize() int {
	return c.batchSize
}
