package commands

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/stock"
	"fulfillment/internal/pkg/guard"
)

var ErrReceiveLotCommandIsNotConstructed = errors.New(
	"ReceiveLotCommand must be created via NewReceiveLotCommand constructor",
)

// ReceiveLotCommand books a purchase arriving at a location. The lot is built by the
// constructor, so an invalid quantity or expiry never reaches the handler.
type ReceiveLotCommand struct { //nolint:recvcheck //using for validation
	lot *stock.Lot

	guard guard.ConstructorGuard
}

// LotReceipt describes one delivery from a supplier. A zero ReceivedAt means now.
type LotReceipt struct {
	LotID       kernel.UUID
	ProductID   kernel.UUID
	VariantID   kernel.UUID
	Location    kernel.Location
	Quantity    int
	CostPerUnit kernel.Money
	ReceivedAt  time.Time
	ExpiryDate  *time.Time
	SourceRef   string
}

func NewReceiveLotCommand(r LotReceipt) (ReceiveLotCommand, error) {
	if r.ReceivedAt.IsZero() {
		r.ReceivedAt = time.Now().UTC()
	}
	lot, err := stock.ReceiveLot(
		r.LotID, r.ProductID, r.VariantID, r.Location,
		r.Quantity, r.CostPerUnit, r.ReceivedAt, r.ExpiryDate, r.SourceRef,
	)
	if err != nil {
		return ReceiveLotCommand{}, err
	}

	return ReceiveLotCommand{
		lot:   lot,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c ReceiveLotCommand) Validate() error {
	return c.guard.Validate(ErrReceiveLotCommandIsNotConstructed)
}

func (c ReceiveLotCommand) LotID() kernel.UUID {
	return c.lot.ID()
}

func (c ReceiveLotCommand) Quantity() int {
	return c.lot.QtyReceived()
}
