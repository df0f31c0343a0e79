package fulfillment

import (
	"context"

	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/core/ports"
)

// InvoiceNumberAllocator draws invoice numbers from the invoice counter inside the
// placing transaction, so a rolled back placement does not consume a number.
type InvoiceNumberAllocator struct {
	numberer services.InvoiceNumberer
	clock    Clock
}

func NewInvoiceNumberAllocator(prefix string, opts ...Option) (*InvoiceNumberAllocator, error) {
	numberer, err := services.NewInvoiceNumberer(prefix)
	if err != nil {
		return nil, err
	}
	s := newSettings(opts)
	return &InvoiceNumberAllocator{numberer: numberer, clock: s.clock}, nil
}

// Allocate assigns an invoice number to o unless it already has one, and returns it.
func (a *InvoiceNumberAllocator) Allocate(ctx context.Context, tx Tx, o *order.Order) (string, error) {
	if number := o.InvoiceNumber(); number != "" {
		return number, nil
	}

	seq, err := tx.CounterRepository().Increment(ctx, ports.CounterInvoiceNumber)
	if err != nil {
		return "", err
	}
	number, err := a.numberer.Format(seq, o.ID(), a.clock())
	if err != nil {
		return "", err
	}
	if err := o.AssignInvoiceNumber(number); err != nil {
		return "", err
	}
	return number, nil
}
