// Package queries contains read-only operations for monitoring fulfillment. Handlers
// read straight from the database and never load aggregates.
package queries

import (
	"errors"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

const (
	DefaultOpenOrdersLimit = 100
	maxOpenOrdersLimit     = 1000
)

var ErrGetOpenOrdersQueryIsNotConstructed = errors.New(
	"GetOpenOrdersQuery must be created via NewGetOpenOrdersQuery constructor",
)

// GetOpenOrdersQuery lists orders that still have a way to go, oldest first. Without
// statuses every non-terminal status is included.
//
// Example:
//
//	query, _ := NewGetOpenOrdersQuery([]order.Status{order.AwaitingStock}, DefaultOpenOrdersLimit)
//	backorders, err := handler.Handle(ctx, query)
type GetOpenOrdersQuery struct { //nolint:recvcheck //using for validation
	statuses []order.Status
	limit    int

	guard guard.ConstructorGuard
}

func NewGetOpenOrdersQuery(statuses []order.Status, limit int) (GetOpenOrdersQuery, error) {
	if limit <= 0 || limit > maxOpenOrdersLimit {
		return GetOpenOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, maxOpenOrdersLimit)
	}
	for _, s := range statuses {
		if err := s.Validate(); err != nil {
			return GetOpenOrdersQuery{}, err
		}
	}

	if len(statuses) == 0 {
		for _, s := range order.AllStatuses() {
			if !s.IsTerminal() {
				statuses = append(statuses, s)
			}
		}
	}
	return GetOpenOrdersQuery{
		statuses: append([]order.Status(nil), statuses...),
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetOpenOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetOpenOrdersQueryIsNotConstructed)
}

func (q GetOpenOrdersQuery) Statuses() []order.Status {
	return append([]order.Status(nil), q.statuses...)
}

// GetOpenOrdersQueryResponse is one row of the open orders board.
type GetOpenOrdersQueryResponse struct {
	ID                         kernel.UUID
	Status                     order.Status
	InvoiceNumber              string
	TrackingCode               string
	Total                      kernel.Money
	PendingCourierConfirmation bool
	CreatedAt                  time.Time
}
