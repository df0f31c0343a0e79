package order

import (
	"fmt"
	"slices"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// Main flow:
//
//	incomplete ──> pending ──> placed ──> accepted ──> rts ──> handed_over_to_courier
//	    │             │          ▲                                     │
//	    │             └──> awaiting_stock                              v
//	    └───────────────────────>┘                      in_transit ──> delivered
//	                                                         │             │
//	                                                         v             v
//	                                     returned <── pending_return <─────┤
//	                                        │                              v
//	                                        └──> exchanged <── exchange_requested
//
// Cancellation, failure, loss and the partial flag branch off the flow as listed in
// getTransitions. Statuses without outgoing edges are terminal.
type Status int

const (
	// StatusUndefined is the invalid zero value. It is not the same as Unknown, which is a
	// real terminal status set by operators.
	StatusUndefined Status = iota
	Incomplete
	Pending
	Failed
	Placed
	Accepted
	RTS
	HandedOverToCourier
	InTransit
	Delivered
	PendingReturn
	Returned
	Cancelled
	ExchangeRequested
	Exchanged
	Partial
	Unknown
	Lost
	AwaitingStock
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUndefined:     "undefined",
		Incomplete:          "incomplete",
		Pending:             "pending",
		Failed:              "failed",
		Placed:              "placed",
		Accepted:            "accepted",
		RTS:                 "rts",
		HandedOverToCourier: "handed_over_to_courier",
		InTransit:           "in_transit",
		Delivered:           "delivered",
		PendingReturn:       "pending_return",
		Returned:            "returned",
		Cancelled:           "cancelled",
		ExchangeRequested:   "exchange_requested",
		Exchanged:           "exchanged",
		Partial:             "partial",
		Unknown:             "unknown",
		Lost:                "lost",
		AwaitingStock:       "awaiting_stock",
	}
}

func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing edges
	return map[Status][]Status{
		Incomplete:          {Pending, Placed, Failed, Partial},
		Pending:             {Placed, Failed, AwaitingStock, Partial},
		AwaitingStock:       {Placed, Cancelled, Partial},
		Placed:              {Accepted, Cancelled, Failed, Partial},
		Accepted:            {RTS, Cancelled, Partial},
		RTS:                 {HandedOverToCourier, Cancelled, Partial},
		HandedOverToCourier: {InTransit, Lost, Partial},
		InTransit:           {Delivered, PendingReturn, Lost, Partial},
		Delivered:           {PendingReturn, ExchangeRequested},
		PendingReturn:       {Returned, Lost, Partial},
		Returned:            {Exchanged},
		ExchangeRequested:   {Exchanged, Cancelled, Partial},
	}
}

// AllStatuses lists every valid status in declaration order.
func AllStatuses() []Status {
	statuses := make([]Status, 0, int(AwaitingStock))
	for s := Incomplete; s <= AwaitingStock; s++ {
		statuses = append(statuses, s)
	}
	return statuses
}

// ParseStatus maps a persisted or user supplied name to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != StatusUndefined {
			return status, nil
		}
	}
	return StatusUndefined, errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= StatusUndefined || s > AwaitingStock {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "undefined"
}

// CanTransitionTo reports whether s -> target is an edge of the lifecycle.
func (s Status) CanTransitionTo(target Status) bool {
	return slices.Contains(getTransitions()[s], target)
}

// TransitionTo returns target when the edge exists and an InvalidTransitionError otherwise.
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return StatusUndefined, err
	}
	if !s.CanTransitionTo(target) {
		return StatusUndefined, &InvalidTransitionError{From: s, To: target}
	}
	return target, nil
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(getTransitions()[s]) == 0
}

// IsOpenShipment reports whether the parcel is with the courier and its status should be
// polled.
func (s Status) IsOpenShipment() bool {
	return s == HandedOverToCourier || s == InTransit || s == PendingReturn
}
