package barcode

import (
	"fmt"

	"fulfillment/internal/pkg/errs"
)

// Status is the lifecycle state of a single physical unit.
//
//	unassigned ──> reserved ──> assigned_to_order ──> in_transit ──┬──> sold ──> returned
//	    │  ▲           │  ▲             │                          ├──> returned
//	    │  └───────────┘  └─────────────┘ (unbind on cancel)       ├──> damaged
//	    │                                                          └──> retired
//	    └──> assigned_to_order | damaged | retired
//
//	returned ──> unassigned (restocked) | damaged | retired
//	damaged  ──> retired
type Status int

const (
	// StatusUndefined is the invalid zero value.
	StatusUndefined Status = iota
	Unassigned
	Reserved
	AssignedToOrder
	InTransit
	Sold
	Returned
	Damaged
	Retired
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		StatusUndefined: "undefined",
		Unassigned:      "unassigned",
		Reserved:        "reserved",
		AssignedToOrder: "assigned_to_order",
		InTransit:       "in_transit",
		Sold:            "sold",
		Returned:        "returned",
		Damaged:         "damaged",
		Retired:         "retired",
	}
}

func getTransitions() map[Status][]Status {
	//nolint:exhaustive // Retired and StatusUndefined have no outgoing edges
	return map[Status][]Status{
		Unassigned:      {Reserved, AssignedToOrder, Damaged, Retired},
		Reserved:        {AssignedToOrder, Unassigned},
		AssignedToOrder: {InTransit, Unassigned},
		InTransit:       {Sold, Returned, Damaged, Retired},
		Sold:            {Returned},
		Returned:        {Unassigned, Damaged, Retired},
		Damaged:         {Retired},
	}
}

// ParseStatus maps a persisted name back to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range getStatusStrings() {
		if name == s && status != StatusUndefined {
			return status, nil
		}
	}
	return StatusUndefined, errs.NewValueIsInvalidErrorWithCause("barcode status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) Validate() error {
	if s <= StatusUndefined || s > Retired {
		return errs.NewValueIsInvalidErrorWithCause("barcode status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "undefined"
}

// CanTransitionTo reports whether target is an edge of the unit status graph.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range getTransitions()[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsBound reports whether a unit in this status belongs to an open order.
func (s Status) IsBound() bool {
	return s == AssignedToOrder || s == InTransit
}
