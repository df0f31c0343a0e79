package barcode

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

var ErrUnitIsNotConstructed = errors.New("Unit must be created via NewUnit or RestoreUnit")

// Condition is the physical state of a unit, set on intake and on return inspection.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionDamaged   Condition = "damaged"
	ConditionDefective Condition = "defective"
)

func (c Condition) Validate() error {
	switch c {
	case ConditionNew, ConditionDamaged, ConditionDefective:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("condition", fmt.Errorf("%q is not a valid condition", string(c)))
	}
}

// Sellable reports whether a unit in this condition may go back to available stock.
func (c Condition) Sellable() bool {
	return c == ConditionNew
}

// LogEntry is one immutable record of the unit's status log.
type LogEntry struct {
	Seq           int
	Status        Status
	Name          string
	Role          kernel.Role
	Note          string
	SystemMessage string
	Date          time.Time
}

// Unit is one physical item identified by its barcode.
//
// Invariants:
//   - the status only moves along the edges of the unit status graph
//   - the log is append-only and its dates never go backwards
//   - the unit is bound to at most one open order
//   - isUsed becomes true when the unit is sold and is never cleared
type Unit struct {
	barcode    string
	sku        string
	productID  kernel.UUID
	variantID  kernel.UUID
	lotID      *kernel.UUID
	status     Status
	condition  Condition
	isUsed     bool
	orderID    *kernel.UUID
	lineItemID *kernel.UUID
	createdAt  time.Time
	updatedAt  time.Time

	lastSeq    int
	lastLogAt  time.Time
	newEntries []LogEntry

	isConstructed bool
}

// UnitSnapshot is the persisted form of a Unit without its log.
type UnitSnapshot struct {
	Barcode    string
	SKU        string
	ProductID  kernel.UUID
	VariantID  kernel.UUID
	LotID      *kernel.UUID
	Status     Status
	Condition  Condition
	IsUsed     bool
	OrderID    *kernel.UUID
	LineItemID *kernel.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastLogSeq int
	LastLogAt  time.Time
}

// NewUnit issues a fresh unassigned unit and writes its first log entry.
func NewUnit(
	code, sku string,
	productID, variantID kernel.UUID,
	lotID *kernel.UUID,
	actor kernel.Actor,
	now time.Time,
) (*Unit, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	u, err := RestoreUnit(UnitSnapshot{
		Barcode:   code,
		SKU:       sku,
		ProductID: productID,
		VariantID: variantID,
		LotID:     lotID,
		Status:    Unassigned,
		Condition: ConditionNew,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	u.appendLog(actor, "", "barcode generated", now)
	return u, nil
}

// RestoreUnit rebuilds a unit from storage.
func RestoreUnit(s UnitSnapshot) (*Unit, error) {
	if err := errors.Join(
		ValidateEAN13(s.Barcode),
		s.ProductID.Validate(),
		s.VariantID.Validate(),
		s.Status.Validate(),
		s.Condition.Validate(),
	); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.SKU) == "" {
		return nil, errs.NewValueIsRequiredError("sku")
	}
	if s.Status.IsBound() && s.OrderID == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("barcode unit",
			fmt.Errorf("%s is %s without an order", s.Barcode, s.Status))
	}
	if s.Status == Sold && !s.IsUsed {
		return nil, errs.NewValueIsInvalidErrorWithCause("barcode unit",
			fmt.Errorf("%s is sold but not marked used", s.Barcode))
	}

	return &Unit{
		barcode:       s.Barcode,
		sku:           strings.TrimSpace(s.SKU),
		productID:     s.ProductID,
		variantID:     s.VariantID,
		lotID:         copyID(s.LotID),
		status:        s.Status,
		condition:     s.Condition,
		isUsed:        s.IsUsed,
		orderID:       copyID(s.OrderID),
		lineItemID:    copyID(s.LineItemID),
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		lastSeq:       s.LastLogSeq,
		lastLogAt:     s.LastLogAt,
		isConstructed: true,
	}, nil
}

func (u *Unit) Validate() error {
	if u == nil || !u.isConstructed {
		return ErrUnitIsNotConstructed
	}
	return nil
}

func (u *Unit) Snapshot() UnitSnapshot {
	return UnitSnapshot{
		Barcode:    u.barcode,
		SKU:        u.sku,
		ProductID:  u.productID,
		VariantID:  u.variantID,
		LotID:      copyID(u.lotID),
		Status:     u.status,
		Condition:  u.condition,
		IsUsed:     u.isUsed,
		OrderID:    copyID(u.orderID),
		LineItemID: copyID(u.lineItemID),
		CreatedAt:  u.createdAt,
		UpdatedAt:  u.updatedAt,
		LastLogSeq: u.lastSeq,
		LastLogAt:  u.lastLogAt,
	}
}

func (u *Unit) Barcode() string {
	return u.barcode
}

func (u *Unit) SKU() string {
	return u.sku
}

func (u *Unit) ProductID() kernel.UUID {
	return u.productID
}

func (u *Unit) VariantID() kernel.UUID {
	return u.variantID
}

func (u *Unit) LotID() *kernel.UUID {
	return copyID(u.lotID)
}

func (u *Unit) Status() Status {
	return u.status
}

func (u *Unit) Condition() Condition {
	return u.condition
}

func (u *Unit) IsUsed() bool {
	return u.isUsed
}

func (u *Unit) OrderID() *kernel.UUID {
	return copyID(u.orderID)
}

func (u *Unit) LineItemID() *kernel.UUID {
	return copyID(u.lineItemID)
}

func (u *Unit) UpdatedAt() time.Time {
	return u.updatedAt
}

// IsBoundTo reports whether the unit currently belongs to the given order.
func (u *Unit) IsBoundTo(orderID kernel.UUID) bool {
	return u.orderID != nil && u.orderID.IsEqual(orderID)
}

// PendingLogEntries returns entries appended since the unit was loaded.
func (u *Unit) PendingLogEntries() []LogEntry {
	entries := make([]LogEntry, len(u.newEntries))
	copy(entries, u.newEntries)
	return entries
}

// ClearPendingLogEntries is called by repositories once the entries are stored.
func (u *Unit) ClearPendingLogEntries() {
	u.newEntries = nil
}

// BindToLot attaches a generated unit to the lot it physically arrived in.
func (u *Unit) BindToLot(lotID kernel.UUID, actor kernel.Actor, now time.Time) error {
	if err := lotID.Validate(); err != nil {
		return err
	}
	if u.lotID != nil {
		if u.lotID.IsEqual(lotID) {
			return nil
		}
		return errs.NewValueIsInvalidErrorWithCause("barcode unit",
			fmt.Errorf("%s already belongs to lot %s", u.barcode, u.lotID))
	}
	if u.status != Unassigned {
		return &StatusTransitionError{Barcode: u.barcode, From: u.status, To: Unassigned}
	}

	u.lotID = &lotID
	u.appendLog(actor, "", fmt.Sprintf("bound to lot %s", lotID), now)
	return nil
}

// AssignToOrder binds the unit to an order line item.
func (u *Unit) AssignToOrder(orderID, lineItemID kernel.UUID, actor kernel.Actor, now time.Time) error {
	if err := errors.Join(orderID.Validate(), lineItemID.Validate()); err != nil {
		return err
	}
	if u.orderID != nil && u.status.IsBound() && !u.orderID.IsEqual(orderID) {
		return fmt.Errorf("%w: %s belongs to order %s", ErrUnitAlreadyBound, u.barcode, u.orderID)
	}
	if !u.status.CanTransitionTo(AssignedToOrder) {
		return &StatusTransitionError{Barcode: u.barcode, From: u.status, To: AssignedToOrder}
	}

	u.orderID = &orderID
	u.lineItemID = &lineItemID
	u.status = AssignedToOrder
	u.appendLog(actor, "", fmt.Sprintf("assigned to order %s", orderID), now)
	return nil
}

// ChangeStatus moves the unit along its graph and logs the change. Selling marks the unit
// used; moving back to unassigned drops the order binding.
func (u *Unit) ChangeStatus(target Status, actor kernel.Actor, note, systemMessage string, now time.Time) error {
	if err := errors.Join(target.Validate(), actor.Validate()); err != nil {
		return err
	}
	if target == AssignedToOrder {
		return errs.NewValueIsInvalidErrorWithCause("barcode status",
			errors.New("assigned_to_order is reached through AssignToOrder"))
	}
	if !u.status.CanTransitionTo(target) {
		return &StatusTransitionError{Barcode: u.barcode, From: u.status, To: target}
	}
	if target == Unassigned && u.status == Returned && !u.condition.Sellable() {
		return errs.NewValueIsInvalidErrorWithCause("barcode status",
			fmt.Errorf("%s is %s and cannot be restocked", u.barcode, u.condition))
	}

	u.status = target
	if target == Sold {
		u.isUsed = true
	}
	if target == Unassigned {
		u.orderID = nil
		u.lineItemID = nil
	}
	u.appendLog(actor, note, systemMessage, now)
	return nil
}

// Inspect records the condition found on return.
func (u *Unit) Inspect(condition Condition) error {
	if err := condition.Validate(); err != nil {
		return err
	}
	u.condition = condition
	return nil
}

func (u *Unit) appendLog(actor kernel.Actor, note, systemMessage string, now time.Time) {
	date := now
	if date.Before(u.lastLogAt) {
		date = u.lastLogAt
	}
	u.lastSeq++
	u.lastLogAt = date
	u.updatedAt = date
	u.newEntries = append(u.newEntries, LogEntry{
		Seq:           u.lastSeq,
		Status:        u.status,
		Name:          actor.Name(),
		Role:          actor.Role(),
		Note:          strings.TrimSpace(note),
		SystemMessage: systemMessage,
		Date:          date,
	})
}

func copyID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
