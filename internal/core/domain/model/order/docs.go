// Package order holds the Order aggregate: line items, totals, invoice and tracking data,
// admin notes and the status lifecycle.
//
// The lifecycle is a fixed table of edges (see getTransitions). TransitionTo validates
// against it and records a StatusChangedEvent; side effects on stock and barcode units are
// the job of the application layer, which calls the Mark* methods to record their results.
package order
