// Package barcode models individually identifiable stock units. Each unit carries a unique
// EAN-13 barcode, follows its own status graph independent of aggregate stock counts and
// keeps an append-only log of every status change.
package barcode
