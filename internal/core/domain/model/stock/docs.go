// Package stock models sellable inventory: lots received from purchases, the per
// (product, variant) GlobalStock counters and the reservations that hold lot quantity
// for order line items.
//
// Quantities only move through the methods of these types:
//
//	receive:  lot.available += n            global.available += n
//	reserve:  lot.available -> lot.reserved global.available -> global.reserved
//	release:  lot.reserved -> lot.available global.reserved -> global.available
//	commit:   lot.reserved -> lot.sold      global.reserved -> global.total_sold
//	restock:  lot.sold -> lot.available     global.total_sold -> global.available
//
// Every method checks its preconditions before touching a counter, so a failed call leaves
// the value unchanged.
package stock
