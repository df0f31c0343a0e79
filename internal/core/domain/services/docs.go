// Package services holds stateless domain services that work across aggregates:
//   - LotAllocator plans which lots a reservation draws from
//   - InvoiceNumberer formats invoice numbers
//   - BarcodeReconciler compares scanned barcodes with the units bound to an order
//
// None of them touch storage; the application layer loads the aggregates, calls the
// service and persists the outcome.
package services
