// Package fulfillment holds the transactional engines of the service:
//   - StockReservationEngine reserves, commits, releases and restocks lot quantities
//   - BarcodeUnitRegistry issues barcodes and moves physical units through their graph
//   - InvoiceNumberAllocator numbers placed orders
//   - CourierHandoffCoordinator talks to the courier
//   - OrderLifecycleManager drives order transitions and their side effects
//
// Every engine method takes the Tx of the caller's unit of work. The engines never
// commit or roll back; the command handler that opened the unit of work does.
package fulfillment
