package ports

import "context"

const (
	CounterInvoiceNumber = "invoice_number"
	CounterBarcodeSerial = "barcode_serial"
)

// CounterRepository hands out named monotonic sequences. Increments are atomic and take
// part in the surrounding transaction.
type CounterRepository interface {
	// Increment adds one and returns the new value. A missing counter starts at 1.
	Increment(ctx context.Context, name string) (int64, error)

	// IncrementBy reserves n values and returns the last one; the range is
	// (last-n, last].
	IncrementBy(ctx context.Context, name string, n int64) (int64, error)
}
