package ports

import (
	"context"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
)

type ReconciliationKind string

const (
	ReconciliationPick   ReconciliationKind = "pick"
	ReconciliationReturn ReconciliationKind = "return"
)

// BarcodeReconciliation is the audit record of one parcel scan.
type BarcodeReconciliation struct {
	ID         kernel.UUID
	OrderID    kernel.UUID
	Kind       ReconciliationKind
	Expected   []string
	Scanned    []string
	Missing    []string
	Unexpected []string
	Matched    bool
	CreatedAt  time.Time
}

type ReconciliationRepository interface {
	Add(ctx context.Context, r BarcodeReconciliation) error
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]BarcodeReconciliation, error)
}
