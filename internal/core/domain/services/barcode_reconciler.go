package services

import (
	"slices"
	"strings"
)

// Reconciliation is the outcome of comparing scanned barcodes with expected ones.
type Reconciliation struct {
	Expected   []string
	Scanned    []string
	Missing    []string
	Unexpected []string
}

func (r Reconciliation) Matched() bool {
	return len(r.Missing) == 0 && len(r.Unexpected) == 0
}

// BarcodeReconciler compares the scan of a parcel with the units bound to its order.
// A barcode scanned twice counts once as expected and once as unexpected.
type BarcodeReconciler struct{}

func NewBarcodeReconciler() BarcodeReconciler {
	return BarcodeReconciler{}
}

func (BarcodeReconciler) Reconcile(expected, scanned []string) Reconciliation {
	result := Reconciliation{
		Expected: normalize(expected),
		Scanned:  normalize(scanned),
	}
	pending := make(map[string]int, len(result.Expected))
	for _, code := range result.Expected {
		pending[code]++
	}
	for _, code := range result.Scanned {
		if pending[code] > 0 {
			pending[code]--
			continue
		}
		result.Unexpected = append(result.Unexpected, code)
	}
	for code, left := range pending {
		for range left {
			result.Missing = append(result.Missing, code)
		}
	}
	slices.Sort(result.Missing)
	slices.Sort(result.Unexpected)
	return result
}

func normalize(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		if code = strings.TrimSpace(code); code != "" {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}
