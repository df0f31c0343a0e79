package fulfillment

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "fulfillment"

type instruments struct {
	tracer trace.Tracer

	reservationsGranted  metric.Int64Counter
	reservationsRejected metric.Int64Counter
	transitions          metric.Int64Counter
	transferAttempts     metric.Int64Counter
}

// newInstruments binds to the global providers, so it must run after cmd installed them.
// Instruments that fail to register fall back to no-ops.
func newInstruments() *instruments {
	meter := otel.Meter(instrumentationName)
	fallback := noop.Int64Counter{}

	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			return fallback
		}
		return c
	}

	return &instruments{
		tracer:               otel.Tracer(instrumentationName),
		reservationsGranted:  counter("fulfillment.reservations.granted", "Units reserved from lots"),
		reservationsRejected: counter("fulfillment.reservations.rejected", "Reserve calls rejected for insufficient stock"),
		transitions:          counter("fulfillment.order.transitions", "Order status transitions"),
		transferAttempts:     counter("fulfillment.courier.transfer.attempts", "Courier transfer attempts"),
	}
}
