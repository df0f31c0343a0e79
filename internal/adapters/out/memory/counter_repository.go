package memory

import (
	"context"
	"fmt"
	"strings"

	"fulfillment/internal/pkg/errs"
)

type counterRepository struct {
	uow *UnitOfWork
}

func (r *counterRepository) Increment(ctx context.Context, name string) (int64, error) {
	return r.IncrementBy(ctx, name, 1)
}

func (r *counterRepository) IncrementBy(_ context.Context, name string, n int64) (int64, error) {
	if strings.TrimSpace(name) == "" {
		return 0, errs.NewValueIsRequiredError("counter name")
	}
	if n <= 0 {
		return 0, errs.NewValueIsInvalidErrorWithCause("counter increment", fmt.Errorf("%d is not greater than 0", n))
	}
	var value int64
	err := r.uow.do(func(st *state) error {
		st.counters[name] += n
		value = st.counters[name]
		return nil
	})
	return value, err
}
