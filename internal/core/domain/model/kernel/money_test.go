package kernel_test

import (
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	t.Run("should round to two digits", func(t *testing.T) {
		m, err := kernel.NewMoney(decimal.RequireFromString("10.005"))

		require.NoError(t, err)
		assert.Equal(t, "10.01", m.String())
	})

	t.Run("should reject negative amounts", func(t *testing.T) {
		_, err := kernel.MoneyFromString("-1")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should reject garbage", func(t *testing.T) {
		_, err := kernel.MoneyFromString("ten")

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should add and multiply", func(t *testing.T) {
		price := kernel.MustMoney("199.99")

		subtotal := price.Times(3)
		total := subtotal.Add(kernel.MustMoney("0.03"))

		assert.Equal(t, "599.97", subtotal.String())
		assert.True(t, total.IsEqual(kernel.MustMoney("600")))
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var m kernel.Money

		require.ErrorIs(t, m.Validate(), errs.ErrValueIsRequired)
		require.NoError(t, kernel.ZeroMoney().Validate())
	})
}
