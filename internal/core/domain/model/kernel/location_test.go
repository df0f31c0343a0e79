package kernel_test

import (
	"strings"
	"testing"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	t.Run("should normalize the code", func(t *testing.T) {
		loc, err := kernel.NewLocation("  dhaka-wh1 ")

		require.NoError(t, err)
		assert.Equal(t, "DHAKA-WH1", loc.Code())
		assert.True(t, loc.IsEqual(kernel.MustNewLocation("DHAKA-WH1")))
	})

	t.Run("should reject invalid codes", func(t *testing.T) {
		testCases := map[string]error{
			"":                      errs.ErrValueIsRequired,
			"   ":                   errs.ErrValueIsRequired,
			"bin 4":                 errs.ErrValueIsInvalid,
			"-leading":              errs.ErrValueIsInvalid,
			strings.Repeat("A", 65): errs.ErrValueIsOutOfRange,
		}
		for input, expected := range testCases {
			_, err := kernel.NewLocation(input)
			require.ErrorIs(t, err, expected, input)
		}
	})

	t.Run("zero value is not constructed", func(t *testing.T) {
		var loc kernel.Location

		require.ErrorIs(t, loc.Validate(), errs.ErrValueIsRequired)
	})
}
