package catalog_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fulfillment/internal/adapters/out/catalog"
	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *catalog.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/api/v1/variants/")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	client, err := catalog.NewClient(server.URL, time.Second)
	require.NoError(t, err)
	return client
}

func TestClient_GetVariant(t *testing.T) {
	productID := kernel.NewUUID()
	variantID := kernel.NewUUID()

	t.Run("active priced variant", func(t *testing.T) {
		client := serve(t, http.StatusOK,
			`{"id":"`+variantID.String()+`","product_id":"`+productID.String()+`","sku":"TSHIRT-RED-M","price":"450.00","active":true}`)

		v, err := client.GetVariant(t.Context(), variantID)
		require.NoError(t, err)
		assert.True(t, v.Exists)
		assert.True(t, v.Priceable)
		assert.True(t, v.ProductID.IsEqual(productID))
		assert.Equal(t, "TSHIRT-RED-M", v.SKU)
		assert.True(t, v.Price.IsEqual(kernel.MustMoney("450")))
	})

	t.Run("inactive variant is not priceable", func(t *testing.T) {
		client := serve(t, http.StatusOK,
			`{"id":"`+variantID.String()+`","product_id":"`+productID.String()+`","sku":"X","price":"10","active":false}`)

		v, err := client.GetVariant(t.Context(), variantID)
		require.NoError(t, err)
		assert.True(t, v.Exists)
		assert.False(t, v.Priceable)
	})

	t.Run("missing price is not priceable", func(t *testing.T) {
		client := serve(t, http.StatusOK,
			`{"id":"`+variantID.String()+`","product_id":"`+productID.String()+`","sku":"X","active":true}`)

		v, err := client.GetVariant(t.Context(), variantID)
		require.NoError(t, err)
		assert.False(t, v.Priceable)
	})

	t.Run("unknown variant", func(t *testing.T) {
		client := serve(t, http.StatusNotFound, `{"message":"not found"}`)

		v, err := client.GetVariant(t.Context(), variantID)
		require.NoError(t, err)
		assert.False(t, v.Exists)
	})

	t.Run("server error", func(t *testing.T) {
		client := serve(t, http.StatusInternalServerError, `boom`)

		_, err := client.GetVariant(t.Context(), variantID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}
