package catalog_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"RocketShoes/internal/catalog"
	"RocketShoes/pkg/kit"
)

func newTS(t *testing.T, reg *prometheus.Registry) *httptest.Server {
	t.Helper()

	s := &catalog.Server{Store: catalog.NewMemStore(), Log: zap.NewNop()}
	h := catalog.NewHandler(s, kit.HTTPDeps{
		Log:            zap.NewNop(),
		Service:        "catalog",
		Registry:       reg,
		MetricsEnabled: reg != nil,
		MetricsToken:   "metrics-token",
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCatalog_Products(t *testing.T) {
	ts := newTS(t, nil)

	var list []catalog.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products", &list))
	require.Len(t, list, 6)
	for i := range list {
		assert.Equal(t, i+1, list[i].ID)
	}

	var p catalog.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/3", &p))
	assert.Equal(t, "Tênis Adidas Duramo Lite 2.0", p.Title)
	assert.InDelta(t, 219.9, p.Price, 1e-9)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/products/99", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/products/abc", nil))
}

func TestCatalog_Stock(t *testing.T) {
	ts := newTS(t, nil)

	var st catalog.Stock
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/stock/1", &st))
	assert.Equal(t, catalog.Stock{ID: 1, Amount: 3}, st)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/stock/99", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/stock/0", nil))
}

func TestCatalog_Probes(t *testing.T) {
	ts := newTS(t, prometheus.NewRegistry())

	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/healthz", nil))
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/readyz", nil))
	assert.Equal(t, http.StatusForbidden, getJSON(t, ts.URL+"/metrics", nil))

	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/1", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/stock/42", nil))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/metrics", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer metrics-token")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `catalog_lookups_total{kind="product",result="hit"} 1`)
	assert.Contains(t, string(body), `catalog_lookups_total{kind="stock",result="miss"} 1`)
}
