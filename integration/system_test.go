//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"testing"
	"time"
)

var (
	baseURL    = getenv("E2E_BASE_URL", "http://localhost:8080")
	catalogURL = getenv("E2E_CATALOG_URL", "http://localhost:8082")
)

const sessionCookie = "rocketshoes_session"

type cartResp struct {
	Items []struct {
		ID     int     `json:"id"`
		Price  float64 `json:"price"`
		Amount int     `json:"amount"`
	} `json:"items"`
	Total         float64 `json:"total"`
	Count         int     `json:"count"`
	Notifications []struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"notifications"`
}

func TestSystem_E2E_Cart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, catalogURL+"/readyz")
	waitReady(t, ctx, baseURL+"/readyz")

	var products []struct {
		ID int `json:"id"`
	}
	doJSON(t, http.MethodGet, catalogURL+"/products", "", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected non-empty products")
	}
	pid := products[0].ID

	var stock struct {
		Amount int `json:"amount"`
	}
	doJSON(t, http.MethodGet, catalogURL+"/stock/"+itoa(pid), "", nil, &stock, 200)
	if stock.Amount < 2 {
		t.Skipf("product %d has stock %d, need at least 2", pid, stock.Amount)
	}

	token := newSession(t)

	var got cartResp
	doJSON(t, http.MethodPost, baseURL+"/cart/products/"+itoa(pid), token, nil, &got, 200)
	if len(got.Items) != 1 || got.Items[0].Amount != 1 {
		t.Fatalf("after add: %#v", got)
	}

	doJSON(t, http.MethodPut, baseURL+"/cart/products/"+itoa(pid), token, map[string]any{"amount": 2}, &got, 200)
	if got.Items[0].Amount != 2 || len(got.Notifications) != 0 {
		t.Fatalf("after update: %#v", got)
	}

	doJSON(t, http.MethodPut, baseURL+"/cart/products/"+itoa(pid), token, map[string]any{"amount": stock.Amount + 1}, &got, 200)
	if got.Items[0].Amount != 2 || len(got.Notifications) != 1 || got.Notifications[0].Kind != "out_of_stock" {
		t.Fatalf("after over-stock update: %#v", got)
	}

	if os.Getenv("E2E_RESTART_STOREFRONT") == "1" {
		restartStorefront(t, ctx)
		waitReady(t, ctx, baseURL+"/readyz")

		doJSON(t, http.MethodGet, baseURL+"/cart", token, nil, &got, 200)
		if len(got.Items) != 1 || got.Items[0].Amount != 2 {
			t.Fatalf("cart lost across restart: %#v", got)
		}
	}

	doJSON(t, http.MethodDelete, baseURL+"/cart/products/"+itoa(pid), token, nil, &got, 200)
	if len(got.Items) != 0 {
		t.Fatalf("after remove: %#v", got)
	}
}

func restartStorefront(t *testing.T, ctx context.Context) {
	t.Helper()

	out, err := exec.CommandContext(ctx, "docker", "compose", "restart", "storefront").CombinedOutput()
	if err != nil {
		t.Fatalf("restart storefront: %v\n%s", err, out)
	}
}

// newSession opens the cart once and returns the issued session token.
func newSession(t *testing.T) string {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/cart")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookie)
	return ""
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url, token string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
