package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/product"
)

func newTestClient(t *testing.T, seed ...contractx.NewProduct) *Client {
	t.Helper()

	store := product.NewMemStore()
	for _, p := range seed {
		if _, err := store.Add(context.Background(), p); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	srv, err := NewServer(store)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	client, err := NewClient(ClientConfig{URL: ts.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()
	client := newTestClient(t,
		contractx.NewProduct{Name: "Laptop", Price: 50000, Category: "Electronics", InStock: true},
		contractx.NewProduct{Name: "Mouse", Price: 1500, Category: "Electronics", InStock: true},
	)
	ctx := context.Background()

	products, err := client.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("ListProducts returned %d products, want 2", len(products))
	}

	p, err := client.GetProduct(ctx, "1")
	if err != nil {
		t.Fatalf("GetProduct by id: %v", err)
	}
	if p.Name != "Laptop" {
		t.Fatalf("GetProduct(1).Name = %q, want Laptop", p.Name)
	}

	p, err = client.GetProduct(ctx, "mouse")
	if err != nil {
		t.Fatalf("GetProduct by name: %v", err)
	}
	if p.ID != 2 || !p.InStock {
		t.Fatalf("GetProduct(mouse) = %+v, want id 2 in stock", p)
	}

	added, err := client.AddProduct(ctx, contractx.NewProduct{
		Name: "Keyboard", Price: 2500, Category: "Accessories", InStock: true,
	})
	if err != nil {
		t.Fatalf("AddProduct: %v", err)
	}
	if added.ID != 3 {
		t.Fatalf("AddProduct assigned id %d, want 3", added.ID)
	}

	stats, err := client.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.Count != 3 || stats.MinPrice != 1500 || stats.MaxPrice != 50000 {
		t.Fatalf("GetStats = %+v, want count 3 min 1500 max 50000", stats)
	}
	if stats.AveragePrice != 18000 {
		t.Fatalf("GetStats.AveragePrice = %v, want 18000", stats.AveragePrice)
	}
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)

	_, err := client.GetProduct(context.Background(), "42")
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClientValidation(t *testing.T) {
	t.Parallel()
	client := newTestClient(t)

	_, err := client.AddProduct(context.Background(), contractx.NewProduct{Name: "", Price: 10, Category: "X"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("empty name: err = %v, want ErrValidation", err)
	}

	_, err = client.AddProduct(context.Background(), contractx.NewProduct{Name: "Thing", Price: -5, Category: "X"})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("negative price: err = %v, want ErrValidation", err)
	}
}

func TestClientUnreachableServer(t *testing.T) {
	t.Parallel()

	client, err := NewClient(ClientConfig{URL: "http://127.0.0.1:1", Timeout: 500 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.ListProducts(context.Background()); !errors.Is(err, contractx.ErrToolUnavailable) {
		t.Fatalf("err = %v, want ErrToolUnavailable", err)
	}
}

func TestClientMalformedResponse(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	t.Cleanup(ts.Close)

	client, err := NewClient(ClientConfig{URL: ts.URL})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.GetStats(context.Background()); !errors.Is(err, contractx.ErrToolUnavailable) {
		t.Fatalf("err = %v, want ErrToolUnavailable", err)
	}
}

func TestClientMapsRemoteStatuses(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, contractx.ErrNotFound},
		{http.StatusBadRequest, contractx.ErrValidation},
		{http.StatusServiceUnavailable, contractx.ErrStoreUnavailable},
		{http.StatusGatewayTimeout, contractx.ErrTimeout},
		{http.StatusInternalServerError, contractx.ErrToolUnavailable},
	}
	for _, tc := range cases {
		status := tc.status
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":"synthetic failure"}`))
		}))

		client, err := NewClient(ClientConfig{URL: ts.URL})
		if err != nil {
			ts.Close()
			t.Fatalf("NewClient: %v", err)
		}
		_, err = client.GetProduct(context.Background(), "1")
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: err = %v, want %v", status, err, tc.want)
		}
	}
}

func TestClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{URL: ""}); err == nil {
		t.Fatal("NewClient with empty url: want error")
	}
	if _, err := NewClient(ClientConfig{URL: "://bad"}); err == nil {
		t.Fatal("NewClient with invalid url: want error")
	}
}

func TestServerRequiresStore(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(nil); err == nil {
		t.Fatal("NewServer(nil): want error")
	}
}

func TestHandlerServesEveryOp(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(product.NewMemStore())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	// A routed op always answers with a JSON envelope, even on failure;
	// an unrouted path gets the mux's plain-text 404.
	for _, op := range Ops() {
		resp, err := http.Post(ts.URL+"/tools/"+op, "application/json", strings.NewReader("{}"))
		if err != nil {
			t.Fatalf("POST %s: %v", op, err)
		}
		resp.Body.Close()
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Fatalf("op %s is not routed: status %d content-type %q", op, resp.StatusCode, ct)
		}
	}
}

func TestHandlerRejectsWrongMethod(t *testing.T) {
	t.Parallel()

	srv, err := NewServer(product.NewMemStore())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/tools/" + OpListProducts)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
	}
}
