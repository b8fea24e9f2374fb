package dispatch

import (
	"context"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Product-Intent-Agent/agent/contract"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/product"
	"github.com/tanpawarit/Chative-Product-Intent-Agent/agent/provider"
)

func newTestOrchestrator(t *testing.T, products ...contractx.NewProduct) *Orchestrator {
	t.Helper()

	store := product.NewMemStore()
	for _, p := range products {
		if _, err := store.Add(context.Background(), p); err != nil {
			t.Fatalf("seeding store: %v", err)
		}
	}
	srv, err := provider.NewServer(store)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	o, err := New(srv, Config{ToolCallTimeout: time.Second, QueryDeadline: 5 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func seedProducts() []contractx.NewProduct {
	return []contractx.NewProduct{
		{Name: "Laptop", Price: 50000, Category: "Electronics", InStock: true},
		{Name: "Mouse", Price: 1500, Category: "Electronics", InStock: true},
		{Name: "Keyboard", Price: 2500, Category: "Accessories", InStock: true},
	}
}

func TestHandleQueryListProducts(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "show all products")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if !strings.HasPrefix(resp.Message, "Here are the products I found:") {
		t.Fatalf("message = %q, want product listing", resp.Message)
	}
	if !strings.Contains(resp.Message, "• Laptop ($50000) - Electronics") {
		t.Fatalf("message = %q, missing laptop line", resp.Message)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0] != provider.OpListProducts {
		t.Fatalf("tool calls = %v, want [list_products]", resp.ToolCalls)
	}
	if len(resp.ToolResults) != 1 {
		t.Fatalf("tool results = %v, want one entry", resp.ToolResults)
	}
	if res := resp.ToolResults[0]; res.Tool != provider.OpListProducts || res.Error != "" || res.Result == nil {
		t.Fatalf("tool result = %+v, want successful list_products outcome", res)
	}
}

func TestHandleQueryEmptyCatalog(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)

	resp := o.HandleQuery(context.Background(), "show all products")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", resp.Status)
	}
	if resp.Message != "The catalog is currently empty." {
		t.Fatalf("message = %q, want empty-catalog message", resp.Message)
	}
}

func TestHandleQueryEmptyStats(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t)

	resp := o.HandleQuery(context.Background(), "what is the average price of products?")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if !strings.Contains(resp.Message, "catalog is currently empty") {
		t.Fatalf("message = %q, want explicit empty-state message", resp.Message)
	}
}

func TestHandleQueryStats(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "show me stats")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if resp.Message != "I found 3 products with an average price of $18000." {
		t.Fatalf("message = %q, want stats summary", resp.Message)
	}
	stats, ok := resp.Data.(contractx.ProductStats)
	if !ok {
		t.Fatalf("data = %T, want ProductStats", resp.Data)
	}
	if stats.Count != 3 || stats.MinPrice != 1500 || stats.MaxPrice != 50000 {
		t.Fatalf("stats = %+v, want count 3 min 1500 max 50000", stats)
	}
}

func TestHandleQueryGetProduct(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "show product 2")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if !strings.Contains(resp.Message, "The Mouse costs $1500.") {
		t.Fatalf("message = %q, want mouse details", resp.Message)
	}
}

func TestHandleQueryGetProductNotFound(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "show product 99")
	if resp.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", resp.Status)
	}
	if resp.Message != "I couldn't find a product matching '99' in the catalog." {
		t.Fatalf("message = %q, want not-found message", resp.Message)
	}
	if resp.Data != nil {
		t.Fatalf("data = %v, want nil on failure", resp.Data)
	}
	if len(resp.ToolResults) != 1 {
		t.Fatalf("tool results = %v, want one entry", resp.ToolResults)
	}
	if res := resp.ToolResults[0]; res.Tool != provider.OpGetProduct || res.Error == "" {
		t.Fatalf("tool result = %+v, want failed get_product outcome", res)
	}
}

func TestHandleQueryGetProductByMultiwordName(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, append(seedProducts(),
		contractx.NewProduct{Name: "Laptop Pro", Price: 90000, Category: "Electronics", InStock: true})...)

	resp := o.HandleQuery(context.Background(), "show me product laptop pro")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if !strings.Contains(resp.Message, "The Laptop Pro costs $90000.") {
		t.Fatalf("message = %q, want laptop pro details", resp.Message)
	}
}

func TestHandleQueryAddProduct(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "add product: Webcam, price: 3200, category: Electronics")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if resp.Message != "Successfully added 'Webcam' (ID: 4) to the catalog." {
		t.Fatalf("message = %q, want add confirmation", resp.Message)
	}

	// The new product is visible to subsequent queries.
	resp = o.HandleQuery(context.Background(), "show product 4")
	if resp.Status != StatusSucceeded || !strings.Contains(resp.Message, "Webcam") {
		t.Fatalf("follow-up lookup = %q (%s), want webcam details", resp.Message, resp.Status)
	}
}

func TestHandleQueryProductDiscount(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "make 15% discount on id 2")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	want := "The Mouse costs $1500. With a 15% discount, the price would be $1275.00."
	if resp.Message != want {
		t.Fatalf("message = %q, want %q", resp.Message, want)
	}
	if len(resp.ToolCalls) != 2 || resp.ToolCalls[0] != provider.OpGetProduct || resp.ToolCalls[1] != "calculator" {
		t.Fatalf("tool calls = %v, want [get_product calculator]", resp.ToolCalls)
	}
}

func TestHandleQueryDiscountOnPlainAmount(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "calculate 20% discount on 5000")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	want := "With a 20% discount, $5000 would be $4000.00."
	if resp.Message != want {
		t.Fatalf("message = %q, want %q", resp.Message, want)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0] != "calculator" {
		t.Fatalf("tool calls = %v, want [calculator]", resp.ToolCalls)
	}
}

func TestHandleQueryCalculate(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "what is 120 divided by 4")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if resp.Message != "The result is: 30" {
		t.Fatalf("message = %q, want calculation result", resp.Message)
	}
}

func TestHandleQueryFormatText(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "uppercase hello world")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded (message: %q)", resp.Status, resp.Message)
	}
	if resp.Message != "The result is: HELLO WORLD" {
		t.Fatalf("message = %q, want formatted text", resp.Message)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0] != "formatter" {
		t.Fatalf("tool calls = %v, want [formatter]", resp.ToolCalls)
	}
}

func TestHandleQueryUnrecognized(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	resp := o.HandleQuery(context.Background(), "sing me a song")
	if resp.Status != StatusSucceeded {
		t.Fatalf("status = %s, want succeeded", resp.Status)
	}
	if !strings.Contains(resp.Message, "calculator") || !strings.Contains(resp.Message, "formatter") {
		t.Fatalf("message = %q, want help text naming the tools", resp.Message)
	}
	if len(resp.ToolCalls) != 0 {
		t.Fatalf("tool calls = %v, want none for unrecognized query", resp.ToolCalls)
	}
}

func TestHandleQueryNeverPanicsAndAlwaysResponds(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	for _, q := range []string{"", "   ", "?!", "discount", "add product:", "🤖"} {
		resp := o.HandleQuery(context.Background(), q)
		if resp.Message == "" {
			t.Fatalf("HandleQuery(%q): empty message", q)
		}
		if resp.Status != StatusSucceeded && resp.Status != StatusFailed {
			t.Fatalf("HandleQuery(%q): status = %q", q, resp.Status)
		}
		if resp.QueryID == "" {
			t.Fatalf("HandleQuery(%q): missing query id", q)
		}
	}
}

func TestHandleQueryExpiredContext(t *testing.T) {
	t.Parallel()
	o := newTestOrchestrator(t, seedProducts()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := o.HandleQuery(ctx, "show all products")
	if resp.Status != StatusFailed {
		t.Fatalf("status = %s, want failed with expired context", resp.Status)
	}
}
