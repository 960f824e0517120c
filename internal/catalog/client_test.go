package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "250" {
			t.Errorf("unexpected limit: %s", r.URL.Query().Get("limit"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"products":[
			{"id":1,"title":"Longboard","handle":"longboard","vendor":"Surf Co","product_type":"Boards","tags":["Beginner","Foam"],
			 "variants":[{"id":11,"title":"9ft","price":"499.00","compare_at_price":"599.00","available":true}],
			 "images":[{"id":101,"src":"https://cdn.example.com/longboard.jpg","position":1}],
			 "published_at":"2024-03-01T10:00:00-05:00"}
		]}`))
	})
	mux.HandleFunc("/products/wax.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product":{"id":2,"title":"Surf Wax","handle":"wax","tags":"Wax, Accessories ,",
			"variants":[{"id":21,"title":"Default Title","price":"4.50","compare_at_price":null,"available":true}]}}`))
	})
	mux.HandleFunc("/collections/boards/products.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("unexpected collection limit: %s", r.URL.Query().Get("limit"))
		}
		_, _ = w.Write([]byte(`{"products":[]}`))
	})
	mux.HandleFunc("/collections.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"collections":[{"id":7,"handle":"boards","title":"Boards","description":"All boards"}]}`))
	})
	mux.HandleFunc("/broken.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClientFetchProducts(t *testing.T) {
	server := newTestCatalogServer(t)
	client, err := NewClient(Config{BaseURL: server.URL + "/"}, server.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	products, err := client.FetchProducts(context.Background(), 0)
	if err != nil {
		t.Fatalf("fetch products failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products want 1 got %d", len(products))
	}
	p := products[0]
	if p.Handle != "longboard" || len(p.Tags) != 2 || p.Tags[1] != "Foam" {
		t.Fatalf("unexpected product: %+v", p)
	}
	v, ok := p.VariantByID(11)
	if !ok || v.Price != "499.00" || !v.OnSale() {
		t.Fatalf("unexpected variant: %+v ok=%v", v, ok)
	}
	if p.PublishedTime().IsZero() {
		t.Fatalf("published time should parse")
	}
}

func TestClientFetchProductCommaSeparatedTags(t *testing.T) {
	server := newTestCatalogServer(t)
	client, err := NewClient(Config{BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	product, err := client.FetchProduct(context.Background(), "wax")
	if err != nil {
		t.Fatalf("fetch product failed: %v", err)
	}
	if len(product.Tags) != 2 || product.Tags[0] != "Wax" || product.Tags[1] != "Accessories" {
		t.Fatalf("unexpected tags: %#v", product.Tags)
	}
	if product.Variants[0].OnSale() {
		t.Fatalf("variant without compare-at price should not be on sale")
	}
}

func TestClientFetchProductNotFound(t *testing.T) {
	server := newTestCatalogServer(t)
	client, err := NewClient(Config{BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	if _, err := client.FetchProduct(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := client.FetchProduct(context.Background(), "  "); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed for empty handle, got %v", err)
	}
}

func TestClientFetchCollectionsAndCollectionProducts(t *testing.T) {
	server := newTestCatalogServer(t)
	client, err := NewClient(Config{BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	collections, err := client.FetchCollections(context.Background(), 10)
	if err != nil {
		t.Fatalf("fetch collections failed: %v", err)
	}
	if len(collections) != 1 || collections[0].Handle != "boards" {
		t.Fatalf("unexpected collections: %+v", collections)
	}

	products, err := client.FetchProductsByCollection(context.Background(), "boards", 5)
	if err != nil {
		t.Fatalf("fetch collection products failed: %v", err)
	}
	if products == nil || len(products) != 0 {
		t.Fatalf("expected empty non-nil product slice, got %#v", products)
	}
}

func TestClientInvalidResponse(t *testing.T) {
	server := newTestCatalogServer(t)
	client, err := NewClient(Config{BaseURL: server.URL}, server.Client())
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}

	var dest productsEnvelope
	if err := client.getJSON(context.Background(), "/broken.json", nil, &dest); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected ErrResponseInvalid, got %v", err)
	}
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	if _, err := NewClient(Config{BaseURL: "not a url"}, nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected ErrConfigInvalid, got %v", err)
	}
	client, err := NewClient(Config{}, nil)
	if err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("unexpected default base url: %s", client.BaseURL())
	}
}

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		limit, fallback, want int
	}{
		{limit: 0, fallback: 50, want: 50},
		{limit: -3, fallback: 0, want: MaxPageLimit},
		{limit: 1000, fallback: 50, want: MaxPageLimit},
		{limit: 12, fallback: 50, want: 12},
	}
	for _, tc := range cases {
		if got := NormalizeLimit(tc.limit, tc.fallback); got != tc.want {
			t.Fatalf("NormalizeLimit(%d,%d) want %d got %d", tc.limit, tc.fallback, tc.want, got)
		}
	}
}
