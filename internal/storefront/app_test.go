package storefront_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"Vitrine/internal/cart"
	"Vitrine/internal/catalog"
	"Vitrine/internal/config"
	"Vitrine/internal/storefront"
)

const productsFixture = `[
  {"id":"p1","name":"Tênis Runner","price":199.9,"image":"/img/p1.jpg",
   "description":"**Leve** e confortável","category":"c1","isNew":true,"active":true},
  {"id":"p2","name":"Sandália","price":59.9,"category":"c2","active":true},
  {"id":"p3","name":"Fora de linha","price":10,"category":"c1","active":false}
]`

const categoriesFixture = `[
  {"id":"c1","name":"Tênis","active":true},
  {"id":"c2","name":"Sandálias","active":true},
  {"id":"c3","name":"Arquivado","active":false}
]`

const settingsFixture = `{
  "storeName":"Loja da Ana",
  "whatsappNumber":"5511999999999",
  "whatsappMessageTemplate":"Pedido: {{items}} | Total: {{total}}"
}`

const socialsFixture = `[{"id":"ig","name":"Instagram","url":"https://instagram.com/loja","active":true}]`

func newStorefrontTS(t *testing.T) *httptest.Server {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fixtures := map[string]string{
		"products.json":   productsFixture,
		"categories.json": categoriesFixture,
		"settings.json":   settingsFixture,
		"socials.json":    socialsFixture,
	}
	for name, body := range fixtures {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.Config{Addr: ":0", DataDir: root}

	h := storefront.NewHandler(
		storefront.Deps{
			Cfg:   cfg,
			Cache: catalog.NewCache(catalog.NewDirSource(root), zap.NewNop()),
			Carts: cart.NewRegistry(),
		},
		storefront.HTTPDeps{Log: zap.NewNop(), Service: "storefront"},
	)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{Jar: jar}
}

func getJSON(t *testing.T, c *http.Client, url string, v any) int {
	t.Helper()

	resp, err := c.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, c *http.Client, url string, body any, v any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	resp, err := c.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

type cartView struct {
	Items []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	} `json:"items"`
	IsOpen bool    `json:"is_open"`
	Count  int     `json:"count"`
	Total  float64 `json:"total"`
}

func TestListProductsActiveOnly(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var products []catalog.Product
	if status := getJSON(t, c, ts.URL+"/api/products", &products); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2 active", len(products))
	}
	for _, p := range products {
		if !p.Active {
			t.Errorf("inactive product %s surfaced", p.ID)
		}
	}
}

func TestListProductsByCategory(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var products []catalog.Product
	getJSON(t, c, ts.URL+"/api/products?category=c1", &products)
	if len(products) != 1 || products[0].ID != "p1" {
		t.Fatalf("category filter = %+v, want just p1", products)
	}
}

func TestProductDetailRendersDescription(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var detail struct {
		catalog.Product
		DescriptionHTML string `json:"description_html"`
	}
	if status := getJSON(t, c, ts.URL+"/api/products/p1", &detail); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(detail.DescriptionHTML, "<strong>") {
		t.Fatalf("description_html = %q", detail.DescriptionHTML)
	}
}

func TestProductNotFound(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	if status := getJSON(t, c, ts.URL+"/api/products/nope", nil); status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	// Inactive products are not found either.
	if status := getJSON(t, c, ts.URL+"/api/products/p3", nil); status != http.StatusNotFound {
		t.Fatalf("inactive status = %d, want 404", status)
	}
}

func TestCategoriesAndSocialsActiveOnly(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var categories []catalog.Category
	getJSON(t, c, ts.URL+"/api/categories", &categories)
	if len(categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(categories))
	}

	var socials []catalog.Social
	getJSON(t, c, ts.URL+"/api/socials", &socials)
	if len(socials) != 1 || socials[0].ID != "ig" {
		t.Fatalf("socials = %+v", socials)
	}
}

func TestCartFlow(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	var view cartView
	if status := getJSON(t, c, ts.URL+"/api/cart", &view); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if len(view.Items) != 0 || view.Total != 0 {
		t.Fatalf("fresh cart = %+v", view)
	}

	postJSON(t, c, ts.URL+"/api/cart/items", map[string]string{"product_id": "p1"}, &view)
	postJSON(t, c, ts.URL+"/api/cart/items", map[string]string{"product_id": "p1"}, &view)
	postJSON(t, c, ts.URL+"/api/cart/items", map[string]string{"product_id": "p2"}, &view)

	if len(view.Items) != 2 {
		t.Fatalf("items = %d, want 2 lines", len(view.Items))
	}
	if view.Items[0].ID != "p1" || view.Items[0].Quantity != 2 {
		t.Fatalf("first line = %+v", view.Items[0])
	}
	if view.Count != 3 {
		t.Fatalf("count = %d, want 3", view.Count)
	}

	// Update quantity via PUT.
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/cart/items/p2",
		strings.NewReader(`{"quantity":0}`))
	resp, err := c.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	json.NewDecoder(resp.Body).Decode(&view)
	resp.Body.Close()
	if len(view.Items) != 1 {
		t.Fatalf("after zeroing p2: items = %d, want 1", len(view.Items))
	}

	postJSON(t, c, ts.URL+"/api/cart/open", nil, &view)
	if !view.IsOpen {
		t.Fatal("cart not open")
	}
	postJSON(t, c, ts.URL+"/api/cart/close", nil, &view)
	if view.IsOpen {
		t.Fatal("cart still open")
	}
	if len(view.Items) != 1 {
		t.Fatal("open/close changed items")
	}
}

func TestCartsAreSessionScoped(t *testing.T) {
	ts := newStorefrontTS(t)
	a := newClient(t)
	b := newClient(t)

	var view cartView
	postJSON(t, a, ts.URL+"/api/cart/items", map[string]string{"product_id": "p1"}, &view)
	if len(view.Items) != 1 {
		t.Fatal("add failed")
	}

	getJSON(t, b, ts.URL+"/api/cart", &view)
	if len(view.Items) != 0 {
		t.Fatal("second session sees first session's cart")
	}
}

func TestAddUnknownOrInactiveProductRejected(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	if status := postJSON(t, c, ts.URL+"/api/cart/items",
		map[string]string{"product_id": "nope"}, nil); status != http.StatusBadRequest {
		t.Fatalf("unknown product status = %d, want 400", status)
	}
	if status := postJSON(t, c, ts.URL+"/api/cart/items",
		map[string]string{"product_id": "p3"}, nil); status != http.StatusBadRequest {
		t.Fatalf("inactive product status = %d, want 400", status)
	}
}

func TestCheckout(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	if status := postJSON(t, c, ts.URL+"/api/checkout", nil, nil); status != http.StatusBadRequest {
		t.Fatalf("empty cart checkout status = %d, want 400", status)
	}

	postJSON(t, c, ts.URL+"/api/cart/items", map[string]string{"product_id": "p2"}, nil)

	var out struct {
		Link string `json:"link"`
	}
	if status := postJSON(t, c, ts.URL+"/api/checkout", nil, &out); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	u, err := url.Parse(out.Link)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "api.whatsapp.com" {
		t.Fatalf("link host = %q", u.Host)
	}
	if u.Query().Get("phone") != "5511999999999" {
		t.Fatalf("phone = %q", u.Query().Get("phone"))
	}
	text := u.Query().Get("text")
	if !strings.Contains(text, "1x Sandália (R$ 59,90)") {
		t.Fatalf("text = %q", text)
	}
}

func TestStaticDataServed(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	resp, err := c.Get(ts.URL + "/data/products.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealthAndReady(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	if status := getJSON(t, c, ts.URL+"/healthz", nil); status != http.StatusOK {
		t.Fatalf("healthz = %d", status)
	}
	if status := getJSON(t, c, ts.URL+"/readyz", nil); status != http.StatusOK {
		t.Fatalf("readyz = %d", status)
	}
}

func TestAdminDisabledByDefault(t *testing.T) {
	ts := newStorefrontTS(t)
	c := newClient(t)

	if status := postJSON(t, c, ts.URL+"/admin/login",
		map[string]string{"password": "x"}, nil); status != http.StatusNotFound {
		t.Fatalf("admin login status = %d, want 404 when disabled", status)
	}
}
