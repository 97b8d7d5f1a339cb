package barcode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"foodsense/internal/infrastructure/config"
	"foodsense/internal/pkg/common"
)

const cerealJSON = `{
  "status": 1,
  "product": {
    "product_name": "",
    "product_name_en": "Honey Crunch",
    "brands": "Acme",
    "ingredients_text": "Whole grain oats, sugar, honey (3%), salt.",
    "serving_size": "30 g",
    "nutriments": {
      "energy-kcal_serving": 120,
      "proteins_serving": "3.1",
      "sugars_serving": 9,
      "sodium_serving": 0.19,
      "energy-kcal_100g": 400
    }
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.BarcodeConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "foodsense-test"})
}

func TestLookup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/0123456789012.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "foodsense-test" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, cerealJSON)
	})

	p, err := c.Lookup(context.Background(), "0123456789012")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if p.ProductName != "Honey Crunch" || p.Brands != "Acme" {
		t.Errorf("product = %+v", p)
	}
	want := []string{"Whole grain oats", "sugar", "honey (3%)", "salt"}
	if !reflect.DeepEqual(p.Ingredients, want) {
		t.Errorf("ingredients = %#v", p.Ingredients)
	}
	if p.Nutrition == nil || p.NutritionBasis != "serving" {
		t.Fatalf("nutrition = %+v basis %s", p.Nutrition, p.NutritionBasis)
	}
	n := p.Nutrition
	if *n.Calories != 120 || *n.Protein != 3.1 || *n.Sodium != 190 || n.ServingSize != "30 g" {
		t.Errorf("facts = calories %v protein %v sodium %v serving %q", *n.Calories, *n.Protein, *n.Sodium, n.ServingSize)
	}
	if n.TotalFat != nil {
		t.Error("absent nutriments must stay nil")
	}
}

func TestLookupPer100g(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":1,"product":{"product_name":"Cola","ingredients_text":"water, sugar","nutriments":{"sugars_100g":10.6}}}`)
	})
	p, err := c.Lookup(context.Background(), "12345678")
	if err != nil {
		t.Fatal(err)
	}
	if p.NutritionBasis != "100g" || *p.Nutrition.TotalSugars != 10.6 || p.Nutrition.ServingSize != "100g" {
		t.Errorf("nutrition = %+v", p.Nutrition)
	}
}

func TestLookupErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"status zero", http.StatusOK, `{"status":0,"status_verbose":"product not found"}`, common.ErrProductNotFound},
		{"http 404", http.StatusNotFound, `{}`, common.ErrProductNotFound},
		{"upstream error", http.StatusBadGateway, `oops`, common.ErrUpstreamUnavailable},
		{"empty product", http.StatusOK, `{"status":1,"product":{"product_name":"Mystery"}}`, common.ErrProductNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			if _, err := c.Lookup(context.Background(), "12345678"); !errors.Is(err, tt.want) {
				t.Errorf("Lookup() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateCode(t *testing.T) {
	for _, code := range []string{"12345678", "01234567890123"} {
		if err := ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q) = %v", code, err)
		}
	}
	for _, code := range []string{"", "1234567", "123456789012345", "12345abc"} {
		if err := ValidateCode(code); !common.IsInputError(err) {
			t.Errorf("ValidateCode(%q) should be an input error, got %v", code, err)
		}
	}

	c := NewClient(config.BarcodeConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	if _, err := c.Lookup(context.Background(), "abc"); !common.IsInputError(err) {
		t.Errorf("invalid code must fail before any request, got %v", err)
	}
}
