package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Well-known resource paths inside the data tree. The storefront only ever
// reads whole files; there is no per-record endpoint upstream.
const (
	PathProducts   = "/data/products.json"
	PathCategories = "/data/categories.json"
	PathSettings   = "/data/settings.json"
	PathSocials    = "/data/socials.json"
)

// Price tolerates the loose typing of hand-edited catalog files: a JSON
// number, a numeric string, or garbage, which coerces to zero rather than
// failing the whole document.
type Price float64

func (p *Price) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*p = 0
		return nil
	}

	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			*p = 0
			return nil
		}
		s = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*p = 0
		return nil
	}

	*p = Price(v)
	return nil
}

// Product field names follow the published JSON catalog, which is edited by
// hand and consumed by more than one client.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       Price  `json:"price"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsNew       bool   `json:"isNew"`
	Active      bool   `json:"active"`
}

type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Settings struct {
	StoreName               string `json:"storeName"`
	WhatsappNumber          string `json:"whatsappNumber"`
	WhatsappMessageTemplate string `json:"whatsappMessageTemplate"`
	CurrencySymbol          string `json:"currencySymbol,omitempty"`
}

type Social struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}
