package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

func TestDefaultsDecode(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("decode defaults failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Cart.StorageKey != "scrole-cart" {
		t.Fatalf("unexpected storage key: %s", cfg.Cart.StorageKey)
	}
	if !cfg.Cart.FreeShippingAmount().Equal(decimal.NewFromInt(75)) {
		t.Fatalf("unexpected free shipping threshold: %s", cfg.Cart.FreeShippingAmount())
	}
	if cfg.Cart.MaxLineQuantity != 10 {
		t.Fatalf("unexpected max line quantity: %d", cfg.Cart.MaxLineQuantity)
	}
	if cfg.Catalog.ProductCacheTTL() != 300*time.Second || cfg.Catalog.CollectionCacheTTL() != 600*time.Second {
		t.Fatalf("unexpected cache ttl: %v %v", cfg.Catalog.ProductCacheTTL(), cfg.Catalog.CollectionCacheTTL())
	}
	if cfg.Session.Header != "X-Cart-Session" || cfg.Session.Cookie != "cart_session" {
		t.Fatalf("unexpected session transport: %+v", cfg.Session)
	}
	if cfg.Cart.Persistence.RedisTTL() != 720*time.Hour {
		t.Fatalf("unexpected redis ttl: %v", cfg.Cart.Persistence.RedisTTL())
	}
}

func TestYAMLOverridesDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	yaml := `
cart:
  storage_key: my-cart
  max_line_quantity: 0
  persistence:
    driver: memory
catalog:
  base_url: http://localhost:9000
`
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("read yaml failed: %v", err)
	}
	cfg, err := Decode(v)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if cfg.Cart.StorageKey != "my-cart" || cfg.Cart.MaxLineQuantity != 0 {
		t.Fatalf("yaml override not applied: %+v", cfg.Cart)
	}
	if cfg.Cart.Persistence.Driver != PersistenceDriverMemory {
		t.Fatalf("persistence driver want memory got %s", cfg.Cart.Persistence.Driver)
	}
	if cfg.Catalog.BaseURL != "http://localhost:9000" {
		t.Fatalf("catalog base url override not applied: %s", cfg.Catalog.BaseURL)
	}
	if cfg.Cart.SessionIdle() != 30*time.Minute {
		t.Fatalf("untouched defaults should survive: %v", cfg.Cart.SessionIdle())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		v := viper.New()
		SetDefaults(v)
		cfg, err := Decode(v)
		if err != nil {
			t.Fatalf("decode defaults failed: %v", err)
		}
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Cart.Persistence.Driver = "file" }},
		{name: "redis driver without redis", mutate: func(c *Config) { c.Cart.Persistence.Driver = PersistenceDriverRedis }},
		{name: "empty storage key", mutate: func(c *Config) { c.Cart.StorageKey = " " }},
		{name: "negative cap", mutate: func(c *Config) { c.Cart.MaxLineQuantity = -1 }},
		{name: "bad threshold", mutate: func(c *Config) { c.Cart.FreeShippingThreshold = "abc" }},
		{name: "empty secret", mutate: func(c *Config) { c.Session.Secret = "" }},
	}
	for _, tc := range cases {
		cfg := base()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	cfg := base()
	cfg.Redis.Enabled = true
	cfg.Cart.Persistence.Driver = PersistenceDriverRedis
	if err := cfg.Validate(); err != nil {
		t.Fatalf("redis driver with redis enabled should pass: %v", err)
	}
}
