package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.APIURL != "http://localhost:8080" {
		t.Fatalf("api url default: %q", cfg.APIURL)
	}
	if cfg.IDPURL != "http://localhost:8080/idp" {
		t.Fatalf("idp url default: %q", cfg.IDPURL)
	}
	if cfg.HTTPTimeout != 20*time.Second {
		t.Fatalf("timeout default: %v", cfg.HTTPTimeout)
	}
	if cfg.GuardWait {
		t.Fatalf("guard wait should default to fail-fast")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FLORA_API_URL", "https://shop.example")
	t.Setenv("FLORA_IDP_URL", "https://idp.example")
	t.Setenv("FLORA_IDP_CLIENT_ID", "client-9")
	t.Setenv("FLORA_HTTP_TIMEOUT", "5s")
	t.Setenv("FLORA_GUARD_WAIT", "true")

	cfg := Load()
	if cfg.APIURL != "https://shop.example" || cfg.IDPURL != "https://idp.example" {
		t.Fatalf("url overrides ignored: %+v", cfg)
	}
	if cfg.IDPClientID != "client-9" {
		t.Fatalf("client id override ignored: %q", cfg.IDPClientID)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("timeout override ignored: %v", cfg.HTTPTimeout)
	}
	if !cfg.GuardWait {
		t.Fatalf("guard wait override ignored")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("FLORA_HTTP_TIMEOUT", "not-a-duration")
	t.Setenv("FLORA_GUARD_WAIT", "not-a-bool")

	cfg := Load()
	if cfg.HTTPTimeout != 20*time.Second {
		t.Fatalf("malformed timeout should fall back: %v", cfg.HTTPTimeout)
	}
	if cfg.GuardWait {
		t.Fatalf("malformed bool should fall back")
	}
}
