package config

import (
	"testing"
)

func TestFlatten_Nested(t *testing.T) {
	m := map[string]any{
		"feed": map[string]any{
			"url":            "wss://events.example.com",
			"redis_password": "hunter22",
		},
		"log_level": "info",
	}
	got := Flatten(m)
	if got["feed.url"] != "wss://events.example.com" {
		t.Errorf("expected feed.url, got %v", got["feed.url"])
	}
	if got["feed.redis_password"] != "hunter22" {
		t.Errorf("expected feed.redis_password=hunter22, got %v", got["feed.redis_password"])
	}
	if got["log_level"] != "info" {
		t.Errorf("expected log_level=info, got %v", got["log_level"])
	}
	if len(got) != 3 {
		t.Errorf("expected 3 keys, got %d", len(got))
	}
}

func TestFlatten_DeeplyNested(t *testing.T) {
	m := map[string]any{
		"events": map[string]any{
			"filters": map[string]any{
				"repo": []any{"a", "b"},
			},
		},
	}
	got := Flatten(m)
	list, ok := got["events.filters.repo"].([]any)
	if !ok || len(list) != 2 {
		t.Errorf("expected events.filters.repo to stay a list, got %v", got["events.filters.repo"])
	}
	if len(got) != 1 {
		t.Errorf("expected 1 key, got %d", len(got))
	}
}

func TestFlatten_EmptyNestedMap(t *testing.T) {
	got := Flatten(map[string]any{"a": map[string]any{}})
	if len(got) != 0 {
		t.Errorf("expected 0 keys (empty nested map produces nothing), got %d", len(got))
	}
}

func TestUnflatten_Nested(t *testing.T) {
	got := Unflatten(map[string]any{
		"http.addr":            ":8080",
		"http.max_subscribers": 64.0,
		"log_level":            "debug",
	})

	http, ok := got["http"].(map[string]any)
	if !ok {
		t.Fatalf("expected http to be map, got %T", got["http"])
	}
	if http["addr"] != ":8080" {
		t.Errorf("expected http.addr=:8080, got %v", http["addr"])
	}
	if http["max_subscribers"] != 64.0 {
		t.Errorf("expected http.max_subscribers=64, got %v", http["max_subscribers"])
	}
	if got["log_level"] != "debug" {
		t.Errorf("expected log_level=debug, got %v", got["log_level"])
	}
}

func TestUnflatten_NestedKeyReplacesScalar(t *testing.T) {
	got := Unflatten(map[string]any{"a": "x", "a.b": "y"})
	child, ok := got["a"].(map[string]any)
	if !ok {
		t.Fatalf("expected a to be a map, got %T", got["a"])
	}
	if child["b"] != "y" {
		t.Errorf("expected a.b=y, got %v", child["b"])
	}
}

func TestFlatten_SiblingPathsDoNotAlias(t *testing.T) {
	m := map[string]any{
		"x": map[string]any{
			"y": map[string]any{"a": 1.0, "b": 2.0, "c": 3.0},
			"z": map[string]any{"d": 4.0},
		},
	}
	got := Flatten(m)
	for _, k := range []string{"x.y.a", "x.y.b", "x.y.c", "x.z.d"} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing key %s in %v", k, got)
		}
	}
	if len(got) != 4 {
		t.Errorf("expected 4 keys, got %d", len(got))
	}
}

func TestRoundTrip_FlattenUnflatten(t *testing.T) {
	original := map[string]any{
		"telegram": map[string]any{"token": "123:abc"},
		"geo": map[string]any{
			"default_location": "Virginia, USA",
			"default_lat":      37.926868,
		},
		"retention_days": 8.0,
	}
	restored := Unflatten(Flatten(original))

	geo := restored["geo"].(map[string]any)
	if geo["default_location"] != "Virginia, USA" {
		t.Errorf("geo.default_location mismatch: %v", geo["default_location"])
	}
	if geo["default_lat"] != 37.926868 {
		t.Errorf("geo.default_lat mismatch: %v", geo["default_lat"])
	}
	if restored["telegram"].(map[string]any)["token"] != "123:abc" {
		t.Errorf("telegram.token mismatch")
	}
	if restored["retention_days"] != 8.0 {
		t.Errorf("retention_days mismatch: %v", restored["retention_days"])
	}
}

func TestMaskSecrets(t *testing.T) {
	got := MaskSecrets(map[string]any{
		"telegram.token":      "123456:ABCDEFwxyz",
		"feed.redis_password": "ab",
		"feed.url":            "wss://events.example.com",
	})
	if got["telegram.token"] != "***wxyz" {
		t.Errorf("expected ***wxyz, got %v", got["telegram.token"])
	}
	if got["feed.redis_password"] != "***ab" {
		t.Errorf("expected ***ab for short secret, got %v", got["feed.redis_password"])
	}
	if got["feed.url"] != "wss://events.example.com" {
		t.Errorf("non-secret should be unchanged, got %v", got["feed.url"])
	}
}

func TestMaskSecrets_EmptySecret(t *testing.T) {
	got := MaskSecrets(map[string]any{"telegram.token": ""})
	if got["telegram.token"] != "" {
		t.Errorf("expected empty string to remain empty, got %v", got["telegram.token"])
	}
}

func TestIsSecretKey(t *testing.T) {
	if !IsSecretKey("telegram.token") || !IsSecretKey("feed.redis_password") {
		t.Error("expected token and redis password to be secret")
	}
	if IsSecretKey("feed.url") {
		t.Error("feed.url should not be secret")
	}
}
