package envutil

import "testing"

func TestString(t *testing.T) {
	t.Setenv("A_VAR", "")
	t.Setenv("B_VAR", " b ")
	if got := String("def", "A_VAR", "B_VAR"); got != "b" {
		t.Errorf("String = %q", got)
	}
	if got := String("def", "A_VAR"); got != "def" {
		t.Errorf("String = %q", got)
	}
}

func TestInt(t *testing.T) {
	t.Setenv(ConcurrencyVar, "4")
	if got := Int(ConcurrencyVar, 1); got != 4 {
		t.Errorf("Int = %d", got)
	}
	t.Setenv(ConcurrencyVar, "many")
	if got := Int(ConcurrencyVar, 1); got != 1 {
		t.Errorf("invalid value should fall back, got %d", got)
	}
}

func TestAPIKeyFallback(t *testing.T) {
	t.Setenv(APIKeyVar, "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("API_KEY", "legacy")
	if got := APIKey(); got != "legacy" {
		t.Errorf("APIKey = %q", got)
	}
	t.Setenv(APIKeyVar, "primary")
	if got := APIKey(); got != "primary" {
		t.Errorf("APIKey = %q", got)
	}
}
