package apikey

import (
	"testing"

	"github.com/ksedova/fulltext/pkg/resilience"
)

func TestNewValidatorStartsWithClosedCircuit(t *testing.T) {
	v := NewValidator(nil)
	if got := v.CircuitState(); got != resilience.StateClosed {
		t.Fatalf("CircuitState() = %v, want %v", got, resilience.StateClosed)
	}
}

func TestHashKeyIsDeterministic(t *testing.T) {
	a := HashKey("secret-key")
	b := HashKey("secret-key")
	if a != b {
		t.Fatalf("HashKey not deterministic: %q != %q", a, b)
	}
	if a == HashKey("different-key") {
		t.Fatalf("HashKey collided for distinct inputs")
	}
}
