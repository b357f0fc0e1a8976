package membarrier

import (
	"errors"
	"testing"
)

func TestLookupError(t *testing.T) {
	_, err := Lookup("wasm", Memory, General)
	if err == nil {
		t.Fatal("Expected error for wasm")
	}

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if e.Op != "LOOKUP" {
		t.Errorf("Expected Op=LOOKUP, got %s", e.Op)
	}
	if e.Code != ErrCodeUnsupportedArchitecture {
		t.Errorf("Expected Code=ErrCodeUnsupportedArchitecture, got %s", e.Code)
	}

	expected := "membarrier: UnsupportedArchitecture: no fence table for wasm (op=LOOKUP, arch=wasm)"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
}

func TestLookupSupported(t *testing.T) {
	name, err := Lookup("arm64", Dma, Load)
	if err != nil {
		t.Fatalf("Lookup(arm64, dma, load): %v", err)
	}
	if name != "dmb oshld" {
		t.Errorf("Expected dmb oshld, got %q", name)
	}

	name, err = Lookup("amd64", Compiler, Store)
	if err != nil {
		t.Fatalf("Lookup(amd64, compiler, store): %v", err)
	}
	if name != "" {
		t.Errorf("Expected no instruction for a compiler barrier, got %q", name)
	}
}

func TestSentinelErrors(t *testing.T) {
	structuredErr := &Error{Code: ErrCodeUnsupportedArchitecture, Msg: "no fence table for sparc"}
	if !errors.Is(structuredErr, ErrUnsupportedArchitecture) {
		t.Error("Structured error should match sentinel via errors.Is")
	}
	if errors.Is(structuredErr, ErrStaleGenerated) {
		t.Error("Structured error should not match a different sentinel")
	}

	if ErrUnsupportedArchitecture.Error() != "membarrier: UnsupportedArchitecture" {
		t.Errorf("Expected sentinel error message, got %q", ErrUnsupportedArchitecture.Error())
	}

	_, err := Lookup("s390x", Mmio, Load)
	if !errors.Is(err, ErrUnsupportedArchitecture) {
		t.Errorf("Lookup error should match ErrUnsupportedArchitecture, got %v", err)
	}
}

func TestIsCode(t *testing.T) {
	_, err := Lookup("loong64", Memory, Store)

	if !IsCode(err, ErrCodeUnsupportedArchitecture) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, ErrCodeUnsupportedCombination) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, ErrCodeUnsupportedArchitecture) {
		t.Error("IsCode should return false for nil error")
	}
	if IsCode(errors.New("plain"), ErrCodeIOError) {
		t.Error("IsCode should return false for unstructured errors")
	}
}
