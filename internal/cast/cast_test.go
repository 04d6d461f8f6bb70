package cast

import (
	"errors"
	"math"
	"testing"

	"go.dw1.io/safemath"
)

func TestIsInteger(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		for _, v := range []any{int(1), int8(1), int16(1), int32(1), int64(1), uint(1), uint8(1), uint16(1), uint32(1), uint64(1), uintptr(1)} {
			if !IsInteger(v) {
				t.Fatalf("expected %T to be an integer", v)
			}
		}
	})

	t.Run("nonIntegers", func(t *testing.T) {
		for _, v := range []any{1.5, "1", true, nil} {
			if IsInteger(v) {
				t.Fatalf("expected %T to not be an integer", v)
			}
		}
	})
}

func TestIntUsesSafemathForIntegerInputs(t *testing.T) {
	t.Run("withinRange", func(t *testing.T) {
		got, err := Int[int32](int64(math.MaxInt32))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != math.MaxInt32 {
			t.Fatalf("expected %d, got %d", int32(math.MaxInt32), got)
		}
	})

	t.Run("overflow", func(t *testing.T) {
		_, err := Int[int32](int64(math.MaxInt32) + 1)
		if err == nil {
			t.Fatalf("expected error for overflow conversion")
		}

		if !errors.Is(err, safemath.ErrTruncation) {
			t.Fatalf("expected safemath.ErrTruncation, got %v", err)
		}
	})
}

func TestIntWithNonIntegerInputs(t *testing.T) {
	t.Run("stringNumber", func(t *testing.T) {
		got, err := Int[int]("7")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != 7 {
			t.Fatalf("expected 7, got %d", got)
		}
	})

	t.Run("invalidString", func(t *testing.T) {
		if _, err := Int[int]("mix"); err == nil {
			t.Fatalf("expected error for invalid input")
		}
	})
}

func TestString(t *testing.T) {
	got, err := String([]byte("mi"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got != "mi" {
		t.Fatalf("expected %q, got %q", "mi", got)
	}
}
