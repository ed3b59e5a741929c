package heap

import "testing"

func TestInternReturnsSameObjectForEqualStrings(t *testing.T) {
	h := NewHeap()
	a := h.Intern("hello")
	b := h.Intern("hello")
	if a != b {
		t.Fatalf("expected interning to return the same *StringObj, got distinct pointers")
	}
	if h.InternedCount() != 1 {
		t.Fatalf("expected 1 interned string, got %d", h.InternedCount())
	}
}

func TestNewStringDoesNotIntern(t *testing.T) {
	h := NewHeap()
	h.NewString("plain")
	if h.InternedCount() != 0 {
		t.Fatalf("expected NewString to skip the intern table, got %d entries", h.InternedCount())
	}
}

func TestValueEqualityByKind(t *testing.T) {
	h := NewHeap()
	s1 := String(h.Intern("x"))
	s2 := String(h.Intern("x"))
	if !s1.Equal(s2) {
		t.Fatalf("expected interned strings to compare equal")
	}
	if Number(1).Equal(Bool(true)) {
		t.Fatalf("values of different kinds must never compare equal")
	}
	if !Nil().Equal(Nil()) {
		t.Fatalf("nil must equal nil")
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil(), false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), true},
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Fatalf("Truthy(%+v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAddNumbers(t *testing.T) {
	h := NewHeap()
	sum, err := h.Add(Number(2), Number(3))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.N != 5 {
		t.Fatalf("expected 5, got %v", sum.N)
	}
}

func TestAddStringConcatenation(t *testing.T) {
	h := NewHeap()
	sum, err := h.Add(String(h.Intern("n=")), Number(4))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if sum.AsString().S != "n=4" {
		t.Fatalf("expected %q, got %q", "n=4", sum.AsString().S)
	}
}

func TestAddListElementWiseWithPadding(t *testing.T) {
	h := NewHeap()
	left := List(h.NewList([]Value{Number(1), Number(2)}))
	right := List(h.NewList([]Value{Number(10)}))
	sum, err := h.Add(left, right)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	items := sum.AsList().Items
	if len(items) != 2 || items[0].N != 11 || items[1].N != 2 {
		t.Fatalf("expected [11, 2], got %+v", items)
	}
}

func TestAddIdentityNilPassesThrough(t *testing.T) {
	h := NewHeap()
	v, err := h.Add(Nil(), Number(7))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.N != 7 {
		t.Fatalf("expected nil to be an additive identity, got %+v", v)
	}
}

func TestMultiplyRejectsNonNumeric(t *testing.T) {
	h := NewHeap()
	if _, err := Multiply(Number(2), String(h.Intern("x"))); err == nil {
		t.Fatalf("expected an error multiplying a number by a string")
	}
}

func TestGrowthRatioGuardsAgainstZero(t *testing.T) {
	h := NewHeap()
	h.SetGrowthRatio(0) // ignored
	h.SetGrowthRatio(4)
	before := h.NextGC()
	if before <= 0 {
		t.Fatalf("expected a positive default nextGC, got %d", before)
	}
}
