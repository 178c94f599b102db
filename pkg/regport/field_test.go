package regport

import "testing"

func TestFieldGetSet(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		reg   uint32
		get   uint32
	}{
		{"low nibble", Field{Offset: 0, Width: 4}, 0xabcd, 0xd},
		{"single bit set", Bit(3), 0x08, 1},
		{"single bit clear", Bit(3), 0xf7, 0},
		{"middle", Field{Offset: 8, Width: 8}, 0x12345678, 0x56},
		{"full width", Field{Offset: 0, Width: 32}, 0xdeadbeef, 0xdeadbeef},
		{"top bit", Bit(31), 0x80000000, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.field.Get(tt.reg); got != tt.get {
				t.Errorf("Get(0x%x) = 0x%x, want 0x%x", tt.reg, got, tt.get)
			}
		})
	}
}

func TestFieldSetPreservesOtherBits(t *testing.T) {
	f := Field{Offset: 4, Width: 4}
	got := f.Set(0xffffffff, 0x3)
	if got != 0xffffff3f {
		t.Errorf("Set() = 0x%08x, want 0xffffff3f", got)
	}

	// Bits beyond the width are discarded.
	got = f.Set(0, 0x1f)
	if got != 0xf0 {
		t.Errorf("Set() = 0x%08x, want 0x000000f0", got)
	}
}

func TestFieldIsSet(t *testing.T) {
	if !Bit(30).IsSet(1 << 30) {
		t.Error("IsSet() = false, want true")
	}
	if (Field{Offset: 3, Width: 7}).IsSet(0x7) {
		t.Error("IsSet() = true, want false")
	}
}

func TestRegisterField(t *testing.T) {
	r := Register{Name: "STATUS", Addr: 0x4, Fields: map[string]Field{"ready": Bit(0)}}
	if f, ok := r.Field("ready"); !ok || f != Bit(0) {
		t.Errorf("Field(ready) = %v, %v", f, ok)
	}
	if _, ok := r.Field("missing"); ok {
		t.Error("Field(missing) ok = true, want false")
	}
}

func TestAddrString(t *testing.T) {
	if got := Addr(0x7000040c).String(); got != "0x7000040c" {
		t.Errorf("String() = %q, want %q", got, "0x7000040c")
	}
}
