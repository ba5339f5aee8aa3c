//go:build linux

package wire

import "testing"

func TestFixedConversion(t *testing.T) {
	tests := []struct {
		name     string
		float    float64
		expected float64
	}{
		{"zero", 0.0, 0.0},
		{"positive integer", 42.0, 42.0},
		{"negative integer", -42.0, -42.0},
		{"positive fraction", 3.5, 3.5},
		{"negative fraction", -3.5, -3.5},
		{"small positive", 0.125, 0.125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FixedFromFloat(tt.float).Float()
			const epsilon = 0.004
			if diff := got - tt.expected; diff < -epsilon || diff > epsilon {
				t.Errorf("FixedFromFloat(%v).Float() = %v, want %v", tt.float, got, tt.expected)
			}
		})
	}
}

func TestFixedFromInt(t *testing.T) {
	if got := FixedFromInt(10).Int(); got != 10 {
		t.Errorf("FixedFromInt(10).Int() = %d, want 10", got)
	}
	if got := FixedFromInt(-10).Int(); got != -10 {
		t.Errorf("FixedFromInt(-10).Int() = %d, want -10", got)
	}
}

func TestEncodeDecodeMessage(t *testing.T) {
	builder := NewBuilder()
	builder.PutUint32(7).PutInt32(-3).PutString("wl_surface").PutFixed(FixedFromInt(5))
	msg := builder.Build(42, 6)

	data, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	dec := NewDecoder(data)
	objID, opcode, size, err := dec.DecodeHeader()
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if objID != 42 || opcode != 6 || size != len(data) {
		t.Fatalf("header = (%d, %d, %d), want (42, 6, %d)", objID, opcode, size, len(data))
	}

	if v, err := dec.Uint32(); err != nil || v != 7 {
		t.Fatalf("Uint32() = (%d, %v), want (7, nil)", v, err)
	}
	if v, err := dec.Int32(); err != nil || v != -3 {
		t.Fatalf("Int32() = (%d, %v), want (-3, nil)", v, err)
	}
	if v, err := dec.String(); err != nil || v != "wl_surface" {
		t.Fatalf("String() = (%q, %v), want (\"wl_surface\", nil)", v, err)
	}
	if v, err := dec.Fixed(); err != nil || v.Int() != 5 {
		t.Fatalf("Fixed() = (%v, %v), want Int()==5", v, err)
	}
}

func TestStringPadding(t *testing.T) {
	enc := NewEncoder(32)
	enc.PutString("ab") // length 3 (incl NUL) -> padded to 4, data totals 4+4=8
	if len(enc.Bytes())%4 != 0 {
		t.Fatalf("encoded string length %d not 4-byte aligned", len(enc.Bytes()))
	}
}

func TestArrayRoundTrip(t *testing.T) {
	builder := NewBuilder()
	data := []byte{1, 2, 3}
	builder.PutArray(data)
	msg := builder.Build(1, 0)

	dec := NewDecoder(msg.Args)
	got, err := dec.Array()
	if err != nil {
		t.Fatalf("Array(): %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("Array() length = %d, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("Array()[%d] = %d, want %d", i, got[i], data[i])
		}
	}
}

func TestDecodeMessageTooSmall(t *testing.T) {
	dec := NewDecoder([]byte{1, 2, 3})
	if _, err := dec.DecodeMessage(); err != ErrMessageTooSmall {
		t.Fatalf("DecodeMessage() error = %v, want ErrMessageTooSmall", err)
	}
}

func TestFDRoundTrip(t *testing.T) {
	dec := NewDecoder(nil)
	dec.fds = []int{11, 12}

	fd, err := dec.FD()
	if err != nil || fd != 11 {
		t.Fatalf("FD() = (%d, %v), want (11, nil)", fd, err)
	}
	fd, err = dec.FD()
	if err != nil || fd != 12 {
		t.Fatalf("FD() = (%d, %v), want (12, nil)", fd, err)
	}
	if _, err := dec.FD(); err != ErrNoMoreFDs {
		t.Fatalf("FD() error = %v, want ErrNoMoreFDs", err)
	}
}
