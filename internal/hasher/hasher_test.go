package hasher

import "testing"

func TestSum(t *testing.T) {
	a := Sum([]byte("imgpress"))
	b := Sum([]byte("imgpress"))
	if a != b {
		t.Errorf("sum not deterministic: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("sum length: got %d, want 16", len(a))
	}
	if Sum([]byte("other")) == a {
		t.Error("different inputs collided")
	}
}

func TestShortIsPrefix(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}
	full := Sum(data)
	short := Short(data)
	if len(short) != 8 {
		t.Errorf("short length: got %d, want 8", len(short))
	}
	if full[:8] != short {
		t.Errorf("short %q is not a prefix of %q", short, full)
	}
}
