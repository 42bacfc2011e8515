package hash

import "testing"

func TestSHA256Hasher_HashBytes(t *testing.T) {
	hasher := NewSHA256Hasher()

	// sha256("hello world")
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if got := hasher.HashBytes([]byte("hello world")); got != want {
		t.Errorf("HashBytes() = %s, want %s", got, want)
	}

	// sha256("")
	empty := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := hasher.HashBytes(nil); got != empty {
		t.Errorf("HashBytes(nil) = %s, want %s", got, empty)
	}
}

func TestFakeHasher(t *testing.T) {
	h := NewFakeHasher()

	a := h.HashBytes([]byte("patient: A"))
	b := h.HashBytes([]byte("patient: B"))

	if a != "fakehash-1" || b != "fakehash-2" {
		t.Errorf("got %q, %q; want fakehash-1, fakehash-2", a, b)
	}
	if again := h.HashBytes([]byte("patient: A")); again != a {
		t.Errorf("same content hashed to %q, then %q", a, again)
	}
}
