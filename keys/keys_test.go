package keys

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateRejectsReservedAndEmpty(t *testing.T) {
	if err := Validate(""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("empty key err=%v", err)
	}
	for _, c := range strings.Split(Reserved, "") {
		k := "a" + c + "b"
		if err := Validate(k); !errors.Is(err, ErrReservedChar) {
			t.Fatalf("Validate(%q) err=%v", k, err)
		}
	}
	for _, k := range []string{"a", "user.42", "with space", "ünïcode", "dash-and_under"} {
		if err := Validate(k); err != nil {
			t.Fatalf("Validate(%q) unexpected err=%v", k, err)
		}
	}
}

func TestPlainDerive(t *testing.T) {
	d := NewPlain("app.")
	id, err := d.Derive("user")
	if err != nil || id != "app.user" {
		t.Fatalf("Derive = (%q,%v)", id, err)
	}
	if _, err := d.Derive("a:b"); !errors.Is(err, ErrReservedChar) {
		t.Fatalf("reserved key accepted: %v", err)
	}

	// idempotent and deterministic
	again, _ := d.Derive("user")
	if again != id {
		t.Fatalf("not deterministic: %q vs %q", again, id)
	}

	other := d.WithPrefix("x.")
	if d.Prefix() != "app." || other.Prefix() != "x." {
		t.Fatalf("WithPrefix mutated receiver: %q / %q", d.Prefix(), other.Prefix())
	}
}

func TestHashedDerive(t *testing.T) {
	for _, algo := range []Algorithm{SHA1, SHA256, MD5, XXHash} {
		h, err := NewHashed(algo, "p")
		if err != nil {
			t.Fatalf("NewHashed(%s): %v", algo, err)
		}
		a, _ := h.Derive("key")
		b, _ := h.Derive("key")
		c, _ := h.Derive("other")
		if a != b {
			t.Fatalf("%s: not deterministic", algo)
		}
		if a == c {
			t.Fatalf("%s: different keys collide", algo)
		}
		// prefix participates in the hash
		np, _ := h.WithPrefix("q").Derive("key")
		if np == a {
			t.Fatalf("%s: prefix ignored", algo)
		}
	}

	h, _ := NewHashed("", "")
	if h.Algorithm() != SHA1 {
		t.Fatalf("default algorithm = %s", h.Algorithm())
	}
	// sha1("foo")
	id, _ := h.Derive("foo")
	if id != "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33" {
		t.Fatalf("sha1 id = %s", id)
	}
}

func TestHashedIsLenient(t *testing.T) {
	h, _ := NewHashed(SHA256, "")
	for _, k := range []string{"", "a:b", "{x}", `c:\path`} {
		id, err := h.Derive(k)
		if err != nil || len(id) != 64 {
			t.Fatalf("Derive(%q) = (%q,%v)", k, id, err)
		}
	}
}

func TestNewHashedUnknownAlgorithm(t *testing.T) {
	if _, err := NewHashed("crc7", ""); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("err=%v", err)
	}
}

func TestDeriveAllKeepsOrderAndMapsBack(t *testing.T) {
	m, err := DeriveAll(NewPlain("p"), []string{"c", "a", "b", "a"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pc", "pa", "pb"}
	if len(m.IDs) != len(want) || m.Len() != 3 {
		t.Fatalf("ids=%v", m.IDs)
	}
	for i := range want {
		if m.IDs[i] != want[i] {
			t.Fatalf("ids=%v want %v", m.IDs, want)
		}
	}
	if k, ok := m.Key("pb"); !ok || k != "b" {
		t.Fatalf("Key(pb) = (%q,%v)", k, ok)
	}
	if _, ok := m.Key("zz"); ok {
		t.Fatalf("unknown id mapped")
	}
}

func TestDeriveAllFailsOnAnyInvalidKey(t *testing.T) {
	_, err := DeriveAll(NewPlain(""), []string{"ok", "bad@key", "fine"})
	if !errors.Is(err, ErrReservedChar) {
		t.Fatalf("err=%v", err)
	}
}

func TestZeroHashedDefaultsToSHA1(t *testing.T) {
	var h Hashed
	id, err := h.Derive("foo")
	if err != nil || id != "0beec7b5ea3f0fdbc95d0dd47f3c5bc275da8a33" {
		t.Fatalf("Derive = (%q,%v)", id, err)
	}
	if h.Algorithm() != SHA1 {
		t.Fatalf("Algorithm = %s", h.Algorithm())
	}
	if p, _ := h.WithPrefix("x").Derive("foo"); p == id {
		t.Fatalf("prefix ignored on zero value")
	}
}
