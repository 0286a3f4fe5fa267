package sealbox

import (
	"bytes"
	"crypto/subtle"
	"os"
	"path/filepath"
	"testing"
)

func TestRand_LengthUniq(t *testing.T) {
	t.Parallel()
	const n = 48
	a, err := Rand(n)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	if len(a) != n {
		t.Fatalf("len=%d, want=%d", len(a), n)
	}
	b, _ := Rand(n)
	if bytes.Equal(a, b) {
		t.Fatalf("Rand produced equal slices")
	}
}

func TestDeriveKey_DeterministicAndSaltDependent(t *testing.T) {
	t.Parallel()
	pw := []byte("secret-pass")
	k1 := DeriveKey(pw, []byte("salt-1"))
	k2 := DeriveKey(pw, []byte("salt-1"))
	if subtle.ConstantTimeCompare(k1, k2) != 1 {
		t.Fatalf("DeriveKey not deterministic")
	}
	if subtle.ConstantTimeCompare(k1, DeriveKey(pw, []byte("salt-2"))) != 0 {
		t.Fatalf("DeriveKey must change with salt")
	}
	if subtle.ConstantTimeCompare(k1, DeriveKey([]byte("other"), []byte("salt-1"))) != 0 {
		t.Fatalf("DeriveKey must change with passphrase")
	}
}

func TestNew_RejectsShortKey(t *testing.T) {
	t.Parallel()
	if _, err := New([]byte("short")); err == nil {
		t.Fatalf("New must reject a short master key")
	}
}

func TestSealOpen_Roundtrip(t *testing.T) {
	t.Parallel()
	master, _ := Rand(KeyLen)
	box, err := New(master)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pt := []byte(`{"uri":"http://eco.org/onto#Touriste/1","email":"a@b.c"}`)
	sealed, err := box.Seal("user", pt)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Contains([]byte(sealed), []byte("a@b.c")) {
		t.Fatalf("sealed value leaks plaintext")
	}

	got, err := box.Open("user", sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, pt) {
		t.Fatalf("roundtrip mismatch")
	}
}

func TestOpen_RejectsTampering(t *testing.T) {
	t.Parallel()
	master, _ := Rand(KeyLen)
	box, _ := New(master)
	sealed, _ := box.Seal("token", []byte("tok"))

	if _, err := box.Open("user", sealed); err == nil {
		t.Fatalf("expected error when moved under another key")
	}

	other, _ := Rand(KeyLen)
	box2, _ := New(other)
	if _, err := box2.Open("token", sealed); err == nil {
		t.Fatalf("expected error on wrong master key")
	}

	if _, err := box.Open("token", "!!not base64"); err == nil {
		t.Fatalf("expected error on bad encoding")
	}
	if _, err := box.Open("token", "AAAA"); err == nil {
		t.Fatalf("expected error on short blob")
	}
}

func TestLoadKey_RandomKeyFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	k1, err := LoadKey(dir, "")
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	if len(k1) != KeyLen {
		t.Fatalf("len=%d", len(k1))
	}
	st, err := os.Stat(filepath.Join(dir, keyFile))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Mode().Perm() != 0o600 {
		t.Fatalf("key file mode %v", st.Mode().Perm())
	}

	k2, _ := LoadKey(dir, "")
	if !bytes.Equal(k1, k2) {
		t.Fatalf("key must be stable across loads")
	}
}

func TestLoadKey_Passphrase(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	k1, err := LoadKey(dir, "pw")
	if err != nil {
		t.Fatalf("LoadKey: %v", err)
	}
	k2, _ := LoadKey(dir, "pw")
	if !bytes.Equal(k1, k2) {
		t.Fatalf("same passphrase and salt must give the same key")
	}
	k3, _ := LoadKey(dir, "other")
	if bytes.Equal(k1, k3) {
		t.Fatalf("different passphrase must give a different key")
	}
	if _, err := os.Stat(filepath.Join(dir, keyFile)); !os.IsNotExist(err) {
		t.Fatalf("passphrase mode must not create a key file")
	}
}
