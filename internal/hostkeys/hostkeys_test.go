package hostkeys

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/ssh"
)

func TestEnsureSignerGeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "keys.bundle"), filepath.Join(dir, "hostkey.enc"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	signer, err := store.EnsureSigner()
	if err != nil {
		t.Fatalf("ensure signer: %v", err)
	}
	if got := signer.PublicKey().Type(); got != ssh.KeyAlgoED25519 {
		t.Fatalf("expected ed25519 host key, got %q", got)
	}

	// A second store over the same paths must load the same key.
	again, err := NewStore(filepath.Join(dir, "keys.bundle"), filepath.Join(dir, "hostkey.enc"))
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	reloaded, err := again.EnsureSigner()
	if err != nil {
		t.Fatalf("reload signer: %v", err)
	}
	first := ssh.FingerprintSHA256(signer.PublicKey())
	second := ssh.FingerprintSHA256(reloaded.PublicKey())
	if first != second {
		t.Fatalf("host key changed across loads: %s vs %s", first, second)
	}
}

func TestEnsureSignerKeyIsEncryptedAtRest(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "hostkey.enc")
	store, err := NewStore(filepath.Join(dir, "keys.bundle"), keyPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.EnsureSigner(); err != nil {
		t.Fatalf("ensure signer: %v", err)
	}
	data, err := os.ReadFile(keyPath)
	if err != nil {
		t.Fatalf("read key file: %v", err)
	}
	if _, err := ssh.ParsePrivateKey(data); err == nil {
		t.Fatal("host key file parses as plaintext PEM; expected ciphertext")
	}
}

func TestEnsureSignerCorruptedKeySurfacesError(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "hostkey.enc")
	store, err := NewStore(filepath.Join(dir, "keys.bundle"), keyPath)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.EnsureSigner(); err != nil {
		t.Fatalf("ensure signer: %v", err)
	}
	if err := os.WriteFile(keyPath, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("corrupt key file: %v", err)
	}
	if _, err := store.EnsureSigner(); err == nil {
		t.Fatal("expected error for corrupted host key")
	}
}

func TestNewStoreRequiresPaths(t *testing.T) {
	if _, err := NewStore("", "key"); err == nil {
		t.Fatal("expected error for missing store path")
	}
	if _, err := NewStore("store", ""); err == nil {
		t.Fatal("expected error for missing key path")
	}
}
