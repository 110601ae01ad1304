package hostkeys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"

	"pkt.systems/kryptograf"
	"pkt.systems/kryptograf/keymgmt"
	"pkt.systems/pslog"
)

const (
	keyComment     = "traycon"
	descriptorName = "traycon:hostkey"
)

// Store manages the encrypted SSH host key for the console surface. The key
// is Ed25519, generated on first use, and never touches disk unencrypted.
type Store struct {
	storePath string
	keyPath   string
	log       pslog.Logger
}

// NewStore initializes the host key store and ensures the root key exists.
func NewStore(storePath, keyPath string) (*Store, error) {
	return NewStoreWithLogger(storePath, keyPath, nil)
}

// NewStoreWithLogger initializes the host key store with logging.
func NewStoreWithLogger(storePath, keyPath string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(storePath) == "" {
		return nil, fmt.Errorf("host key store path is required")
	}
	if strings.TrimSpace(keyPath) == "" {
		return nil, fmt.Errorf("host key path is required")
	}
	if err := EnsureKeyStoreWithLogger(storePath, logger); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("host_key_store", storePath, "host_key", keyPath)
	}
	return &Store{storePath: storePath, keyPath: keyPath, log: logger}, nil
}

// EnsureSigner loads the host key, generating it first when absent.
func (s *Store) EnsureSigner() (ssh.Signer, error) {
	exists, err := s.keyExists()
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key stat failed", "err", err)
		}
		return nil, err
	}
	if !exists {
		if s.log != nil {
			s.log.Info("host key generate start")
		}
		if err := s.writeKey(); err != nil {
			return nil, err
		}
	}
	return s.loadSigner()
}

func (s *Store) loadSigner() (ssh.Signer, error) {
	material, root, err := s.material()
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key load failed", "err", err)
		}
		return nil, err
	}
	kg := kryptograf.New(root)
	file, err := os.Open(s.keyPath)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key load failed", "err", err)
		}
		return nil, err
	}
	defer func() { _ = file.Close() }()
	reader, err := kg.DecryptReader(file, material)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key load failed", "err", err)
		}
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	plain, err := io.ReadAll(reader)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key load failed", "err", err)
		}
		return nil, err
	}
	signer, err := ssh.ParsePrivateKey(plain)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key load failed", "err", err)
		}
		return nil, err
	}
	if s.log != nil {
		s.log.Debug("host key load ok")
	}
	return signer, nil
}

func (s *Store) writeKey() error {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	block, err := ssh.MarshalPrivateKey(priv, keyComment)
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	plain := pem.EncodeToMemory(block)

	material, root, err := s.material()
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	kg := kryptograf.New(root)

	dir := filepath.Dir(s.keyPath)
	tmp, err := os.CreateTemp(dir, "hostkey-*.enc")
	if err != nil {
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	writer, err := kg.EncryptWriter(tmp, material)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	if _, err := io.Copy(writer, bytes.NewReader(plain)); err != nil {
		_ = writer.Close()
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	_ = tmp.Close()
	if err := os.Rename(tmpPath, s.keyPath); err != nil {
		_ = os.Remove(tmpPath)
		if s.log != nil {
			s.log.Warn("host key write failed", "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Info("host key write ok")
	}
	return nil
}

func (s *Store) material() (keymgmt.Material, keymgmt.RootKey, error) {
	store, err := keymgmt.LoadProto(s.storePath)
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	root, err := store.EnsureRootKey()
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	material, err := store.EnsureDescriptor(descriptorName, root, []byte(descriptorName))
	if err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	if err := store.Commit(); err != nil {
		return keymgmt.Material{}, keymgmt.RootKey{}, err
	}
	return material, root, nil
}

func (s *Store) keyExists() (bool, error) {
	info, err := os.Stat(s.keyPath)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
