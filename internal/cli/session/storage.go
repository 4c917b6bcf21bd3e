package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	storageDirName  = "insureflow"
	storageFileName = "session.json"

	keyringService = "insureflow-cli"
	keyringKey     = "session"
)

// ErrNoSession is returned by Storage.Load when nothing has been persisted.
var ErrNoSession = errors.New("no persisted session")

// Storage persists the session between CLI invocations.
type Storage interface {
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// FileStorage keeps the session as a JSON file under the runtime directory.
// On systems with XDG_RUNTIME_DIR the file is wiped when the login session
// ends, so logging out of the machine logs out of insureflow too. This is the
// default backend; use KeyringStorage for a session that survives reboots.
type FileStorage struct {
	Path string
}

// NewFileStorage returns file-backed storage at the default runtime-dir path.
func NewFileStorage() *FileStorage {
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.TempDir()
	}
	return &FileStorage{Path: filepath.Join(base, storageDirName, storageFileName)}
}

func (f *FileStorage) Load() (Session, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return Session{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return sess, nil
}

func (f *FileStorage) Save(sess Session) error {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// The session holds a bearer token, keep it out of other users' reach
	if err := os.WriteFile(f.Path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear() error {
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// KeyringStorage keeps the session in the OS keychain/credential manager.
// Unlike FileStorage the session survives reboots.
type KeyringStorage struct{}

func (k *KeyringStorage) Load() (Session, error) {
	data, err := keyring.Get(keyringService, keyringKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to load session from keyring: %w", err)
	}

	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return Session{}, fmt.Errorf("failed to parse keyring session: %w", err)
	}
	return sess, nil
}

func (k *KeyringStorage) Save(sess Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(keyringService, keyringKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session to keyring: %w", err)
	}
	return nil
}

func (k *KeyringStorage) Clear() error {
	if err := keyring.Delete(keyringService, keyringKey); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear keyring session: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory backend for tests and one-shot commands.
type MemoryStorage struct {
	sess  Session
	saved bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load() (Session, error) {
	if !m.saved {
		return Session{}, ErrNoSession
	}
	return m.sess, nil
}

func (m *MemoryStorage) Save(sess Session) error {
	m.sess = sess
	m.saved = true
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.sess = Session{}
	m.saved = false
	return nil
}
