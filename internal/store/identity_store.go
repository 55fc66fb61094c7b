package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const (
	idFilename = "identity.json.enc"
	idLabel    = "shiver/identity"
)

// ErrNoIdentity is returned when no identity has been created in the home
// directory yet.
var ErrNoIdentity = errors.New("no identity found, run init first")

// IdentityFileStore persists the local identity to disk.
type IdentityFileStore struct {
	dir string
	kdf kdfParams
	mu  sync.Mutex
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, kdf: defaultKDFParams()}
}

// SaveIdentity writes the sealed identity to disk.
func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id.PeerID == "" {
		return errors.New("identity has no peer id")
	}
	return writeSealedJSON(filepath.Join(s.dir, idFilename), passphrase, idLabel, id, s.kdf)
}

// LoadIdentity reads and opens the identity.
func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(filepath.Join(s.dir, idFilename))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := open(passphrase, idLabel, b)
	if err != nil {
		return domain.Identity{}, err
	}
	defer crypto.Wipe(raw)

	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, fmt.Errorf("decode identity: %w", err)
	}
	return id, nil
}

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
