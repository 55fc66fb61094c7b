package store

import (
	"path/filepath"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const (
	keyPairsFilename  = "keypairs.json.enc"
	groupKeysFilename = "groupkeys.json.enc"

	keyPairsLabel  = "shiver/keypairs"
	groupKeysLabel = "shiver/groupkeys"
)

// KeyPairFileStore keeps the ephemeral DH key pairs of the local peer in a
// sealed file so that a peer can take part in a key agreement across several
// process runs.
//
// The file is read once and cached; every change is written through. Only
// one process should use a home directory at a time.
type KeyPairFileStore struct {
	dir        string
	passphrase string
	group      crypto.Group
	kdf        kdfParams

	mu     sync.Mutex
	loaded bool
	pairs  map[domain.GroupID]domain.DHKeyPair
}

// NewKeyPairFileStore returns a KeyPairFileStore rooted at dir that generates
// pairs in group.
func NewKeyPairFileStore(dir, passphrase string, group crypto.Group) *KeyPairFileStore {
	return &KeyPairFileStore{dir: dir, passphrase: passphrase, group: group, kdf: defaultKDFParams()}
}

func (s *KeyPairFileStore) path() string { return filepath.Join(s.dir, keyPairsFilename) }

func (s *KeyPairFileStore) load() error {
	if s.loaded {
		return nil
	}
	pairs := map[domain.GroupID]domain.DHKeyPair{}
	if err := readSealedJSON(s.path(), s.passphrase, keyPairsLabel, &pairs); err != nil {
		return err
	}
	s.pairs, s.loaded = pairs, true
	return nil
}

func (s *KeyPairFileStore) flush() error {
	return writeSealedJSON(s.path(), s.passphrase, keyPairsLabel, s.pairs, s.kdf)
}

// GetOrCreate returns the pair for groupID, generating and persisting it on
// first use.
func (s *KeyPairFileStore) GetOrCreate(groupID domain.GroupID) (domain.DHKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return domain.DHKeyPair{}, err
	}
	if kp, ok := s.pairs[groupID]; ok {
		return kp.Clone(), nil
	}
	kp, err := s.group.GenerateKeyPair()
	if err != nil {
		return domain.DHKeyPair{}, err
	}
	s.pairs[groupID] = kp
	if err := s.flush(); err != nil {
		delete(s.pairs, groupID)
		return domain.DHKeyPair{}, err
	}
	return kp.Clone(), nil
}

// Get returns the pair for groupID without generating one.
func (s *KeyPairFileStore) Get(groupID domain.GroupID) (domain.DHKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return domain.DHKeyPair{}, false, err
	}
	kp, ok := s.pairs[groupID]
	if !ok {
		return domain.DHKeyPair{}, false, nil
	}
	return kp.Clone(), true, nil
}

// Delete drops the pair for groupID.
func (s *KeyPairFileStore) Delete(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	kp, ok := s.pairs[groupID]
	if !ok {
		return nil
	}
	delete(s.pairs, groupID)
	if err := s.flush(); err != nil {
		s.pairs[groupID] = kp
		return err
	}
	crypto.Wipe(kp.Private)
	return nil
}

// GroupKeyFileStore keeps derived group keys in a sealed file.
type GroupKeyFileStore struct {
	dir        string
	passphrase string
	kdf        kdfParams

	mu     sync.Mutex
	loaded bool
	keys   map[domain.GroupID]domain.GroupKey
}

// NewGroupKeyFileStore returns a GroupKeyFileStore rooted at dir.
func NewGroupKeyFileStore(dir, passphrase string) *GroupKeyFileStore {
	return &GroupKeyFileStore{dir: dir, passphrase: passphrase, kdf: defaultKDFParams()}
}

func (s *GroupKeyFileStore) path() string { return filepath.Join(s.dir, groupKeysFilename) }

func (s *GroupKeyFileStore) load() error {
	if s.loaded {
		return nil
	}
	keys := map[domain.GroupID]domain.GroupKey{}
	if err := readSealedJSON(s.path(), s.passphrase, groupKeysLabel, &keys); err != nil {
		return err
	}
	s.keys, s.loaded = keys, true
	return nil
}

func (s *GroupKeyFileStore) Get(groupID domain.GroupID) (domain.GroupKey, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return domain.GroupKey{}, false, err
	}
	k, ok := s.keys[groupID]
	return k, ok, nil
}

func (s *GroupKeyFileStore) Put(groupID domain.GroupID, key domain.GroupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	prev, had := s.keys[groupID]
	s.keys[groupID] = key
	if err := writeSealedJSON(s.path(), s.passphrase, groupKeysLabel, s.keys, s.kdf); err != nil {
		if had {
			s.keys[groupID] = prev
		} else {
			delete(s.keys, groupID)
		}
		return err
	}
	return nil
}

func (s *GroupKeyFileStore) Delete(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}
	prev, had := s.keys[groupID]
	if !had {
		return nil
	}
	delete(s.keys, groupID)
	if err := writeSealedJSON(s.path(), s.passphrase, groupKeysLabel, s.keys, s.kdf); err != nil {
		s.keys[groupID] = prev
		return err
	}
	return nil
}

// Compile-time assertions that the sealed stores implement the domain interfaces.
var (
	_ domain.KeyPairStore  = (*KeyPairFileStore)(nil)
	_ domain.GroupKeyStore = (*GroupKeyFileStore)(nil)
)
