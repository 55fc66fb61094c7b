package store

import (
	"path/filepath"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const peersFilename = "peers.json"

// TrustFileStore persists the peers the local user knows, with their static
// keys and verification flag. Static keys are public, so the file is plain
// JSON.
type TrustFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewTrustFileStore returns a TrustFileStore rooted at dir.
func NewTrustFileStore(dir string) *TrustFileStore {
	return &TrustFileStore{dir: dir}
}

func (s *TrustFileStore) read() (map[domain.PeerID]domain.PeerRecord, error) {
	peers := map[domain.PeerID]domain.PeerRecord{}
	if err := readJSON(filepath.Join(s.dir, peersFilename), &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

func (s *TrustFileStore) SavePeer(rec domain.PeerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers, err := s.read()
	if err != nil {
		return err
	}
	peers[rec.PeerID] = rec
	return writeJSON(filepath.Join(s.dir, peersFilename), peers, 0o600)
}

func (s *TrustFileStore) LoadPeer(peer domain.PeerID) (domain.PeerRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers, err := s.read()
	if err != nil {
		return domain.PeerRecord{}, false, err
	}
	rec, ok := peers[peer]
	return rec, ok, nil
}

func (s *TrustFileStore) LookupStaticKey(key domain.X25519Public) (domain.PeerRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers, err := s.read()
	if err != nil {
		return domain.PeerRecord{}, false, err
	}
	return lookupStaticKey(peers, key)
}

func (s *TrustFileStore) ListPeers() ([]domain.PeerRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	peers, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedPeers(peers), nil
}

// Compile-time assertion that TrustFileStore implements domain.TrustStore.
var _ domain.TrustStore = (*TrustFileStore)(nil)
