package store

import (
	"slices"
	"sort"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// MemoryKeyPairStore caches key pairs in memory. Generation happens under the
// store lock so concurrent GetOrCreate calls for one group see the same pair.
type MemoryKeyPairStore struct {
	group crypto.Group
	mu    sync.Mutex
	pairs map[domain.GroupID]domain.DHKeyPair
}

// NewMemoryKeyPairStore returns an empty store generating pairs in group.
func NewMemoryKeyPairStore(group crypto.Group) *MemoryKeyPairStore {
	return &MemoryKeyPairStore{group: group, pairs: make(map[domain.GroupID]domain.DHKeyPair)}
}

func (s *MemoryKeyPairStore) GetOrCreate(groupID domain.GroupID) (domain.DHKeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kp, ok := s.pairs[groupID]; ok {
		return kp.Clone(), nil
	}
	kp, err := s.group.GenerateKeyPair()
	if err != nil {
		return domain.DHKeyPair{}, err
	}
	s.pairs[groupID] = kp
	return kp.Clone(), nil
}

func (s *MemoryKeyPairStore) Get(groupID domain.GroupID) (domain.DHKeyPair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kp, ok := s.pairs[groupID]
	if !ok {
		return domain.DHKeyPair{}, false, nil
	}
	return kp.Clone(), true, nil
}

func (s *MemoryKeyPairStore) Delete(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kp, ok := s.pairs[groupID]; ok {
		crypto.Wipe(kp.Private)
		delete(s.pairs, groupID)
	}
	return nil
}

// Len returns the number of cached pairs.
func (s *MemoryKeyPairStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pairs)
}

// MemoryGroupKeyStore caches derived group keys in memory.
type MemoryGroupKeyStore struct {
	mu   sync.RWMutex
	keys map[domain.GroupID]domain.GroupKey
}

func NewMemoryGroupKeyStore() *MemoryGroupKeyStore {
	return &MemoryGroupKeyStore{keys: make(map[domain.GroupID]domain.GroupKey)}
}

func (s *MemoryGroupKeyStore) Get(groupID domain.GroupID) (domain.GroupKey, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.keys[groupID]
	return k, ok, nil
}

func (s *MemoryGroupKeyStore) Put(groupID domain.GroupID, key domain.GroupKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[groupID] = key
	return nil
}

func (s *MemoryGroupKeyStore) Delete(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, groupID)
	return nil
}

// Len returns the number of stored keys.
func (s *MemoryGroupKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

// MemorySessionStore keeps session records in memory.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.GroupID]domain.SessionRecord
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[domain.GroupID]domain.SessionRecord)}
}

func (s *MemorySessionStore) SaveSession(rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.Peers = slices.Clone(rec.Peers)
	s.sessions[rec.GroupID] = rec
	return nil
}

func (s *MemorySessionStore) LoadSession(groupID domain.GroupID) (domain.SessionRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[groupID]
	rec.Peers = slices.Clone(rec.Peers)
	return rec, ok, nil
}

func (s *MemorySessionStore) DeleteSession(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, groupID)
	return nil
}

// MemoryTrustStore keeps peer records in memory.
type MemoryTrustStore struct {
	mu    sync.RWMutex
	peers map[domain.PeerID]domain.PeerRecord
}

func NewMemoryTrustStore() *MemoryTrustStore {
	return &MemoryTrustStore{peers: make(map[domain.PeerID]domain.PeerRecord)}
}

func (s *MemoryTrustStore) SavePeer(rec domain.PeerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[rec.PeerID] = rec
	return nil
}

func (s *MemoryTrustStore) LoadPeer(peer domain.PeerID) (domain.PeerRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.peers[peer]
	return rec, ok, nil
}

func (s *MemoryTrustStore) LookupStaticKey(key domain.X25519Public) (domain.PeerRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookupStaticKey(s.peers, key)
}

func (s *MemoryTrustStore) ListPeers() ([]domain.PeerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedPeers(s.peers), nil
}

func lookupStaticKey(peers map[domain.PeerID]domain.PeerRecord, key domain.X25519Public) (domain.PeerRecord, bool, error) {
	for _, rec := range peers {
		if rec.StaticKey == key {
			return rec, true, nil
		}
	}
	return domain.PeerRecord{}, false, nil
}

func sortedPeers(peers map[domain.PeerID]domain.PeerRecord) []domain.PeerRecord {
	out := make([]domain.PeerRecord, 0, len(peers))
	for _, rec := range peers {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}

// Compile-time assertions that the memory stores implement the domain interfaces.
var (
	_ domain.KeyPairStore  = (*MemoryKeyPairStore)(nil)
	_ domain.GroupKeyStore = (*MemoryGroupKeyStore)(nil)
	_ domain.SessionStore  = (*MemorySessionStore)(nil)
	_ domain.TrustStore    = (*MemoryTrustStore)(nil)
)
