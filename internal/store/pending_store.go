package store

import (
	"cmp"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const pendingFilename = "pending.json"

// PendingFileStore persists parked up-flow messages so that they can be
// accepted by a later CLI run.
type PendingFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewPendingFileStore returns a PendingFileStore rooted at dir.
func NewPendingFileStore(dir string) *PendingFileStore {
	return &PendingFileStore{dir: dir}
}

func (s *PendingFileStore) path() string { return filepath.Join(s.dir, pendingFilename) }

func (s *PendingFileStore) read() (map[domain.GroupID]domain.PendingMessage, error) {
	pending := map[domain.GroupID]domain.PendingMessage{}
	if err := readJSON(s.path(), &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *PendingFileStore) SavePending(msg domain.PendingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	pending[msg.GroupID] = msg
	return writeJSON(s.path(), pending, 0o600)
}

func (s *PendingFileStore) LoadPending(groupID domain.GroupID) (domain.PendingMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return domain.PendingMessage{}, false, err
	}
	msg, ok := pending[groupID]
	return msg, ok, nil
}

func (s *PendingFileStore) DeletePending(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := pending[groupID]; !ok {
		return nil
	}
	delete(pending, groupID)
	return writeJSON(s.path(), pending, 0o600)
}

func (s *PendingFileStore) ListPending() ([]domain.PendingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedPending(pending), nil
}

// MemoryPendingStore keeps parked messages in memory.
type MemoryPendingStore struct {
	mu      sync.Mutex
	pending map[domain.GroupID]domain.PendingMessage
}

func NewMemoryPendingStore() *MemoryPendingStore {
	return &MemoryPendingStore{pending: make(map[domain.GroupID]domain.PendingMessage)}
}

func (s *MemoryPendingStore) SavePending(msg domain.PendingMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[msg.GroupID] = msg
	return nil
}

func (s *MemoryPendingStore) LoadPending(groupID domain.GroupID) (domain.PendingMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, ok := s.pending[groupID]
	return msg, ok, nil
}

func (s *MemoryPendingStore) DeletePending(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, groupID)
	return nil
}

func (s *MemoryPendingStore) ListPending() ([]domain.PendingMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedPending(s.pending), nil
}

// sortedPending orders parked messages oldest first.
func sortedPending(pending map[domain.GroupID]domain.PendingMessage) []domain.PendingMessage {
	out := make([]domain.PendingMessage, 0, len(pending))
	for _, msg := range pending {
		out = append(out, msg)
	}
	slices.SortFunc(out, func(a, b domain.PendingMessage) int {
		if c := cmp.Compare(a.ReceivedUTC, b.ReceivedUTC); c != 0 {
			return c
		}
		return cmp.Compare(a.GroupID, b.GroupID)
	})
	return out
}

// Compile-time assertions that the pending stores implement domain.PendingStore.
var (
	_ domain.PendingStore = (*PendingFileStore)(nil)
	_ domain.PendingStore = (*MemoryPendingStore)(nil)
)
