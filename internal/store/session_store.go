package store

import (
	"cmp"
	"path/filepath"
	"slices"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

const sessionsFilename = "sessions.json"

// SessionFileStore persists key agreement session records to disk.
type SessionFileStore struct {
	dir string
	mu  sync.Mutex
}

// NewSessionFileStore returns a SessionFileStore rooted at dir.
func NewSessionFileStore(dir string) *SessionFileStore {
	return &SessionFileStore{dir: dir}
}

func (s *SessionFileStore) read() (map[domain.GroupID]domain.SessionRecord, error) {
	sessions := map[domain.GroupID]domain.SessionRecord{}
	if err := readJSON(filepath.Join(s.dir, sessionsFilename), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// SaveSession writes the record, replacing any previous one for its group.
func (s *SessionFileStore) SaveSession(rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}
	sessions[rec.GroupID] = rec
	return writeJSON(filepath.Join(s.dir, sessionsFilename), sessions, 0o600)
}

// LoadSession retrieves the record for groupID.
func (s *SessionFileStore) LoadSession(groupID domain.GroupID) (domain.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return domain.SessionRecord{}, false, err
	}
	rec, ok := sessions[groupID]
	return rec, ok, nil
}

// DeleteSession removes the record for groupID.
func (s *SessionFileStore) DeleteSession(groupID domain.GroupID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := sessions[groupID]; !ok {
		return nil
	}
	delete(sessions, groupID)
	return writeJSON(filepath.Join(s.dir, sessionsFilename), sessions, 0o600)
}

// ListSessions returns every record ordered by last update, newest first.
func (s *SessionFileStore) ListSessions() ([]domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make([]domain.SessionRecord, 0, len(sessions))
	for _, rec := range sessions {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b domain.SessionRecord) int {
		if c := cmp.Compare(b.UpdatedUTC, a.UpdatedUTC); c != 0 {
			return c
		}
		return cmp.Compare(a.GroupID, b.GroupID)
	})
	return out, nil
}

// Compile-time assertion that SessionFileStore implements domain.SessionStore.
var _ domain.SessionStore = (*SessionFileStore)(nil)
