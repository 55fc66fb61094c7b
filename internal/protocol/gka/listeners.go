package gka

import (
	"slices"
	"sync"

	"github.com/Pflanzmann/SharkShiver/internal/domain"
)

// Listeners is an observer list of protocol event listeners. The zero value
// is ready to use.
type Listeners struct {
	mu        sync.RWMutex
	listeners []domain.Listener
}

// Add registers l. Adding the same listener twice delivers events twice.
func (ls *Listeners) Add(l domain.Listener) {
	if l == nil {
		return
	}
	ls.mu.Lock()
	ls.listeners = append(ls.listeners, l)
	ls.mu.Unlock()
}

// Remove unregisters the first registration of l.
func (ls *Listeners) Remove(l domain.Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if i := slices.Index(ls.listeners, l); i >= 0 {
		ls.listeners = slices.Delete(ls.listeners, i, i+1)
	}
}

func (ls *Listeners) snapshot() []domain.Listener {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return slices.Clone(ls.listeners)
}

// GroupCredentials notifies every listener of an inbound up-flow message.
func (ls *Listeners) GroupCredentials(groupID domain.GroupID, peers []domain.PeerID) {
	for _, l := range ls.snapshot() {
		l.OnGroupCredentials(groupID, slices.Clone(peers))
	}
}

// GroupKeyReady notifies every listener that the key for groupID is stored.
func (ls *Listeners) GroupKeyReady(groupID domain.GroupID) {
	for _, l := range ls.snapshot() {
		l.OnGroupKeyReady(groupID)
	}
}

// ProtocolError notifies every listener of a failed inbound message.
func (ls *Listeners) ProtocolError(channel domain.Channel, peer domain.PeerID, err error) {
	for _, l := range ls.snapshot() {
		l.OnProtocolError(channel, peer, err)
	}
}

// ListenerFuncs adapts plain functions to domain.Listener. Nil fields are
// skipped. Register it by pointer so that Remove can find it again.
type ListenerFuncs struct {
	Credentials func(groupID domain.GroupID, peers []domain.PeerID)
	KeyReady    func(groupID domain.GroupID)
	Error       func(channel domain.Channel, peer domain.PeerID, err error)
}

func (f *ListenerFuncs) OnGroupCredentials(groupID domain.GroupID, peers []domain.PeerID) {
	if f.Credentials != nil {
		f.Credentials(groupID, peers)
	}
}

func (f *ListenerFuncs) OnGroupKeyReady(groupID domain.GroupID) {
	if f.KeyReady != nil {
		f.KeyReady(groupID)
	}
}

func (f *ListenerFuncs) OnProtocolError(channel domain.Channel, peer domain.PeerID, err error) {
	if f.Error != nil {
		f.Error(channel, peer, err)
	}
}

var _ domain.Listener = (*ListenerFuncs)(nil)
