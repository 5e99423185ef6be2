package deadline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/trezcool/ontime/core"
	"github.com/trezcool/ontime/storage/kv"
)

// StorageKey is the fixed key the whole collection persists under.
const StorageKey = "tracked-deadlines"

// Store is the authoritative, mutable set of TrackedDeadline for the current
// profile. Every mutation schedules a write-through of the full collection to
// the KV store; writes are serialized through a single persist goroutine so
// rapid successive mutations cannot interleave. A watcher on the same key
// replaces the in-memory collection wholesale when another process writes it
// (last-writer-wins, no merge).
//
// Persistence failures never reach callers: a bad load degrades to the empty
// collection and a failed save leaves the store in-memory only. Both are logged.
type Store struct {
	kv     kv.Store
	logger core.Logger

	mu        sync.RWMutex
	deadlines []TrackedDeadline
	snapshot  []byte // last serialized form; suppresses watch echoes of our own writes

	saveCh chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(kvs kv.Store, logger core.Logger) *Store {
	s := &Store{
		kv:     kvs,
		logger: logger,
		saveCh: make(chan struct{}, 1),
	}
	s.load()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.persistLoop(ctx)

	if ch, err := kvs.Watch(ctx, StorageKey); err != nil {
		logger.Error(fmt.Sprintf("watching %s: %v", StorageKey, err), err)
	} else {
		s.wg.Add(1)
		go s.watchLoop(ctx, ch)
	}
	return s
}

func (s *Store) load() {
	data, err := s.kv.Get(StorageKey)
	if err != nil {
		if err != kv.ErrKeyNotFound {
			s.logger.Error(fmt.Sprintf("loading tracked deadlines: %v", err), err)
		}
		return
	}
	var deadlines []TrackedDeadline
	if err = json.Unmarshal(data, &deadlines); err != nil {
		s.logger.Error(fmt.Sprintf("loading tracked deadlines: %v", err), err)
		return // malformed data: start from the empty collection
	}
	s.deadlines = deadlines
	s.snapshot = data
}

// Add inserts d unless a record with the same DeadlineID exists (idempotent).
// Reminder defaults are applied when absent: disabled, 7 days before.
func (s *Store) Add(d TrackedDeadline) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(d.DeadlineID) >= 0 {
		return false
	}
	if d.ReminderDaysBefore == 0 {
		d.ReminderDaysBefore = DefaultReminderDaysBefore
	}
	s.deadlines = append(s.deadlines, d)
	s.scheduleSave()
	return true
}

// Remove deletes the matching record; no-op if absent.
func (s *Store) Remove(deadlineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(deadlineID)
	if i < 0 {
		return false
	}
	s.deadlines = append(s.deadlines[:i], s.deadlines[i+1:]...)
	s.scheduleSave()
	return true
}

// Update merges the non-nil fields of upd into the matching record.
// Silent no-op when absent: callers that must surface absence pre-check
// with Contains.
func (s *Store) Update(deadlineID string, upd UpdateTrackedDeadline) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(deadlineID)
	if i < 0 {
		return false
	}
	d := &s.deadlines[i]
	if upd.Title != nil {
		d.Title = *upd.Title
	}
	if upd.Date != nil {
		d.Date = *upd.Date
	}
	if upd.InstitutionName != nil {
		d.InstitutionName = *upd.InstitutionName
	}
	if upd.InstitutionWebsite != nil {
		d.InstitutionWebsite = *upd.InstitutionWebsite
	}
	if upd.ReminderEnabled != nil {
		d.ReminderEnabled = *upd.ReminderEnabled
	}
	if upd.ReminderDaysBefore != nil {
		d.ReminderDaysBefore = *upd.ReminderDaysBefore
	}
	s.scheduleSave()
	return true
}

func (s *Store) Contains(deadlineID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(deadlineID) >= 0
}

func (s *Store) Get(deadlineID string) (TrackedDeadline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(deadlineID); i >= 0 {
		return s.deadlines[i], true
	}
	return TrackedDeadline{}, false
}

// List returns a copy of the collection in insertion order. Presentation
// re-sorts as needed (typically by date ascending).
func (s *Store) List() []TrackedDeadline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TrackedDeadline, len(s.deadlines))
	copy(out, s.deadlines)
	return out
}

// Close stops the background loops and flushes any pending write.
func (s *Store) Close() {
	s.cancel()
	s.wg.Wait()
	s.persist()
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(deadlineID string) int {
	for i := range s.deadlines {
		if s.deadlines[i].DeadlineID == deadlineID {
			return i
		}
	}
	return -1
}

// scheduleSave must be called with s.mu held. The buffered channel coalesces
// bursts of mutations into one write-through.
func (s *Store) scheduleSave() {
	select {
	case s.saveCh <- struct{}{}:
	default:
	}
}

func (s *Store) persistLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.saveCh:
			s.persist()
		}
	}
}

func (s *Store) persist() {
	s.mu.Lock()
	data, err := json.Marshal(s.deadlines)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error(fmt.Sprintf("serializing tracked deadlines: %v", err), err)
		return
	}
	s.snapshot = data
	s.mu.Unlock()

	if err = s.kv.Set(StorageKey, data); err != nil {
		// degrade to "not yet persisted"; in-memory state stays authoritative
		s.logger.Error(fmt.Sprintf("saving tracked deadlines: %v", err), err)
	}
}

func (s *Store) watchLoop(ctx context.Context, ch <-chan []byte) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-ch:
			if !ok {
				return
			}
			s.mu.Lock()
			if bytes.Equal(data, s.snapshot) { // our own write echoed back
				s.mu.Unlock()
				continue
			}
			var deadlines []TrackedDeadline
			if err := json.Unmarshal(data, &deadlines); err != nil {
				s.mu.Unlock()
				s.logger.Error(fmt.Sprintf("loading tracked deadlines from change event: %v", err), err)
				continue
			}
			s.deadlines = deadlines
			s.snapshot = data
			s.mu.Unlock()
		}
	}
}
