package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-engine/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Live sessions stay in a local map so the in-process state machine keeps
// driving them; Redis holds a JSON snapshot of every view under
// quiz:session:{id} so other instances can read session state.
type SessionStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	session *app.Session
	cancel  func()

	mu     sync.Mutex
	closed bool
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:  client,
		ttl:     ttl,
		entries: make(map[string]*entry),
	}
}

func (s *SessionStore) Put(ctx context.Context, session *app.Session) error {
	e := &entry{session: session}
	if err := s.write(ctx, session.ID(), session.View()); err != nil {
		return err
	}
	views, cancel := session.Subscribe()
	e.cancel = cancel

	s.mu.Lock()
	if old, ok := s.entries[session.ID()]; ok {
		old.close()
	}
	s.entries[session.ID()] = e
	s.mu.Unlock()

	go s.mirror(e, views)
	return nil
}

func (s *SessionStore) Get(_ context.Context, sessionID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) {
	s.mu.Lock()
	e, ok := s.entries[sessionID]
	delete(s.entries, sessionID)
	s.mu.Unlock()
	if ok {
		e.close()
	}
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		log.Printf("delete session snapshot %s: %v", sessionID, err)
	}
}

// Snapshot reads the last mirrored view of a session, which may be owned
// by another instance.
func (s *SessionStore) Snapshot(ctx context.Context, sessionID string) (app.SessionView, bool, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.SessionView{}, false, nil
	}
	if err != nil {
		return app.SessionView{}, false, fmt.Errorf("read session snapshot %s: %w", sessionID, err)
	}
	var view app.SessionView
	if err := json.Unmarshal(data, &view); err != nil {
		return app.SessionView{}, false, fmt.Errorf("decode session snapshot %s: %w", sessionID, err)
	}
	return view, true, nil
}

// mirror copies every view to Redis until the entry is closed.
func (s *SessionStore) mirror(e *entry, views <-chan app.SessionView) {
	for view := range views {
		e.mu.Lock()
		if !e.closed {
			if err := s.write(context.Background(), view.ID, view); err != nil {
				log.Printf("mirror session %s: %v", view.ID, err)
			}
		}
		e.mu.Unlock()
	}
}

func (s *SessionStore) write(ctx context.Context, sessionID string, view app.SessionView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("write session snapshot %s: %w", sessionID, err)
	}
	return nil
}

func (e *entry) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:session:" + sessionID
}
