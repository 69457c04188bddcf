package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"polychat/internal/domain"
)

// Memory is a concurrency-safe in-memory document store.
type Memory struct {
	mu            sync.RWMutex
	profiles      map[domain.UserID]domain.UserProfile
	conversations map[domain.ConversationID]domain.Conversation
	logs          map[domain.ConversationID]*envelopeLog

	now func() time.Time
}

// envelopeLog is one conversation's ordered envelopes. notify is closed and
// replaced on every append to wake subscribers.
type envelopeLog struct {
	seq    domain.Cursor
	envs   []domain.Envelope
	notify chan struct{}
}

// Option configures a Memory store.
type Option func(*Memory)

// WithClock overrides the time source used for server timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory returns an empty store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		profiles:      make(map[domain.UserID]domain.UserProfile),
		conversations: make(map[domain.ConversationID]domain.Conversation),
		logs:          make(map[domain.ConversationID]*envelopeLog),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ---------- Profiles ----------

// PutProfile creates or replaces a profile. A username held by another user
// is rejected with domain.ErrUsernameTaken.
func (m *Memory) PutProfile(_ context.Context, p domain.UserProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.Username != "" {
		for uid, other := range m.profiles {
			if uid != p.UserID && other.Username == p.Username {
				return fmt.Errorf("%w: %s", domain.ErrUsernameTaken, p.Username)
			}
		}
	}
	if prev, ok := m.profiles[p.UserID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = prev.CreatedAt
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now().UTC()
	}
	m.profiles[p.UserID] = p
	return nil
}

// GetProfile returns the profile for uid.
func (m *Memory) GetProfile(_ context.Context, uid domain.UserID) (domain.UserProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[uid]
	return p, ok, nil
}

// FindProfileByUsername returns the profile holding username.
func (m *Memory) FindProfileByUsername(
	_ context.Context,
	username domain.Username,
) (domain.UserProfile, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles {
		if p.Username == username {
			return p, true, nil
		}
	}
	return domain.UserProfile{}, false, nil
}

// DeleteProfile removes the profile for uid. Conversations are kept.
func (m *Memory) DeleteProfile(_ context.Context, uid domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, uid)
	return nil
}

// ---------- Conversations ----------

// CreateConversation stores conv unless a record with the same id exists.
func (m *Memory) CreateConversation(_ context.Context, conv domain.Conversation) (bool, error) {
	if conv.ID == "" {
		return false, fmt.Errorf("%w: empty conversation id", domain.ErrInvalidIdentifier)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[conv.ID]; ok {
		return false, nil
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = m.now().UTC()
	}
	conv.Prefs = copyPrefs(conv.Prefs)
	m.conversations[conv.ID] = conv
	m.logs[conv.ID] = &envelopeLog{notify: make(chan struct{})}
	return true, nil
}

// GetConversation returns the conversation record for id.
func (m *Memory) GetConversation(
	_ context.Context,
	id domain.ConversationID,
) (domain.Conversation, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, false, nil
	}
	c.Prefs = copyPrefs(c.Prefs)
	return c, true, nil
}

// ListConversations returns the conversations uid takes part in, newest
// first, ties broken by id.
func (m *Memory) ListConversations(_ context.Context, uid domain.UserID) ([]domain.Conversation, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: empty user id", domain.ErrInvalidIdentifier)
	}
	m.mu.RLock()
	out := make([]domain.Conversation, 0)
	for _, c := range m.conversations {
		if c.Has(uid) {
			c.Prefs = copyPrefs(c.Prefs)
			out = append(out, c)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SetLanguage updates uid's language preference in conversation id.
func (m *Memory) SetLanguage(
	_ context.Context,
	id domain.ConversationID,
	uid domain.UserID,
	lang domain.Language,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	if !c.Has(uid) {
		return fmt.Errorf("%w: %s in %s", domain.ErrNotParticipant, uid, id)
	}
	c.Prefs = copyPrefs(c.Prefs)
	c.Prefs[uid] = lang
	m.conversations[id] = c
	return nil
}

// ---------- Message log ----------

// AppendEnvelope assigns id, timestamp and sequence number to env and
// appends it to its conversation's log.
func (m *Memory) AppendEnvelope(_ context.Context, env domain.Envelope) (domain.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[env.ConversationID]
	if !ok {
		return domain.Envelope{}, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, env.ConversationID)
	}
	if !c.Has(env.SenderID) {
		return domain.Envelope{}, fmt.Errorf("%w: %s in %s", domain.ErrNotParticipant, env.SenderID, env.ConversationID)
	}

	log := m.logs[env.ConversationID]
	log.seq++
	env.ID = domain.MessageID(uuid.NewString())
	env.Timestamp = m.now().UTC()
	env.Seq = log.seq
	log.envs = append(log.envs, env)

	close(log.notify)
	log.notify = make(chan struct{})
	return env, nil
}

// ListEnvelopes returns envelopes with Seq greater than since, oldest first.
func (m *Memory) ListEnvelopes(
	_ context.Context,
	id domain.ConversationID,
	since domain.Cursor,
) ([]domain.Envelope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	envs, _, err := m.listLocked(id, since)
	return envs, err
}

// Subscribe streams envelopes appended after since until ctx is done.
func (m *Memory) Subscribe(
	ctx context.Context,
	id domain.ConversationID,
	since domain.Cursor,
) (<-chan domain.Envelope, error) {
	m.mu.RLock()
	_, _, err := m.listLocked(id, since)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	out := make(chan domain.Envelope)
	go func() {
		defer close(out)
		cursor := since
		for {
			m.mu.RLock()
			envs, wake, err := m.listLocked(id, cursor)
			m.mu.RUnlock()
			if err != nil {
				return
			}
			for _, env := range envs {
				select {
				case out <- env:
					cursor = env.Seq
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-wake:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// DeleteEnvelope removes one envelope. Deleting a missing envelope is a no-op.
func (m *Memory) DeleteEnvelope(_ context.Context, id domain.ConversationID, msg domain.MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, ok := m.logs[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	for i, env := range log.envs {
		if env.ID == msg {
			log.envs = append(log.envs[:i:i], log.envs[i+1:]...)
			return nil
		}
	}
	return nil
}

// WaitChannel returns a channel closed on the next append to conversation id.
// The HTTP server uses it for long-poll reads.
func (m *Memory) WaitChannel(id domain.ConversationID) (<-chan struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	log, ok := m.logs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	return log.notify, nil
}

// listLocked copies the envelopes after since and returns the channel that
// will be closed on the next append. m.mu must be held.
func (m *Memory) listLocked(
	id domain.ConversationID,
	since domain.Cursor,
) ([]domain.Envelope, <-chan struct{}, error) {
	log, ok := m.logs[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	i := sort.Search(len(log.envs), func(i int) bool { return log.envs[i].Seq > since })
	out := make([]domain.Envelope, len(log.envs)-i)
	copy(out, log.envs[i:])
	return out, log.notify, nil
}

func copyPrefs(in map[domain.UserID]domain.Language) map[domain.UserID]domain.Language {
	out := make(map[domain.UserID]domain.Language, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Compile-time assertion that Memory implements domain.DocumentStore.
var _ domain.DocumentStore = (*Memory)(nil)
