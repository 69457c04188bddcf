package relay

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"polychat/internal/docstore"
	"polychat/internal/domain"
)

const (
	defaultPollWait  = 25 * time.Second
	defaultRetryBase = 500 * time.Millisecond
	maxRetryDelay    = 30 * time.Second
)

// HTTP is a domain.DocumentStore backed by the docstore HTTP API.
type HTTP struct {
	Base string
	HTTP *http.Client

	// PollWait is the long-poll duration requested by Subscribe.
	PollWait time.Duration
	// RetryBase is the first back-off delay after a failed poll.
	RetryBase time.Duration

	log zerolog.Logger
}

// NewHTTP returns a client for the document store at base.
func NewHTTP(base string, log zerolog.Logger) *HTTP {
	return &HTTP{
		Base:      strings.TrimRight(base, "/"),
		HTTP:      &http.Client{Timeout: defaultPollWait + 15*time.Second},
		PollWait:  defaultPollWait,
		RetryBase: defaultRetryBase,
		log:       log,
	}
}

// ---------- Profiles ----------

// PutProfile stores p.
func (c *HTTP) PutProfile(ctx context.Context, p domain.UserProfile) error {
	return c.do(ctx, http.MethodPut, "/profiles/"+url.PathEscape(p.UserID.String()), p, nil)
}

// GetProfile fetches uid's profile.
func (c *HTTP) GetProfile(ctx context.Context, uid domain.UserID) (domain.UserProfile, bool, error) {
	var p domain.UserProfile
	err := c.do(ctx, http.MethodGet, "/profiles/"+url.PathEscape(uid.String()), nil, &p)
	return found(p, err)
}

// FindProfileByUsername fetches the profile holding username.
func (c *HTTP) FindProfileByUsername(
	ctx context.Context,
	username domain.Username,
) (domain.UserProfile, bool, error) {
	var p domain.UserProfile
	q := url.Values{"username": {username.String()}}
	err := c.do(ctx, http.MethodGet, "/profiles?"+q.Encode(), nil, &p)
	return found(p, err)
}

// DeleteProfile deletes uid's profile.
func (c *HTTP) DeleteProfile(ctx context.Context, uid domain.UserID) error {
	return c.do(ctx, http.MethodDelete, "/profiles/"+url.PathEscape(uid.String()), nil, nil)
}

// ---------- Conversations ----------

// CreateConversation creates conv if absent.
func (c *HTTP) CreateConversation(ctx context.Context, conv domain.Conversation) (bool, error) {
	var res docstore.CreateResult
	if err := c.do(ctx, http.MethodPost, "/conversations", conv, &res); err != nil {
		return false, err
	}
	return res.Created, nil
}

// GetConversation fetches conversation id.
func (c *HTTP) GetConversation(
	ctx context.Context,
	id domain.ConversationID,
) (domain.Conversation, bool, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodGet, "/conversations/"+url.PathEscape(id.String()), nil, &conv)
	return found(conv, err)
}

// ListConversations fetches the conversations uid takes part in.
func (c *HTTP) ListConversations(ctx context.Context, uid domain.UserID) ([]domain.Conversation, error) {
	convs := []domain.Conversation{}
	q := url.Values{"participant": {uid.String()}}
	if err := c.do(ctx, http.MethodGet, "/conversations?"+q.Encode(), nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// SetLanguage sets uid's language in conversation id.
func (c *HTTP) SetLanguage(
	ctx context.Context,
	id domain.ConversationID,
	uid domain.UserID,
	lang domain.Language,
) error {
	path := "/conversations/" + url.PathEscape(id.String()) + "/prefs/" + url.PathEscape(uid.String())
	return c.do(ctx, http.MethodPut, path, docstore.LanguageBody{Lang: lang}, nil)
}

// ---------- Messages ----------

// AppendEnvelope posts env and returns it as stored.
func (c *HTTP) AppendEnvelope(ctx context.Context, env domain.Envelope) (domain.Envelope, error) {
	var out domain.Envelope
	if err := c.do(ctx, http.MethodPost, messagesPath(env.ConversationID), env, &out); err != nil {
		return domain.Envelope{}, err
	}
	return out, nil
}

// ListEnvelopes fetches envelopes after since.
func (c *HTTP) ListEnvelopes(
	ctx context.Context,
	id domain.ConversationID,
	since domain.Cursor,
) ([]domain.Envelope, error) {
	return c.list(ctx, id, since, 0)
}

// DeleteEnvelope deletes one envelope.
func (c *HTTP) DeleteEnvelope(ctx context.Context, id domain.ConversationID, msg domain.MessageID) error {
	return c.do(ctx, http.MethodDelete, messagesPath(id)+"/"+url.PathEscape(msg.String()), nil, nil)
}

// Subscribe long-polls for envelopes after since until ctx is done. Transient
// failures are retried with exponential back-off; a missing conversation
// ends the subscription.
func (c *HTTP) Subscribe(
	ctx context.Context,
	id domain.ConversationID,
	since domain.Cursor,
) (<-chan domain.Envelope, error) {
	// Fail fast on a bad conversation before starting the poller.
	if _, err := c.list(ctx, id, since, 0); err != nil {
		return nil, err
	}

	out := make(chan domain.Envelope)
	go func() {
		defer close(out)
		cursor := since
		delay := c.RetryBase
		for ctx.Err() == nil {
			envs, err := c.list(ctx, id, cursor, c.PollWait)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if errors.Is(err, domain.ErrConversationNotFound) {
					c.log.Warn().Str("conversation_id", id.String()).Msg("conversation gone; ending subscription")
					return
				}
				c.log.Warn().Err(err).Dur("retry_in", delay).Msg("poll failed")
				if !sleep(ctx, delay) {
					return
				}
				delay = min(delay*2, maxRetryDelay)
				continue
			}
			delay = c.RetryBase
			for _, env := range envs {
				select {
				case out <- env:
					cursor = env.Seq
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (c *HTTP) list(
	ctx context.Context,
	id domain.ConversationID,
	since domain.Cursor,
	wait time.Duration,
) ([]domain.Envelope, error) {
	q := url.Values{"since": {strconv.FormatUint(uint64(since), 10)}}
	if wait > 0 {
		q.Set("wait", wait.String())
	}
	var envs []domain.Envelope
	if err := c.do(ctx, http.MethodGet, messagesPath(id)+"?"+q.Encode(), nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

func messagesPath(id domain.ConversationID) string {
	return "/conversations/" + url.PathEscape(id.String()) + "/messages"
}

// found turns a not-found reply into ok=false.
func found[T any](v T, err error) (T, bool, error) {
	var zero T
	if errors.Is(err, domain.ErrProfileNotFound) || errors.Is(err, domain.ErrConversationNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// Compile-time assertion that HTTP implements domain.DocumentStore.
var _ domain.DocumentStore = (*HTTP)(nil)
