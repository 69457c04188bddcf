package message

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"polychat/internal/domain"
	"polychat/internal/protocol/agreement"
)

// view is what a participant needs to read a conversation.
type view struct {
	conv domain.Conversation
	me   domain.UserID
	peer domain.UserID
	lang domain.Language
}

// History decrypts every envelope in conversation id for me, oldest first.
//
// Envelopes are opened in parallel. A message that cannot be opened carries
// domain.UnreadableText and its error and does not stop the batch. Peer
// messages are translated when me reads the conversation in a language other
// than the default; a failed translation is marked, never fatal.
func (s *Service) History(
	ctx context.Context,
	id domain.ConversationID,
	me domain.UserID,
) ([]domain.DecryptedMessage, error) {
	v, err := s.view(ctx, id, me)
	if err != nil {
		return nil, err
	}
	// Fail the whole read, not every message, when the local key is gone.
	if _, err := s.keys.LoadPrivateKey(me); err != nil {
		return nil, err
	}

	envs, err := s.messages.ListEnvelopes(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return []domain.DecryptedMessage{}, nil
	}

	key, keyErr := s.sharedKey(ctx, v)
	if keyErr == nil {
		defer agreement.Wipe(&key)
	}

	out := make([]domain.DecryptedMessage, len(envs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, env := range envs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if keyErr != nil {
				out[i] = unreadable(env, keyErr)
				return nil
			}
			out[i] = s.read(gctx, v, &key, env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, m := range out {
		if m.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		s.log.Warn().
			Str("conversation_id", id.String()).
			Int("failed", failed).
			Int("total", len(out)).
			Msg("some messages could not be decrypted")
	}
	return out, nil
}

// Watch streams decrypted messages appended to conversation id after since.
// The channel closes when ctx is done or the underlying subscription ends.
// The peer's published key is re-read before each envelope and the message
// key re-derived only when it changed, so a rotation is picked up without
// ever retrying an envelope that failed to open.
func (s *Service) Watch(
	ctx context.Context,
	id domain.ConversationID,
	me domain.UserID,
	since domain.Cursor,
) (<-chan domain.DecryptedMessage, error) {
	v, err := s.view(ctx, id, me)
	if err != nil {
		return nil, err
	}
	if _, err := s.keys.LoadPrivateKey(me); err != nil {
		return nil, err
	}

	envs, err := s.messages.Subscribe(ctx, id, since)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.DecryptedMessage)
	go func() {
		defer close(out)

		var (
			current domain.PublicKeyRecord
			key     domain.SharedKey
			keyErr  = errors.New("no key derived")
		)
		defer agreement.Wipe(&key)

		for env := range envs {
			rec, err := s.peerKey(ctx, v.peer)
			switch {
			case err != nil:
				// Keep the current key; the lookup failure only matters
				// when there is none.
				if keyErr != nil {
					keyErr = err
				}
			case keyErr != nil || rec != current:
				agreement.Wipe(&key)
				key, keyErr = s.deriveFor(v.me, rec)
				current = rec
			}

			var msg domain.DecryptedMessage
			if keyErr == nil {
				msg = s.read(ctx, v, &key, env)
			} else {
				msg = unreadable(env, keyErr)
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// view checks that me takes part in conversation id.
func (s *Service) view(ctx context.Context, id domain.ConversationID, me domain.UserID) (view, error) {
	conv, found, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return view{}, err
	}
	if !found {
		return view{}, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	if !conv.Has(me) {
		return view{}, fmt.Errorf("%w: %s in %s", domain.ErrNotParticipant, me, id)
	}
	return view{conv: conv, me: me, peer: conv.Peer(me), lang: conv.LanguageFor(me)}, nil
}

// sharedKey derives the conversation's message key from me's local key and
// the peer's currently published key.
func (s *Service) sharedKey(ctx context.Context, v view) (domain.SharedKey, error) {
	rec, err := s.peerKey(ctx, v.peer)
	if err != nil {
		return domain.SharedKey{}, err
	}
	return s.deriveFor(v.me, rec)
}

// peerKey returns the key currently published on peer's profile.
func (s *Service) peerKey(ctx context.Context, peer domain.UserID) (domain.PublicKeyRecord, error) {
	profile, err := s.identity.Profile(ctx, peer)
	if err != nil {
		return domain.PublicKeyRecord{}, err
	}
	if !profile.CanReceive() {
		return domain.PublicKeyRecord{}, fmt.Errorf("%w: %s", domain.ErrRecipientUnavailable, peer)
	}
	return profile.PublicKey, nil
}

// deriveFor derives me's message key with the peer record rec.
func (s *Service) deriveFor(me domain.UserID, rec domain.PublicKeyRecord) (domain.SharedKey, error) {
	priv, err := s.keys.LoadPrivateKey(me)
	if err != nil {
		return domain.SharedKey{}, err
	}
	return agreement.DeriveFromRecord(priv, rec)
}

// read opens env and, for peer messages, attaches a translation.
func (s *Service) read(
	ctx context.Context,
	v view,
	key *domain.SharedKey,
	env domain.Envelope,
) domain.DecryptedMessage {
	pt, err := open(key, env)
	if err != nil {
		return unreadable(env, err)
	}
	msg := domain.DecryptedMessage{
		ID:        env.ID,
		SenderID:  env.SenderID,
		Text:      string(pt),
		Timestamp: env.Timestamp,
		Seq:       env.Seq,
	}
	if s.translator == nil || env.SenderID == v.me || v.lang == domain.DefaultLanguage {
		return msg
	}

	tr, err := s.translator.Translate(ctx, msg.Text, v.lang)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.log.Warn().
				Err(err).
				Str("conversation_id", env.ConversationID.String()).
				Str("message_id", env.ID.String()).
				Msg("translation failed")
		}
		msg.Translation = domain.TranslationUnavailable
		return msg
	}
	msg.Translation = tr
	return msg
}

func unreadable(env domain.Envelope, err error) domain.DecryptedMessage {
	return domain.DecryptedMessage{
		ID:        env.ID,
		SenderID:  env.SenderID,
		Text:      domain.UnreadableText,
		Timestamp: env.Timestamp,
		Seq:       env.Seq,
		Err:       err,
	}
}
