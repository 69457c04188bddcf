package message

import (
	"context"
	"crypto/ecdh"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"polychat/internal/crypto"
	"polychat/internal/domain"
	"polychat/internal/protocol/agreement"
	"polychat/internal/protocol/conversation"
)

// defaultParallelism bounds concurrent decryptions in History.
const defaultParallelism = 8

// Service opens conversations and encrypts, stores, decrypts and deletes
// messages.
//
// High-level flow:
//   - Send: look up the recipient's published key, load (or create) the
//     sender's private key, derive the pair's message key, encrypt under a
//     fresh nonce, publish a newly created key, then make exactly one append.
//   - DecryptIncoming: load the local private key (never created here),
//     derive the same key from the peer's published record and open the
//     envelope.
//
// The associated data of every message binds the conversation id and the
// sender id, so an envelope cannot be replayed into another conversation or
// attributed to the other participant.
type Service struct {
	keys          domain.KeyStore
	identity      domain.IdentityService
	conversations domain.ConversationStore
	messages      domain.MessageLog
	translator    domain.Translator
	log           zerolog.Logger
	parallelism   int
}

// Option configures a Service.
type Option func(*Service)

// WithTranslator enables translation of peer messages in History and Watch.
func WithTranslator(t domain.Translator) Option {
	return func(s *Service) { s.translator = t }
}

// WithLogger sets the logger. Plaintext and key material are never logged.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithParallelism bounds concurrent decryptions in History. n < 1 is ignored.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// New constructs a message service.
func New(
	keys domain.KeyStore,
	identity domain.IdentityService,
	conversations domain.ConversationStore,
	messages domain.MessageLog,
	opts ...Option,
) *Service {
	s := &Service{
		keys:          keys,
		identity:      identity,
		conversations: conversations,
		messages:      messages,
		log:           zerolog.Nop(),
		parallelism:   defaultParallelism,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenOrCreate returns the conversation between a and b, creating it if
// absent with a's language set to lang and b's to the default. A concurrent
// open by the peer is resolved by the store's create-if-absent; losing that
// race is not an error.
func (s *Service) OpenOrCreate(
	ctx context.Context,
	a, b domain.UserID,
	lang domain.Language,
) (domain.Conversation, error) {
	id, err := conversation.IDFor(a, b)
	if err != nil {
		return domain.Conversation{}, err
	}

	conv, found, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if found {
		return conv, nil
	}

	if lang == "" {
		lang = domain.DefaultLanguage
	}
	lo, hi, err := conversation.Participants(id)
	if err != nil {
		return domain.Conversation{}, err
	}
	created, err := s.conversations.CreateConversation(ctx, domain.Conversation{
		ID:           id,
		Participants: [2]domain.UserID{lo, hi},
		Prefs: map[domain.UserID]domain.Language{
			a: lang,
			b: domain.DefaultLanguage,
		},
	})
	if err != nil {
		return domain.Conversation{}, err
	}
	if created {
		s.log.Info().Str("conversation_id", id.String()).Msg("created conversation")
	}

	conv, found, err = s.conversations.GetConversation(ctx, id)
	if err != nil {
		return domain.Conversation{}, err
	}
	if !found {
		return domain.Conversation{}, fmt.Errorf("%w: %s", domain.ErrConversationNotFound, id)
	}
	return conv, nil
}

// Conversations lists the conversations me takes part in, newest first,
// each with the peer's username when the peer still has a profile.
func (s *Service) Conversations(ctx context.Context, me domain.UserID) ([]domain.ConversationSummary, error) {
	if err := conversation.ValidateUserID(me); err != nil {
		return nil, err
	}
	convs, err := s.conversations.ListConversations(ctx, me)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ConversationSummary, 0, len(convs))
	for _, c := range convs {
		sum := domain.ConversationSummary{Conversation: c, Peer: c.Peer(me)}
		p, err := s.identity.Profile(ctx, sum.Peer)
		switch {
		case err == nil:
			sum.PeerUsername = p.Username
		case !errors.Is(err, domain.ErrProfileNotFound):
			return nil, fmt.Errorf("load profile of %s: %w", sum.Peer, err)
		}
		out = append(out, sum)
	}
	return out, nil
}

// Send encrypts plaintext from sender to recipient and appends it to
// conversation id. A failed append is reported as domain.ErrDeliveryFailure
// without retry.
//
// If the sender has no key yet, one is created, used to encrypt and only
// then published, right before the append. When anything before the publish
// fails the new key is deleted again, so a failed send leaves neither a
// profile write nor a local key behind.
//
// A recipient whose published record is not a valid P-256 key is reported
// with both domain.ErrRecipientUnavailable and domain.ErrInvalidKey: it
// cannot be sent to, and its profile holds corrupt data.
func (s *Service) Send(
	ctx context.Context,
	id domain.ConversationID,
	sender, recipient domain.UserID,
	plaintext []byte,
) (domain.Envelope, error) {
	want, err := conversation.IDFor(sender, recipient)
	if err != nil {
		return domain.Envelope{}, err
	}
	if want != id {
		return domain.Envelope{}, fmt.Errorf("%w: %s and %s in %s", domain.ErrNotParticipant, sender, recipient, id)
	}

	peer, err := s.recipientKey(ctx, recipient)
	if err != nil {
		return domain.Envelope{}, err
	}

	priv, created, err := s.keys.LoadOrCreatePrivateKey(sender)
	if err != nil {
		return domain.Envelope{}, err
	}
	discard := func(err error) error {
		if !created {
			return err
		}
		if delErr := s.keys.DeleteKey(sender); delErr != nil {
			return errors.Join(err, delErr)
		}
		return err
	}

	key, err := agreement.DeriveFromRecord(priv, peer)
	if err != nil {
		return domain.Envelope{}, discard(fmt.Errorf("%w: recipient %s: %w", domain.ErrRecipientUnavailable, recipient, err))
	}
	defer agreement.Wipe(&key)

	sealed, err := crypto.Encrypt(&key, plaintext, associatedData(id, sender))
	if err != nil {
		return domain.Envelope{}, discard(err)
	}

	if created {
		if err := s.publishSenderKey(ctx, sender, priv); err != nil {
			return domain.Envelope{}, discard(fmt.Errorf("publish new key: %w", err))
		}
	}

	stored, err := s.messages.AppendEnvelope(ctx, domain.Envelope{
		ConversationID: id,
		SenderID:       sender,
		Ciphertext:     sealed.Ciphertext,
		Nonce:          sealed.Nonce,
	})
	if err != nil {
		s.log.Error().Err(err).Str("conversation_id", id.String()).Msg("append envelope")
		return domain.Envelope{}, fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err)
	}
	s.log.Debug().
		Str("conversation_id", id.String()).
		Str("message_id", stored.ID.String()).
		Uint64("seq", uint64(stored.Seq)).
		Msg("sent message")
	return stored, nil
}

// DecryptIncoming opens env for me using the peer's published key. It never
// creates a local key: a missing one is domain.ErrKeyNotFound. A failed
// open is domain.ErrAuthenticationFailure and is final for that envelope.
func (s *Service) DecryptIncoming(
	env domain.Envelope,
	me domain.UserID,
	peer domain.PublicKeyRecord,
) ([]byte, error) {
	priv, err := s.keys.LoadPrivateKey(me)
	if err != nil {
		return nil, err
	}
	key, err := agreement.DeriveFromRecord(priv, peer)
	if err != nil {
		return nil, err
	}
	defer agreement.Wipe(&key)

	return open(&key, env)
}

// DeleteMessage removes one envelope from conversation id.
func (s *Service) DeleteMessage(ctx context.Context, id domain.ConversationID, msg domain.MessageID) error {
	if err := s.messages.DeleteEnvelope(ctx, id, msg); err != nil {
		return err
	}
	s.log.Info().
		Str("conversation_id", id.String()).
		Str("message_id", msg.String()).
		Msg("deleted message")
	return nil
}

// SetLanguage sets uid's translation language for conversation id.
func (s *Service) SetLanguage(
	ctx context.Context,
	id domain.ConversationID,
	uid domain.UserID,
	lang domain.Language,
) error {
	if lang == "" {
		lang = domain.DefaultLanguage
	}
	return s.conversations.SetLanguage(ctx, id, uid, lang)
}

// recipientKey returns the recipient's published key or
// domain.ErrRecipientUnavailable.
func (s *Service) recipientKey(ctx context.Context, recipient domain.UserID) (domain.PublicKeyRecord, error) {
	profile, err := s.identity.Profile(ctx, recipient)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return domain.PublicKeyRecord{}, fmt.Errorf("%w: %s", domain.ErrRecipientUnavailable, recipient)
	}
	if err != nil {
		return domain.PublicKeyRecord{}, fmt.Errorf("load recipient profile: %w", err)
	}
	if !profile.CanReceive() {
		return domain.PublicKeyRecord{}, fmt.Errorf("%w: %s", domain.ErrRecipientUnavailable, recipient)
	}
	return profile.PublicKey, nil
}

// publishSenderKey publishes the public half of a key created during Send.
func (s *Service) publishSenderKey(ctx context.Context, sender domain.UserID, priv *ecdh.PrivateKey) error {
	rec, err := crypto.ExportPublicKey(priv.PublicKey())
	if err != nil {
		return err
	}
	if err := s.identity.PublishKey(ctx, sender, rec); err != nil {
		return err
	}
	s.log.Warn().Str("user_id", sender.String()).Msg("created and published a new key pair while sending")
	return nil
}

// open decrypts env with an already derived key.
func open(key *domain.SharedKey, env domain.Envelope) ([]byte, error) {
	return crypto.Decrypt(key, env.Ciphertext, env.Nonce, associatedData(env.ConversationID, env.SenderID))
}

// associatedData is conversationID || 0x00 || senderID. Neither id may be
// empty, and user ids cannot hold NUL in any supported identity provider.
func associatedData(id domain.ConversationID, sender domain.UserID) []byte {
	ad := make([]byte, 0, len(id)+1+len(sender))
	ad = append(ad, id...)
	ad = append(ad, 0)
	return append(ad, sender...)
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
