package relay_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"polychat/internal/docstore"
	"polychat/internal/domain"
	"polychat/internal/relay"
	"polychat/internal/services/identity"
	"polychat/internal/services/keystore"
	"polychat/internal/services/message"
	"polychat/internal/store"
)

func newClient(t *testing.T) (*relay.HTTP, *docstore.Memory) {
	t.Helper()
	mem := docstore.NewMemory()
	srv := httptest.NewServer(docstore.NewServer(mem, zerolog.Nop()))
	t.Cleanup(srv.Close)

	c := relay.NewHTTP(srv.URL+"/", zerolog.Nop())
	c.PollWait = 200 * time.Millisecond
	c.RetryBase = 10 * time.Millisecond
	return c, mem
}

func TestProfiles_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	if _, ok, err := c.GetProfile(ctx, "u1"); err != nil || ok {
		t.Fatalf("missing profile: ok=%v err=%v", ok, err)
	}

	p := domain.UserProfile{
		UserID:        "u1",
		Username:      "alice",
		PublicKey:     domain.PublicKeyRecord{Curve: "P-256", X: "x", Y: "y"},
		PreferredLang: "hi",
	}
	if err := c.PutProfile(ctx, p); err != nil {
		t.Fatalf("PutProfile: %v", err)
	}
	got, ok, err := c.GetProfile(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("GetProfile: ok=%v err=%v", ok, err)
	}
	if got.Username != p.Username || got.PublicKey != p.PublicKey || got.PreferredLang != "hi" {
		t.Fatalf("got %+v", got)
	}

	byName, ok, err := c.FindProfileByUsername(ctx, "alice")
	if err != nil || !ok || byName.UserID != "u1" {
		t.Fatalf("FindProfileByUsername: %+v ok=%v err=%v", byName, ok, err)
	}
	if _, ok, err := c.FindProfileByUsername(ctx, "nobody"); err != nil || ok {
		t.Fatalf("unknown username: ok=%v err=%v", ok, err)
	}

	err = c.PutProfile(ctx, domain.UserProfile{UserID: "u2", Username: "alice"})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("duplicate username: got %v", err)
	}

	if err := c.DeleteProfile(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetProfile(ctx, "u1"); ok {
		t.Fatal("profile still present")
	}
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	empty, err := c.ListConversations(ctx, "u1")
	if err != nil || len(empty) != 0 {
		t.Fatalf("no conversations: %v err=%v", empty, err)
	}

	for _, conv := range []domain.Conversation{
		{ID: "u1_u2", Participants: [2]domain.UserID{"u1", "u2"}},
		{ID: "u2_u3", Participants: [2]domain.UserID{"u2", "u3"}},
	} {
		if _, err := c.CreateConversation(ctx, conv); err != nil {
			t.Fatal(err)
		}
	}

	got, err := c.ListConversations(ctx, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(got) != 1 || got[0].ID != "u1_u2" || got[0].Peer("u1") != "u2" {
		t.Fatalf("got %+v", got)
	}
	if got, _ := c.ListConversations(ctx, "u2"); len(got) != 2 {
		t.Fatalf("u2 sees %d conversations, want 2", len(got))
	}
}

func TestConversationsAndMessages(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	conv := domain.Conversation{
		ID:           "u1_u2",
		Participants: [2]domain.UserID{"u1", "u2"},
		Prefs:        map[domain.UserID]domain.Language{"u1": "en", "u2": "en"},
	}
	created, err := c.CreateConversation(ctx, conv)
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}
	created, err = c.CreateConversation(ctx, conv)
	if err != nil || created {
		t.Fatalf("second create: created=%v err=%v", created, err)
	}

	if err := c.SetLanguage(ctx, conv.ID, "u2", "es"); err != nil {
		t.Fatalf("SetLanguage: %v", err)
	}
	got, ok, err := c.GetConversation(ctx, conv.ID)
	if err != nil || !ok || got.LanguageFor("u2") != "es" {
		t.Fatalf("GetConversation: %+v ok=%v err=%v", got, ok, err)
	}
	if err := c.SetLanguage(ctx, conv.ID, "u3", "es"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Fatalf("outsider SetLanguage: got %v", err)
	}

	env, err := c.AppendEnvelope(ctx, domain.Envelope{ConversationID: conv.ID, SenderID: "u1", Ciphertext: "Y3Q=", Nonce: "aXY="})
	if err != nil {
		t.Fatalf("AppendEnvelope: %v", err)
	}
	if env.ID == "" || env.Seq != 1 || env.Timestamp.IsZero() {
		t.Fatalf("server fields missing: %+v", env)
	}
	if _, err := c.AppendEnvelope(ctx, domain.Envelope{ConversationID: "u1_u9", SenderID: "u1"}); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("append to missing conversation: got %v", err)
	}

	envs, err := c.ListEnvelopes(ctx, conv.ID, 0)
	if err != nil || len(envs) != 1 || envs[0].Ciphertext != "Y3Q=" {
		t.Fatalf("ListEnvelopes: %+v err=%v", envs, err)
	}

	if err := c.DeleteEnvelope(ctx, conv.ID, env.ID); err != nil {
		t.Fatalf("DeleteEnvelope: %v", err)
	}
	envs, _ = c.ListEnvelopes(ctx, conv.ID, 0)
	if len(envs) != 0 {
		t.Fatalf("after delete: %d", len(envs))
	}
}

func TestSubscribe_LongPoll(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, mem := newClient(t)

	conv := domain.Conversation{ID: "u1_u2", Participants: [2]domain.UserID{"u1", "u2"}}
	if _, err := mem.CreateConversation(ctx, conv); err != nil {
		t.Fatal(err)
	}

	ch, err := c.Subscribe(ctx, conv.ID, 0)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for i, sender := range []domain.UserID{"u1", "u2"} {
		sent, err := mem.AppendEnvelope(ctx, domain.Envelope{ConversationID: conv.ID, SenderID: sender})
		if err != nil {
			t.Fatal(err)
		}
		select {
		case got := <-ch:
			if got.ID != sent.ID {
				t.Fatalf("envelope %d: got %s, want %s", i, got.ID, sent.ID)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("timed out waiting for envelope %d", i)
		}
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("unexpected envelope after cancel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}

	if _, err := c.Subscribe(context.Background(), "u1_u9", 0); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Fatalf("subscribe to missing conversation: got %v", err)
	}
}

func TestUnknownErrorStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, zerolog.Nop())
	_, _, err := c.GetProfile(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatal("502 mapped to not found")
	}
	if hits.Load() != 1 {
		t.Fatalf("hits = %d", hits.Load())
	}
}

func TestMessagingOverHTTP(t *testing.T) {
	ctx := context.Background()
	c, _ := newClient(t)

	keys := keystore.New(store.NewMemorySecretStore())
	ids := identity.New(keys, c)
	svc := message.New(keys, ids, c, c)

	alice, err := ids.Register(ctx, "u1", "alice", "en")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ids.Register(ctx, "u2", "bob", "en"); err != nil {
		t.Fatal(err)
	}
	conv, err := svc.OpenOrCreate(ctx, "u1", "u2", "en")
	if err != nil {
		t.Fatal(err)
	}
	env, err := svc.Send(ctx, conv.ID, "u1", "u2", []byte("hello bob"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	listed, err := c.ListEnvelopes(ctx, conv.ID, 0)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListEnvelopes: %d err=%v", len(listed), err)
	}
	pt, err := svc.DecryptIncoming(listed[0], "u2", alice.PublicKey)
	if err != nil || string(pt) != "hello bob" {
		t.Fatalf("decrypt: %q err=%v", pt, err)
	}
	if listed[0].ID != env.ID {
		t.Fatal("listed envelope differs from sent one")
	}
}
