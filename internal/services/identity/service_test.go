package identity_test

import (
	"context"
	"errors"
	"testing"

	"polychat/internal/docstore"
	"polychat/internal/domain"
	"polychat/internal/services/identity"
	"polychat/internal/services/keystore"
	"polychat/internal/store"
)

// flakyProfiles fails PutProfile while fail is set.
type flakyProfiles struct {
	*docstore.Memory
	fail bool
}

func (f *flakyProfiles) PutProfile(ctx context.Context, p domain.UserProfile) error {
	if f.fail {
		return errors.New("store unavailable")
	}
	return f.Memory.PutProfile(ctx, p)
}

type fixture struct {
	keys     *keystore.Service
	profiles *flakyProfiles
	svc      *identity.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	keys := keystore.New(store.NewMemorySecretStore())
	profiles := &flakyProfiles{Memory: docstore.NewMemory()}
	return fixture{keys: keys, profiles: profiles, svc: identity.New(keys, profiles)}
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p, err := f.svc.Register(ctx, "u1", " alice ", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if p.Username != "alice" || p.PreferredLang != domain.DefaultLanguage {
		t.Fatalf("unexpected profile: %+v", p)
	}
	local, err := f.keys.PublicKey("u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PublicKey != local {
		t.Fatal("published key differs from local key")
	}
	if err := f.svc.Verify(ctx, "u1"); err != nil {
		t.Fatalf("Verify after register: %v", err)
	}

	found, err := f.svc.FindByUsername(ctx, "alice")
	if err != nil || found.UserID != "u1" {
		t.Fatalf("FindByUsername: %+v err=%v", found, err)
	}
}

func TestRegister_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Register(ctx, "u1", "alice", "en"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		uid      domain.UserID
		username domain.Username
		want     error
	}{
		{"taken username", "u2", "alice", domain.ErrUsernameTaken},
		{"empty uid", "", "bob", domain.ErrInvalidIdentifier},
		{"separator in uid", "u_2", "bob", domain.ErrInvalidIdentifier},
		{"empty username", "u2", "  ", identity.ErrInvalidUsername},
		{"space in username", "u2", "bob smith", identity.ErrInvalidUsername},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Register(ctx, tt.uid, tt.username, "en")
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if _, err := f.keys.LoadPrivateKey(tt.uid); !errors.Is(err, domain.ErrKeyNotFound) {
				t.Fatalf("rejected registration left a local key: %v", err)
			}
		})
	}
}

func TestRegister_PublishFailureLeavesNoKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.profiles.fail = true

	if _, err := f.svc.Register(ctx, "u1", "alice", "en"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := f.keys.LoadPrivateKey("u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("local key left behind: %v", err)
	}
}

func TestRotate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.Register(ctx, "u1", "alice", "hi")
	if err != nil {
		t.Fatal(err)
	}

	rec, err := f.svc.Rotate(ctx, "u1")
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rec == p.PublicKey {
		t.Fatal("rotation kept the old key")
	}
	if err := f.svc.Verify(ctx, "u1"); err != nil {
		t.Fatalf("Verify after rotate: %v", err)
	}
	after, _ := f.svc.Profile(ctx, "u1")
	if after.Username != "alice" || after.PreferredLang != "hi" {
		t.Fatalf("rotation changed profile fields: %+v", after)
	}
}

func TestRotate_PublishFailureRestoresKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p, err := f.svc.Register(ctx, "u1", "alice", "en")
	if err != nil {
		t.Fatal(err)
	}

	f.profiles.fail = true
	if _, err := f.svc.Rotate(ctx, "u1"); err == nil {
		t.Fatal("expected error")
	}
	f.profiles.fail = false

	local, _ := f.keys.PublicKey("u1")
	if local != p.PublicKey {
		t.Fatal("local key not restored after failed publish")
	}
	if err := f.svc.Verify(ctx, "u1"); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestRotate_Unregistered(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Rotate(context.Background(), "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("got %v, want ErrProfileNotFound", err)
	}
}

func TestVerify_Mismatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Register(ctx, "u1", "alice", "en"); err != nil {
		t.Fatal(err)
	}

	// Replace the local key without republishing.
	if _, err := f.keys.GenerateAndRegister("u1"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Verify(ctx, "u1"); !errors.Is(err, domain.ErrKeyMismatch) {
		t.Fatalf("got %v, want ErrKeyMismatch", err)
	}

	rec, _ := f.keys.PublicKey("u1")
	if err := f.svc.PublishKey(ctx, "u1", rec); err != nil {
		t.Fatalf("PublishKey: %v", err)
	}
	if err := f.svc.Verify(ctx, "u1"); err != nil {
		t.Fatalf("Verify after republish: %v", err)
	}
}

func TestVerify_NoLocalKey(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Verify(context.Background(), "u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("got %v, want ErrKeyNotFound", err)
	}
}

func TestPublishKey_CreatesBareProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rec, err := f.keys.GenerateAndRegister("u1")
	if err != nil {
		t.Fatal(err)
	}
	if err := f.svc.PublishKey(ctx, "u1", rec); err != nil {
		t.Fatalf("PublishKey: %v", err)
	}
	p, err := f.svc.Profile(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PublicKey != rec || !p.CanReceive() {
		t.Fatalf("unexpected profile: %+v", p)
	}

	if err := f.svc.PublishKey(ctx, "u1", domain.PublicKeyRecord{Curve: "P-256"}); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("invalid record: got %v", err)
	}
}

func TestFingerprints_MatchAcrossParties(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Register(ctx, "u1", "alice", "en"); err != nil {
		t.Fatal(err)
	}

	own, err := f.svc.Fingerprint("u1")
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	seen, err := f.svc.ProfileFingerprint(ctx, "u1")
	if err != nil {
		t.Fatalf("ProfileFingerprint: %v", err)
	}
	if own != seen || len(own) != 20 {
		t.Fatalf("fingerprints %q and %q", own, seen)
	}
}

func TestSetPreferredLanguageAndDeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	if _, err := f.svc.Register(ctx, "u1", "alice", "en"); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.SetPreferredLanguage(ctx, "u1", "es"); err != nil {
		t.Fatal(err)
	}
	p, _ := f.svc.Profile(ctx, "u1")
	if p.PreferredLang != "es" {
		t.Fatalf("lang = %q", p.PreferredLang)
	}

	if err := f.svc.DeleteAccount(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if _, err := f.svc.Profile(ctx, "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("profile: got %v", err)
	}
	if _, err := f.keys.LoadPrivateKey("u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("local key: got %v", err)
	}

	// The username is free again.
	if _, err := f.svc.Register(ctx, "u2", "alice", "en"); err != nil {
		t.Fatalf("re-use username: %v", err)
	}
}
