package keystore_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"polychat/internal/crypto"
	"polychat/internal/domain"
	"polychat/internal/services/keystore"
	"polychat/internal/store"
)

type failingSecrets struct{ err error }

func (f failingSecrets) Get(domain.UserID) ([]byte, bool, error) { return nil, false, f.err }
func (f failingSecrets) Put(domain.UserID, []byte) error        { return f.err }
func (f failingSecrets) Delete(domain.UserID) error             { return f.err }

func TestGenerateAndRegister_StoresPrivateReturnsPublic(t *testing.T) {
	secrets := store.NewMemorySecretStore()
	ks := keystore.New(secrets)

	rec, err := ks.GenerateAndRegister("u1")
	if err != nil {
		t.Fatalf("GenerateAndRegister: %v", err)
	}
	if rec.Curve != domain.CurveP256 || rec.X == "" || rec.Y == "" {
		t.Fatalf("bad record: %+v", rec)
	}
	if _, err := crypto.ImportPublicKey(rec); err != nil {
		t.Fatalf("published record does not import: %v", err)
	}

	pub, err := ks.PublicKey("u1")
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if pub != rec {
		t.Fatal("PublicKey differs from the registered record")
	}

	if _, ok, _ := secrets.Get("u1"); !ok {
		t.Fatal("private key not stored")
	}
}

func TestGenerateAndRegister_Overwrites(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore())

	first, err := ks.GenerateAndRegister("u1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := ks.GenerateAndRegister("u1")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("second registration reused the first key")
	}
	if pub, _ := ks.PublicKey("u1"); pub != second {
		t.Fatal("stored key is not the latest one")
	}
}

func TestLoadOrCreatePrivateKey(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore())

	k1, created, err := ks.LoadOrCreatePrivateKey("u1")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if !created {
		t.Fatal("first call should create")
	}

	k2, created, err := ks.LoadOrCreatePrivateKey("u1")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created {
		t.Fatal("second call should load")
	}
	if !k1.Equal(k2) {
		t.Fatal("loaded key differs from created key")
	}
}

func TestLoadOrCreatePrivateKey_Strict(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore(), keystore.WithStrict(true))

	_, created, err := ks.LoadOrCreatePrivateKey("u1")
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("got %v, want ErrKeyNotFound", err)
	}
	if created {
		t.Fatal("strict store created a key")
	}

	if _, err := ks.GenerateAndRegister("u1"); err != nil {
		t.Fatal(err)
	}
	if _, created, err := ks.LoadOrCreatePrivateKey("u1"); err != nil || created {
		t.Fatalf("strict load of existing key: created=%v err=%v", created, err)
	}
}

func TestLoadPrivateKey_NeverCreates(t *testing.T) {
	secrets := store.NewMemorySecretStore()
	ks := keystore.New(secrets)

	if _, err := ks.LoadPrivateKey("u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("got %v, want ErrKeyNotFound", err)
	}
	if _, ok, _ := secrets.Get("u1"); ok {
		t.Fatal("LoadPrivateKey wrote a key")
	}
	if _, err := ks.PublicKey("u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("PublicKey: got %v, want ErrKeyNotFound", err)
	}
}

func TestDeleteKey(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore())
	if _, err := ks.GenerateAndRegister("u1"); err != nil {
		t.Fatal(err)
	}
	if err := ks.DeleteKey("u1"); err != nil {
		t.Fatalf("DeleteKey: %v", err)
	}
	if _, err := ks.LoadPrivateKey("u1"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Fatalf("got %v, want ErrKeyNotFound", err)
	}
}

func TestCorruptSecret_IsInvalidKey(t *testing.T) {
	secrets := store.NewMemorySecretStore()
	_ = secrets.Put("u1", []byte("not a key"))
	ks := keystore.New(secrets)

	if _, err := ks.LoadPrivateKey("u1"); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("got %v, want ErrInvalidKey", err)
	}
	// A corrupt key must not be silently replaced.
	if _, _, err := ks.LoadOrCreatePrivateKey("u1"); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("LoadOrCreate: got %v, want ErrInvalidKey", err)
	}
}

func TestSecretStoreErrors_Propagate(t *testing.T) {
	boom := errors.New("disk full")
	ks := keystore.New(failingSecrets{err: boom})

	if _, err := ks.GenerateAndRegister("u1"); !errors.Is(err, boom) {
		t.Fatalf("GenerateAndRegister: got %v", err)
	}
	if _, _, err := ks.LoadOrCreatePrivateKey("u1"); !errors.Is(err, boom) {
		t.Fatalf("LoadOrCreatePrivateKey: got %v", err)
	}
	if _, err := ks.LoadPrivateKey("u1"); !errors.Is(err, boom) {
		t.Fatalf("LoadPrivateKey: got %v", err)
	}
}

func TestEmptyUserID_Rejected(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore())
	if _, err := ks.GenerateAndRegister(""); !errors.Is(err, domain.ErrInvalidIdentifier) {
		t.Fatalf("GenerateAndRegister: got %v", err)
	}
	if _, _, err := ks.LoadOrCreatePrivateKey(""); !errors.Is(err, domain.ErrInvalidIdentifier) {
		t.Fatalf("LoadOrCreatePrivateKey: got %v", err)
	}
}

func TestLogger_NoKeyMaterial(t *testing.T) {
	var buf bytes.Buffer
	secrets := store.NewMemorySecretStore()
	ks := keystore.New(secrets, keystore.WithLogger(zerolog.New(&buf)))

	rec, err := ks.GenerateAndRegister("u1")
	if err != nil {
		t.Fatal(err)
	}
	raw, _, _ := secrets.Get("u1")

	if buf.Len() == 0 {
		t.Fatal("expected a log line")
	}
	if bytes.Contains(buf.Bytes(), []byte(rec.X)) || bytes.Contains(buf.Bytes(), raw) {
		t.Fatal("key material written to log")
	}
}

func TestStorePrivateKey_Restores(t *testing.T) {
	ks := keystore.New(store.NewMemorySecretStore())
	if _, err := ks.GenerateAndRegister("u1"); err != nil {
		t.Fatal(err)
	}
	old, err := ks.LoadPrivateKey("u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ks.GenerateAndRegister("u1"); err != nil {
		t.Fatal(err)
	}

	if err := ks.StorePrivateKey("u1", old); err != nil {
		t.Fatalf("StorePrivateKey: %v", err)
	}
	got, _ := ks.LoadPrivateKey("u1")
	if !got.Equal(old) {
		t.Fatal("restored key differs")
	}

	if err := ks.StorePrivateKey("u1", nil); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("nil key: got %v", err)
	}
}
