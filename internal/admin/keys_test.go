package admin

import (
	"strings"
	"testing"
	"time"
)

func TestKeyStoreImplementsStore(_ *testing.T) {
	var _ Store = (*KeyStore)(nil)
}

func TestCreateAndValidate(t *testing.T) {
	s := NewKeyStore()
	k, err := s.Create("ci", nil, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(k.Key, "gawin-") {
		t.Errorf("key %q missing gawin- prefix", k.Key)
	}
	if len(k.Scopes) != 1 || k.Scopes[0] != ScopeAdmin {
		t.Errorf("default scopes = %v, want [admin]", k.Scopes)
	}

	got, ok := s.ValidateKey(k.Key)
	if !ok || got.ID != k.ID {
		t.Fatalf("ValidateKey = %v, %v", got, ok)
	}
	if _, ok := s.ValidateKey("gawin-bogus"); ok {
		t.Fatal("bogus key validated")
	}
}

func TestRevokeBlocksValidation(t *testing.T) {
	s := NewKeyStore()
	k, _ := s.Create("ci", nil, nil)
	if err := s.Revoke(k.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, ok := s.ValidateKey(k.Key); ok {
		t.Fatal("revoked key validated")
	}
	if err := s.Revoke("missing"); err == nil {
		t.Fatal("revoking a missing key should fail")
	}
}

func TestExpiredKeyRejected(t *testing.T) {
	s := NewKeyStore()
	past := time.Now().Add(-time.Hour)
	k, _ := s.Create("old", nil, &past)
	if _, ok := s.ValidateKey(k.Key); ok {
		t.Fatal("expired key validated")
	}
}

func TestListMasksKeys(t *testing.T) {
	s := NewKeyStore()
	_, _ = s.Create("a", nil, nil)
	for _, k := range s.List() {
		if !strings.HasSuffix(k.Key, "...") {
			t.Errorf("listed key %q is not masked", k.Key)
		}
	}
}

func TestRotateInvalidatesOldValue(t *testing.T) {
	s := NewKeyStore()
	k, _ := s.Create("ci", nil, nil)
	old := k.Key

	rotated, err := s.RotateKey(k.ID)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if rotated.Key == old {
		t.Fatal("rotation did not change the key value")
	}
	if _, ok := s.ValidateKey(old); ok {
		t.Fatal("old key value still validates after rotation")
	}
	if _, ok := s.ValidateKey(rotated.Key); !ok {
		t.Fatal("new key value does not validate")
	}
}

func TestDelete(t *testing.T) {
	s := NewKeyStore()
	k, _ := s.Create("ci", nil, nil)
	if err := s.Delete(k.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.ValidateKey(k.Key); ok {
		t.Fatal("deleted key validated")
	}
}
