package credentials

import "testing"

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	cred, err := store.Get()
	if err != nil || cred != nil {
		t.Fatalf("Expected empty store, got %+v, %v", cred, err)
	}

	if err := store.Set(&Credential{AccessToken: "tok"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cred, err = store.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cred == nil || cred.AccessToken != "tok" {
		t.Errorf("Expected stored credential, got %+v", cred)
	}

	// Mutating the returned copy must not touch the stored credential.
	cred.AccessToken = "changed"
	again, _ := store.Get()
	if again.AccessToken != "tok" {
		t.Errorf("Store leaked internal state: %+v", again)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	cred, _ = store.Get()
	if cred != nil {
		t.Errorf("Expected nil after Clear, got %+v", cred)
	}
}

func TestCookieStore(t *testing.T) {
	store := NewCookieStore()

	cred, err := store.Get()
	if err != nil || cred != nil {
		t.Fatalf("Expected unauthenticated store, got %+v, %v", cred, err)
	}

	if err := store.Set(&Credential{User: []byte(`{"id":1}`)}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cred, err = store.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cred == nil {
		t.Fatal("Expected marker credential while authenticated")
	}
	if string(cred.User) != `{"id":1}` {
		t.Errorf("User mismatch: %s", cred.User)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Second Clear failed: %v", err)
	}
	cred, _ = store.Get()
	if cred != nil {
		t.Errorf("Expected nil after Clear, got %+v", cred)
	}
}
