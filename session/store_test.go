package session

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

func tempStore(t *testing.T, secret string) *Store {
	t.Helper()
	dir := t.TempDir()
	st, err := NewStore(filepath.Join(dir, "nested", "session.db"), secret)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestStoreSetGet(t *testing.T) {
	st := tempStore(t, "")

	if _, ok, err := st.Get(); err != nil || ok {
		t.Fatalf("fresh store should be empty, ok=%v err=%v", ok, err)
	}

	want := Session{Username: "alice", Role: RoleUser, UserID: 7, Token: "tok", UserType: "student"}
	if err := st.Set(want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := st.Get()
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestStoreAdminMirrorsID(t *testing.T) {
	st := tempStore(t, "")
	if err := st.Set(Session{Username: "root", Role: RoleAdmin, UserID: 3}); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _, _ := st.Get()
	if got.AdminID != "3" {
		t.Fatalf("adminId = %q, want 3", got.AdminID)
	}

	keys, _ := st.Keys()
	joined := strings.Join(keys, ",")
	for _, k := range []string{"local.adminId", "session.adminId", "session.name"} {
		if !strings.Contains(joined, k) {
			t.Fatalf("missing %s in %v", k, keys)
		}
	}
}

func TestStoreClearRemovesEveryKey(t *testing.T) {
	st := tempStore(t, "")
	if err := st.Set(Session{Username: "root", Role: RoleAdmin, UserID: 3, Token: "t", UserType: "staff"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	keys, _ := st.Keys()
	sort.Strings(keys)
	want := []string{
		"local.adminId", "local.isLoggedIn", "local.role", "local.token", "local.userId", "local.userType", "local.username",
		"session.adminId", "session.name", "session.role", "session.token", "session.userType",
	}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Fatalf("keys = %v\nwant %v", keys, want)
	}

	if err := st.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	keys, _ = st.Keys()
	if len(keys) != 0 {
		t.Fatalf("keys left after clear: %v", keys)
	}
	if _, ok, _ := st.Get(); ok {
		t.Fatalf("session should be absent after clear")
	}
}

func TestStoreRequiresLoggedInFlag(t *testing.T) {
	st := tempStore(t, "")
	if _, err := st.putStmt.Exec(ScopeLocal, KeyUsername, "ghost"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, _ := st.Get(); ok {
		t.Fatalf("username without isLoggedIn must not count as a session")
	}
	if _, err := st.putStmt.Exec(ScopeLocal, KeyIsLoggedIn, "false"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, ok, _ := st.Get(); ok {
		t.Fatalf("isLoggedIn=false must not count as a session")
	}
}

func TestStoreSetReplacesPreviousLogin(t *testing.T) {
	st := tempStore(t, "")
	_ = st.Set(Session{Username: "root", Role: RoleAdmin, UserID: 1})
	_ = st.Set(Session{Username: "bob", Role: RoleUser, UserID: 2})

	got, _, _ := st.Get()
	if got.AdminID != "" || got.Role != RoleUser {
		t.Fatalf("stale admin state leaked: %+v", got)
	}
}

func TestStoreSetUserID(t *testing.T) {
	st := tempStore(t, "")
	_ = st.Set(Session{Username: "bob", Role: RoleUser})
	if got, _, _ := st.Get(); got.HasUserID() {
		t.Fatalf("unexpected user id %d", got.UserID)
	}
	if err := st.SetUserID(12); err != nil {
		t.Fatalf("set user id: %v", err)
	}
	if got, _, _ := st.Get(); got.UserID != 12 {
		t.Fatalf("user id = %d", got.UserID)
	}
	if err := st.SetUserID(0); err == nil {
		t.Fatalf("expected error for zero id")
	}
}

func TestStoreSealsToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.db")

	st, err := NewStore(path, "s3cret")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := st.Set(Session{Username: "bob", Role: RoleUser, Token: "plain-token"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	var raw string
	if err := st.db.QueryRow(`SELECT value FROM storage WHERE scope='local' AND key='token'`).Scan(&raw); err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if !IsSealed(raw) || strings.Contains(raw, "plain-token") {
		t.Fatalf("token stored in clear: %q", raw)
	}
	st.Close()

	// Reopen with the same secret: salt is persisted, token decodes.
	st, err = NewStore(path, "s3cret")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _, _ := st.Get()
	if got.Token != "plain-token" {
		t.Fatalf("token = %q", got.Token)
	}
	st.Close()

	// Without the secret the sealed token is unreadable and dropped.
	st, err = NewStore(path, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	got, ok, _ := st.Get()
	if !ok || got.Token != "" {
		t.Fatalf("want session without token, got ok=%v token=%q", ok, got.Token)
	}
}

func TestSealerRejectsTampering(t *testing.T) {
	s, err := NewSealer("k", []byte("0123456789abcdef"))
	if err != nil {
		t.Fatalf("sealer: %v", err)
	}
	sealed, _ := s.Seal("value")
	if plain, _ := s.Open(sealed); plain != "value" {
		t.Fatalf("open = %q", plain)
	}
	if plain, _ := s.Open("not-sealed"); plain != "not-sealed" {
		t.Fatalf("plain passthrough = %q", plain)
	}
	bad := sealed[:len(sealed)-4] + "AAAA"
	if _, err := s.Open(bad); err == nil {
		t.Fatalf("expected error for tampered value")
	}
}
