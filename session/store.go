package session

import (
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Storage scopes. "local" survives every command; "session" holds the mirrored
// copies the web client kept per tab. Both are wiped together.
const (
	ScopeLocal   = "local"
	ScopeSession = "session"
)

// Keys written by the login flow.
const (
	KeyUsername   = "username"
	KeyIsLoggedIn = "isLoggedIn"
	KeyRole       = "role"
	KeyUserType   = "userType"
	KeyToken      = "token"
	KeyUserID     = "userId"
	KeyAdminID    = "adminId"
	KeyName       = "name"
)

// Store keeps the session in a small SQLite file.
type Store struct {
	db     *sql.DB
	sealer *Sealer

	putStmt *sql.Stmt
}

// NewStore opens (or creates) the session database at dbPath. A non-empty
// secret seals the token at rest.
func NewStore(dbPath, secret string) (*Store, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if secret != "" {
		salt, err := sealSalt(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if store.sealer, err = NewSealer(secret, salt); err != nil {
			db.Close()
			return nil, err
		}
	}

	if store.putStmt, err = db.Prepare(`INSERT INTO storage(scope,key,value) VALUES(?,?,?)
        ON CONFLICT(scope,key) DO UPDATE SET value=excluded.value`); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases prepared statements and closes the DB.
func (s *Store) Close() error {
	if s.putStmt != nil {
		s.putStmt.Close()
	}
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS storage (
            scope TEXT NOT NULL,
            key TEXT NOT NULL,
            value TEXT NOT NULL,
            PRIMARY KEY(scope, key)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

func sealSalt(db *sql.DB) ([]byte, error) {
	var encoded string
	err := db.QueryRow(`SELECT value FROM meta WHERE key='seal_salt'`).Scan(&encoded)
	if err == nil {
		return base64.StdEncoding.DecodeString(encoded)
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO meta(key,value) VALUES('seal_salt',?)`, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}

// ---------------------------------------------------------------------------
// Session operations
// ---------------------------------------------------------------------------

// Set replaces whatever was stored with sess, writing the durable keys and
// their session-scoped mirrors the same way the login flow always has.
func (s *Store) Set(sess Session) error {
	token := sess.Token
	if token != "" && s.sealer != nil {
		sealed, err := s.sealer.Seal(token)
		if err != nil {
			return err
		}
		token = sealed
	}

	adminID := sess.AdminID
	if adminID == "" && sess.Role == RoleAdmin && sess.UserID > 0 {
		adminID = strconv.FormatInt(sess.UserID, 10)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM storage`); err != nil {
		return err
	}

	put := tx.Stmt(s.putStmt)
	write := func(scope, key, value string) error {
		if value == "" {
			return nil
		}
		if _, err := put.Exec(scope, key, value); err != nil {
			return fmt.Errorf("store %s.%s: %w", scope, key, err)
		}
		return nil
	}

	writes := [][3]string{
		{ScopeLocal, KeyUsername, sess.Username},
		{ScopeLocal, KeyIsLoggedIn, "true"},
		{ScopeLocal, KeyRole, sess.Role},
		{ScopeLocal, KeyUserType, sess.UserType},
		{ScopeLocal, KeyToken, token},
		{ScopeLocal, KeyUserID, sess.UserIDString()},
		{ScopeSession, KeyName, sess.Username},
		{ScopeSession, KeyRole, sess.Role},
		{ScopeSession, KeyUserType, sess.UserType},
		{ScopeSession, KeyToken, token},
	}
	if sess.Role == RoleAdmin {
		writes = append(writes,
			[3]string{ScopeLocal, KeyAdminID, adminID},
			[3]string{ScopeSession, KeyAdminID, adminID},
		)
	}
	for _, w := range writes {
		if err := write(w[0], w[1], w[2]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SetUserID records a user id resolved after login (older servers omitted it).
func (s *Store) SetUserID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid user id %d", id)
	}
	_, err := s.putStmt.Exec(ScopeLocal, KeyUserID, strconv.FormatInt(id, 10))
	return err
}

// Get returns the stored session. ok is false unless the login flag is set.
func (s *Store) Get() (Session, bool, error) {
	values, err := s.values()
	if err != nil {
		return Session{}, false, err
	}
	local, mirror := values[ScopeLocal], values[ScopeSession]
	if local[KeyIsLoggedIn] != "true" {
		return Session{}, false, nil
	}

	pick := func(localKey, mirrorKey string) string {
		if v := local[localKey]; v != "" {
			return v
		}
		return mirror[mirrorKey]
	}

	sess := Session{
		Username: pick(KeyUsername, KeyName),
		Role:     pick(KeyRole, KeyRole),
		UserType: pick(KeyUserType, KeyUserType),
		AdminID:  pick(KeyAdminID, KeyAdminID),
	}
	if id, err := strconv.ParseInt(strings.TrimSpace(local[KeyUserID]), 10, 64); err == nil && id > 0 {
		sess.UserID = id
	}

	token := pick(KeyToken, KeyToken)
	if IsSealed(token) {
		if s.sealer == nil {
			token = ""
		} else if token, err = s.sealer.Open(token); err != nil {
			token = ""
		}
	}
	sess.Token = token

	return sess, true, nil
}

// Clear removes every key the login flow wrote, in both scopes.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM storage`)
	return err
}

func (s *Store) values() (map[string]map[string]string, error) {
	rows, err := s.db.Query(`SELECT scope,key,value FROM storage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]map[string]string{
		ScopeLocal:   {},
		ScopeSession: {},
	}
	for rows.Next() {
		var scope, key, value string
		if err := rows.Scan(&scope, &key, &value); err != nil {
			return nil, err
		}
		if out[scope] == nil {
			out[scope] = map[string]string{}
		}
		out[scope][key] = value
	}
	return out, rows.Err()
}

// Keys lists every stored scope.key pair; used to verify nothing is left behind.
func (s *Store) Keys() ([]string, error) {
	values, err := s.values()
	if err != nil {
		return nil, err
	}
	var keys []string
	for scope, kv := range values {
		for key := range kv {
			keys = append(keys, scope+"."+key)
		}
	}
	return keys, nil
}
