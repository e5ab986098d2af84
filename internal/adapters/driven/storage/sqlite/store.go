package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/inboxwatch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/inboxwatch/internal/core/domain"
	"github.com/custodia-labs/inboxwatch/internal/core/ports/driven"
	"github.com/custodia-labs/inboxwatch/internal/security"
)

// dbFileName is the database file inside the data directory.
const dbFileName = "inboxwatch.db"

// Store is a SQLite-based storage that provides access to
// the credential and authorization state stores through wrapper types.
type Store struct {
	db        *sql.DB
	path      string
	encryptor *security.Encryptor
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithEncryptor seals token fields with e before they are written.
func WithEncryptor(e *security.Encryptor) Option {
	return func(s *Store) { s.encryptor = e }
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.inboxwatch/data/inboxwatch.db.
func NewStore(dataDir string, opts ...Option) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".inboxwatch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer; serialising connections keeps Take atomic.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.encryptor == nil {
		s.encryptor, _ = security.NewEncryptor(nil)
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CredentialsStore returns a CredentialsStore interface backed by this store.
func (s *Store) CredentialsStore() driven.CredentialsStore {
	return &credentialsStore{store: s}
}

// StateStore returns an AuthorizationStateStore interface backed by this store.
func (s *Store) StateStore() driven.AuthorizationStateStore {
	return &stateStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// =============================================================================
// CredentialsStore Implementation
// =============================================================================

type credentialsStore struct {
	store *Store
}

var _ driven.CredentialsStore = (*credentialsStore)(nil)

// Save stores credentials, superseding any row for the same identity.
func (s *credentialsStore) Save(ctx context.Context, creds domain.Credentials) error {
	if creds.Identity == "" {
		return fmt.Errorf("%w: credentials identity is required", domain.ErrInvalidInput)
	}

	scopesJSON, err := json.Marshal(creds.Scopes)
	if err != nil {
		return fmt.Errorf("marshalling scopes: %w", err)
	}

	var oauth domain.OAuthCredentials
	if creds.OAuth != nil {
		oauth = *creds.OAuth
	}
	access, err := s.store.encryptor.Encrypt(oauth.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypting access token: %w", err)
	}
	refresh, err := s.store.encryptor.Encrypt(oauth.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypting refresh token: %w", err)
	}

	now := s.store.now().UTC()
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = now
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO credentials
			(identity, id, scopes, access_token, refresh_token, token_type, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			id = excluded.id,
			scopes = excluded.scopes,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_type = excluded.token_type,
			expiry = excluded.expiry,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, creds.Identity, creds.ID, string(scopesJSON), access, refresh, oauth.TokenType,
		unixOrZero(oauth.Expiry), creds.CreatedAt.UTC(), creds.UpdatedAt.UTC())

	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

const credentialsColumns = `identity, id, scopes, access_token, refresh_token, token_type, expiry, created_at, updated_at`

// Get retrieves credentials by identity.
func (s *credentialsStore) Get(ctx context.Context, identity string) (*domain.Credentials, error) {
	row := s.store.db.QueryRowContext(ctx,
		"SELECT "+credentialsColumns+" FROM credentials WHERE identity = ?", identity)

	return s.scan(row)
}

// List returns all credentials ordered by identity.
func (s *credentialsStore) List(ctx context.Context) ([]domain.Credentials, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT "+credentialsColumns+" FROM credentials ORDER BY identity")
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var result []domain.Credentials //nolint:prealloc // size unknown from query
	for rows.Next() {
		creds, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *creds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}
	return result, nil
}

// Delete removes credentials for an identity.
func (s *credentialsStore) Delete(ctx context.Context, identity string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM credentials WHERE identity = ?", identity)
	if err != nil {
		return fmt.Errorf("deleting credentials: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scan reads one credentials row and opens its token fields.
func (s *credentialsStore) scan(row rowScanner) (*domain.Credentials, error) {
	var creds domain.Credentials
	var scopesJSON, access, refresh, tokenType string
	var expiry int64

	if err := row.Scan(&creds.Identity, &creds.ID, &scopesJSON, &access, &refresh,
		&tokenType, &expiry, &creds.CreatedAt, &creds.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning credentials: %w", err)
	}

	if err := json.Unmarshal([]byte(scopesJSON), &creds.Scopes); err != nil {
		return nil, fmt.Errorf("unmarshalling scopes: %w", err)
	}

	accessToken, err := s.store.encryptor.Decrypt(access)
	if err != nil {
		return nil, fmt.Errorf("decrypting access token: %w", err)
	}
	refreshToken, err := s.store.encryptor.Decrypt(refresh)
	if err != nil {
		return nil, fmt.Errorf("decrypting refresh token: %w", err)
	}

	if accessToken != "" || refreshToken != "" {
		creds.OAuth = &domain.OAuthCredentials{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			TokenType:    tokenType,
		}
		if expiry > 0 {
			creds.OAuth.Expiry = time.Unix(expiry, 0).UTC()
		}
	}

	return &creds, nil
}

// =============================================================================
// AuthorizationStateStore Implementation
// =============================================================================

type stateStore struct {
	store *Store
}

var _ driven.AuthorizationStateStore = (*stateStore)(nil)

// Put records a pending request and sweeps expired ones.
func (s *stateStore) Put(ctx context.Context, req domain.AuthorizationRequest, ttl time.Duration) error {
	if req.State == "" {
		return fmt.Errorf("%w: state is required", domain.ErrInvalidInput)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshalling authorization request: %w", err)
	}

	now := s.store.now()
	var expiresAt int64
	if ttl > 0 {
		expiresAt = now.Add(ttl).UnixNano()
	}

	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM authorization_states WHERE expires_at > 0 AND expires_at < ?", now.UnixNano()); err != nil {
		return fmt.Errorf("sweeping authorization states: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO authorization_states (state, request, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT(state) DO UPDATE SET
			request = excluded.request,
			expires_at = excluded.expires_at
	`, req.State, string(payload), expiresAt)
	if err != nil {
		return fmt.Errorf("saving authorization state: %w", err)
	}
	return nil
}

// Take returns and deletes the request for state in one transaction.
func (s *stateStore) Take(ctx context.Context, state string) (*domain.AuthorizationRequest, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var payload string
	var expiresAt int64
	err = tx.QueryRowContext(ctx,
		"SELECT request, expires_at FROM authorization_states WHERE state = ?", state).
		Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading authorization state: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM authorization_states WHERE state = ?", state)
	if err != nil {
		return nil, fmt.Errorf("deleting authorization state: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Consumed concurrently.
		return nil, domain.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing authorization state: %w", err)
	}

	if expiresAt > 0 && s.store.now().UnixNano() > expiresAt {
		return nil, domain.ErrNotFound
	}

	var req domain.AuthorizationRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return nil, fmt.Errorf("unmarshalling authorization request: %w", err)
	}
	return &req, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
