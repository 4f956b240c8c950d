// Package credentials manages the on-disk credential config file: the
// usernames/password-hashes the service authenticates against, the
// cookie/session settings, and the pre-authorized email list for
// self-registration.
package credentials

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperrors "roadmap-backend/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of the credential config file.
type File struct {
	Credentials   Credentials   `yaml:"credentials"`
	Cookie        Cookie        `yaml:"cookie"`
	Preauthorized Preauthorized `yaml:"preauthorized"`
}

// Credentials maps usernames to their stored records.
type Credentials struct {
	Usernames map[string]UserRecord `yaml:"usernames"`
}

// UserRecord is one stored user. Password holds the bcrypt hash.
type UserRecord struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Cookie holds the session-cookie settings.
type Cookie struct {
	Name       string `yaml:"name"`
	Key        string `yaml:"key"`
	ExpiryDays int    `yaml:"expiry_days"`
}

// Preauthorized lists the emails permitted to self-register. An empty
// list permits any email.
type Preauthorized struct {
	Emails []string `yaml:"emails"`
}

// User is the verified identity handed back to the session layer.
type User struct {
	Username string
	Name     string
	Email    string
}

// Store serializes all access to the credential file. Every mutation
// writes through to disk immediately (temp file + rename) instead of
// the original rewrite-at-shutdown scheme.
type Store struct {
	path string

	mu   sync.RWMutex
	file File
}

// Load opens an existing credential file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse credentials file: %w", err)
	}
	if file.Credentials.Usernames == nil {
		file.Credentials.Usernames = make(map[string]UserRecord)
	}
	if err := validateCookie(file.Cookie); err != nil {
		return nil, err
	}
	return &Store{path: path, file: file}, nil
}

// LoadOrInit opens the credential file, creating it with a default
// admin user and a random cookie key when it does not exist yet.
func LoadOrInit(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat credentials file: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash default password: %w", err)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate cookie key: %w", err)
	}

	store := &Store{
		path: path,
		file: File{
			Credentials: Credentials{
				Usernames: map[string]UserRecord{
					"admin": {
						Name:     "Admin User",
						Email:    "admin@example.com",
						Password: string(hash),
					},
				},
			},
			Cookie: Cookie{
				Name:       "roadmap_auth",
				Key:        hex.EncodeToString(key),
				ExpiryDays: 1,
			},
			Preauthorized: Preauthorized{
				Emails: []string{"admin@example.com"},
			},
		},
	}
	if err := store.save(); err != nil {
		return nil, err
	}
	return store, nil
}

func validateCookie(c Cookie) error {
	if c.Name == "" || c.Key == "" {
		return fmt.Errorf("credentials file: cookie name and key are required")
	}
	if c.ExpiryDays <= 0 {
		return fmt.Errorf("credentials file: cookie expiry_days must be positive")
	}
	return nil
}

// CookieConfig returns the session-cookie settings.
func (s *Store) CookieConfig() Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file.Cookie
}

// Verify checks a username/password pair. Empty input is reported as
// needs-input; any mismatch is reported without saying which field
// failed.
func (s *Store) Verify(username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, apperrors.ErrNeedsInput
	}

	s.mu.RLock()
	record, ok := s.file.Credentials.Usernames[username]
	s.mu.RUnlock()
	if !ok {
		return User{}, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(record.Password), []byte(password)); err != nil {
		return User{}, apperrors.ErrInvalidCredentials
	}

	return User{Username: username, Name: record.Name, Email: record.Email}, nil
}

// Register adds a new user and writes the file through to disk. The
// file on disk is left untouched when any check fails.
func (s *Store) Register(username, name, email, password string) (User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || name == "" || email == "" || password == "" {
		return User{}, apperrors.NewValidationError("all registration fields are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.file.Credentials.Usernames[username]; exists {
		return User{}, apperrors.NewConflictError(fmt.Sprintf("username %q is already taken", username))
	}
	if !s.preauthorizedLocked(email) {
		return User{}, apperrors.NewForbiddenError(fmt.Sprintf("email %q is not pre-authorized to register", email))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, apperrors.NewInternalError("hash password").WithCause(err)
	}

	s.file.Credentials.Usernames[username] = UserRecord{
		Name:     name,
		Email:    email,
		Password: string(hash),
	}
	if err := s.save(); err != nil {
		// Roll the in-memory map back so memory and disk agree.
		delete(s.file.Credentials.Usernames, username)
		return User{}, apperrors.NewInternalError("save credentials file").WithCause(err)
	}

	return User{Username: username, Name: name, Email: email}, nil
}

// preauthorizedLocked reports whether the email may self-register.
func (s *Store) preauthorizedLocked(email string) bool {
	if len(s.file.Preauthorized.Emails) == 0 {
		return true
	}
	for _, allowed := range s.file.Preauthorized.Emails {
		if strings.EqualFold(allowed, email) {
			return true
		}
	}
	return false
}

// Usernames returns the known usernames, sorted.
func (s *Store) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.file.Credentials.Usernames))
	for name := range s.file.Credentials.Usernames {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reload re-reads the file from disk, keeping the current state when
// the file has become unreadable.
func (s *Store) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read credentials file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse credentials file: %w", err)
	}
	if file.Credentials.Usernames == nil {
		file.Credentials.Usernames = make(map[string]UserRecord)
	}
	if err := validateCookie(file.Cookie); err != nil {
		return err
	}

	s.mu.Lock()
	s.file = file
	s.mu.Unlock()
	return nil
}

// save writes the file atomically. Callers hold the write lock.
func (s *Store) save() error {
	data, err := yaml.Marshal(s.file)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}
