package userstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"widget-dashboard/preference"
)

type fileDocument struct {
	Users []User `json:"users"`
}

// FileStore keeps every account in one JSON file.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
	users    map[string]User
}

// NewFileStore loads the store from filePath, or starts empty if the file
// does not exist. Returns an error only on unexpected I/O or decode failures.
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{filePath: filePath, users: make(map[string]User)}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	for _, u := range doc.Users {
		if u.Components == nil {
			u.Components = preference.Set{}
		}
		s.users[NormalizeEmail(u.Email)] = u
	}
	return s, nil
}

func (s *FileStore) CreateUser(_ context.Context, u User) error {
	key := NormalizeEmail(u.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return ErrUserExists
	}
	u.Email = key
	u.Components = u.Components.Clone()

	next := s.snapshotLocked()
	next[key] = u
	if err := s.writeAtomic(next); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *FileStore) User(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}
	u.Components = u.Components.Clone()
	if u.Filter != nil {
		f := *u.Filter
		u.Filter = &f
	}
	return u, nil
}

func (s *FileStore) Components(ctx context.Context, email string) (preference.Set, error) {
	u, err := s.User(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Components, nil
}

// ReplaceComponents writes the new arrangement to disk before it becomes
// visible in memory, so a failed write changes nothing.
func (s *FileStore) ReplaceComponents(_ context.Context, email string, set preference.Set) (uint64, error) {
	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key]
	if !ok {
		return 0, ErrUserNotFound
	}
	u.Components = set.Clone()
	u.Version++

	next := s.snapshotLocked()
	next[key] = u
	if err := s.writeAtomic(next); err != nil {
		return 0, err
	}
	s.users = next
	return u.Version, nil
}

func (s *FileStore) UpdatePassword(_ context.Context, email, hash string) error {
	return s.update(email, func(u *User) { u.PasswordHash = hash })
}

func (s *FileStore) SaveFilter(_ context.Context, email string, f Filter) error {
	return s.update(email, func(u *User) { u.Filter = &f })
}

// update applies fn to one account and persists the result.
func (s *FileStore) update(email string, fn func(*User)) error {
	key := NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key]
	if !ok {
		return ErrUserNotFound
	}
	fn(&u)

	next := s.snapshotLocked()
	next[key] = u
	if err := s.writeAtomic(next); err != nil {
		return err
	}
	s.users = next
	return nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) snapshotLocked() map[string]User {
	out := make(map[string]User, len(s.users)+1)
	for k, v := range s.users {
		out[k] = v
	}
	return out
}

// writeAtomic writes to a temp file then renames it over filePath.
// Caller must hold s.mu.
func (s *FileStore) writeAtomic(users map[string]User) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	doc := fileDocument{Users: make([]User, 0, len(users))}
	for _, u := range users {
		doc.Users = append(doc.Users, u)
	}
	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].Email < doc.Users[j].Email })

	tmp := s.filePath + ".tmp"
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.filePath)
}
