// Package account defines the records persisted by the student and
// teacher stores. The JSON tags mirror the store files the original
// portal wrote, so existing data files load unchanged.
package account

import (
	"strings"
	"time"
)

type (
	// Record is the per-realm account shape a store persists and a
	// realm authenticates. WithCredentials returns an updated copy;
	// records are plain values throughout.
	Record[T any] interface {
		AccountName() string
		Credentials() (salt, hash string)
		WithCredentials(salt, hash, createdAt string) T
	}

	// Student is a student account. Only credentials live here;
	// profile data hangs off the username elsewhere.
	Student struct {
		Username     string `json:"username"`
		Salt         string `json:"salt"`
		PasswordHash string `json:"passwordHash"`
		CreatedAt    string `json:"createdAt"`
	}

	// Teacher is a teacher account. Role is always RoleTeacher; the
	// field exists because the store file carries it.
	Teacher struct {
		Username     string `json:"username"`
		Salt         string `json:"salt"`
		PasswordHash string `json:"passwordHash"`
		Email        string `json:"email"`
		FullName     string `json:"fullName"`
		School       string `json:"school"`
		Role         string `json:"role"`
		CreatedAt    string `json:"createdAt"`
	}
)

// RoleTeacher is the role written to teacher records and embedded in
// teacher session tokens.
const RoleTeacher = "teacher"

func (s Student) AccountName() string           { return s.Username }
func (s Student) Credentials() (string, string) { return s.Salt, s.PasswordHash }

func (s Student) WithCredentials(salt, hash, createdAt string) Student {
	s.Salt, s.PasswordHash, s.CreatedAt = salt, hash, createdAt
	return s
}

func (t Teacher) AccountName() string           { return t.Username }
func (t Teacher) Credentials() (string, string) { return t.Salt, t.PasswordHash }
func (t Teacher) WithCredentials(salt, hash, createdAt string) Teacher {
	t.Salt, t.PasswordHash, t.CreatedAt = salt, hash, createdAt
	t.Role = RoleTeacher
	return t
}

// FindByUsername locates a record by case-insensitive username.
func FindByUsername[T Record[T]](recs []T, name string) (T, bool) {
	for _, r := range recs {
		if strings.EqualFold(r.AccountName(), name) {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Timestamp formats t the way createdAt fields are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
