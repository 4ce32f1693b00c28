// Package testutil provides store fixtures for tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/store/flatfile"
)

// AcquireStudentStore returns an empty flat-file student store rooted
// in a fresh temp dir.
func AcquireStudentStore(t *testing.T) *flatfile.Store[account.Student] {
	t.Helper()
	return flatfile.New[account.Student](
		filepath.Join(t.TempDir(), "users.json"), "users", nil)
}

// AcquireTeacherStore returns a flat-file teacher store seeded the way
// a fresh install would be.
func AcquireTeacherStore(t *testing.T, seed func() []account.Teacher) *flatfile.Store[account.Teacher] {
	t.Helper()
	return flatfile.New(
		filepath.Join(t.TempDir(), "teachers.json"), "teachers", seed)
}
