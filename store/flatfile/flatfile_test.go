package flatfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/store"
)

func TestCreatesFileOnFirstRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New[account.Student](path, "users", nil)

	recs, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[]}`, string(raw))
}

func TestSeedOnFirstRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "teachers.json")
	s := New(path, "teachers", func() []account.Teacher {
		return []account.Teacher{{Username: "teacher", Role: account.RoleTeacher}}
	})

	recs, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "teacher", recs[0].Username)

	// Seed runs once: a second read must not duplicate the record.
	recs, err = s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestWriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New[account.Student](path, "users", nil)

	want := []account.Student{
		{Username: "alice", Salt: "s1", PasswordHash: "h1", CreatedAt: "2026-01-01T00:00:00Z"},
		{Username: "bob", Salt: "s2", PasswordHash: "h2", CreatedAt: "2026-01-02T00:00:00Z"},
	}
	require.NoError(t, s.WriteAll(ctx, want))

	got, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The top-level key matches what the original site wrote.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "users")
}

func TestInsertDuplicate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New[account.Student](path, "users", nil)

	require.NoError(t, s.Insert(ctx, account.Student{Username: "alice"}))
	err := s.Insert(ctx, account.Student{Username: "ALICE"})
	assert.ErrorIs(t, err, store.ErrDuplicate)
}

func TestConcurrentInsertSameName(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.json")
	s := New[account.Student](path, "users", nil)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Insert(ctx, account.Student{Username: "alice"})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case assert.ErrorIs(t, err, store.ErrDuplicate):
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, workers-1, lost)

	recs, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
