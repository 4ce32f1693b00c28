// Package cmdflags holds the flags and store wiring shared by the
// portal subcommands.
package cmdflags

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/store"
	"github.com/cyberheroes/portal/store/flatfile"
	"github.com/cyberheroes/portal/store/litestore"
)

const (
	StoreFlatfile = "flatfile"
	StoreSqlite   = "sqlite"
)

func DataDir(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "data-dir",
		Aliases:     []string{"d"},
		Usage:       "Directory holding the account stores",
		Value:       *out,
		Destination: out,
		EnvVars:     []string{"PORTAL_DATA_DIR"},
	}
}

func StoreKind(out *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "store",
		Usage:       "Account store backend (flatfile or sqlite)",
		Value:       *out,
		Destination: out,
		EnvVars:     []string{"PORTAL_STORE"},
	}
}

// OpenStudentStore opens the student store of the given kind under
// dataDir. The returned closer is always safe to call.
func OpenStudentStore(ctx context.Context, kind, dataDir string) (store.Store[account.Student], func() error, error) {
	switch kind {
	case StoreFlatfile:
		return flatfile.New[account.Student](
			filepath.Join(dataDir, "users.json"), "users", nil), noop, nil
	case StoreSqlite:
		s, err := litestore.Open[account.Student](ctx,
			filepath.Join(dataDir, "portal.db"), "users", nil)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store kind %q", kind)
}

// OpenTeacherStore opens the teacher store of the given kind under
// dataDir, seeding it on first use.
func OpenTeacherStore(ctx context.Context, kind, dataDir string, seed func() []account.Teacher) (store.Store[account.Teacher], func() error, error) {
	switch kind {
	case StoreFlatfile:
		return flatfile.New(
			filepath.Join(dataDir, "teachers.json"), "teachers", seed), noop, nil
	case StoreSqlite:
		s, err := litestore.Open(ctx,
			filepath.Join(dataDir, "portal.db"), "teachers", seed)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown store kind %q", kind)
}

func noop() error { return nil }
