package realm

import (
	"time"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/passwd"
)

// Default teacher credentials, created the first time an empty teacher
// store is touched so a fresh install has a way into the dashboard.
// This is a known weakness carried over from the original site: a
// deployment that keeps the default account keeps a backdoor. The
// store logs a warning whenever the seed actually runs, and
// `portal accounts register-teacher` is the sanctioned way to
// bootstrap real accounts.
const (
	SeedTeacherUsername = "teacher"
	SeedTeacherPassword = "teacher123"
)

// DefaultTeacherSeed builds the seed record list for an empty teacher
// store. A fresh salt is generated per call, so seeded installs do not
// share hashes.
func DefaultTeacherSeed() []account.Teacher {
	salt := passwd.GenerateSalt(passwd.DefaultSaltBytes)
	return []account.Teacher{{
		Username:     SeedTeacherUsername,
		Salt:         salt,
		PasswordHash: passwd.Hash(SeedTeacherPassword, salt),
		Email:        "teacher@school.edu",
		FullName:     "Default Teacher",
		School:       "CyberHeroes School",
		Role:         account.RoleTeacher,
		CreatedAt:    account.Timestamp(time.Now()),
	}}
}
