package realm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/internal/logutil"
	"github.com/cyberheroes/portal/passwd"
	"github.com/cyberheroes/portal/store"
	"github.com/cyberheroes/portal/token"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not be able to tell which happened.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrMissingField       = errors.New("missing required field")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrStoreUnavailable   = errors.New("account store unavailable")
)

const (
	StudentCookie = "session"
	TeacherCookie = "teacher_session"

	StudentSecretEnvVar = "AUTH_SECRET"
	TeacherSecretEnvVar = "TEACHER_AUTH_SECRET"

	// Development fallbacks, matching what the original site shipped.
	// Anything reachable from the internet must configure the env
	// vars instead; SecretFromEnv logs loudly when these are in play.
	DevStudentSecret = "dev-secret-change-me"
	DevTeacherSecret = "teacher-secret-change-me"

	// DefaultTokenTTL matches the session cookie Max-Age (30 days).
	DefaultTokenTTL = 30 * 24 * time.Hour

	teacherMinPasswordLen = 6
)

type (
	// Config carries everything that distinguishes one realm from
	// another.
	Config struct {
		Name          string
		Secret        string
		CookieName    string
		TokenTTL      time.Duration
		RoleClaim     string
		LookupOnCheck bool
	}

	// Identity is the subject a verified session speaks for.
	Identity struct {
		Username string
		Role     string
	}

	// Realm authenticates one record type against one store.
	Realm[T account.Record[T]] struct {
		cfg       Config
		codec     *token.Codec
		store     store.Store[T]
		hasher    func(password, salt string) string
		validate  func(rec T, password string) error
		conflicts func(existing []T, rec T) error
	}
)

// NewStudent builds the student realm over st.
func NewStudent(st store.Store[account.Student], secret string) *Realm[account.Student] {
	return &Realm[account.Student]{
		cfg: Config{
			Name:       "student",
			Secret:     secret,
			CookieName: StudentCookie,
			TokenTTL:   DefaultTokenTTL,
		},
		codec:  token.New(secret, DefaultTokenTTL),
		store:  st,
		hasher: passwd.Hash,
	}
}

// NewTeacher builds the teacher realm over st. Teacher tokens carry a
// role claim and teacher sessions re-check the store on every
// verification.
func NewTeacher(st store.Store[account.Teacher], secret string) *Realm[account.Teacher] {
	return &Realm[account.Teacher]{
		cfg: Config{
			Name:          "teacher",
			Secret:        secret,
			CookieName:    TeacherCookie,
			TokenTTL:      DefaultTokenTTL,
			RoleClaim:     account.RoleTeacher,
			LookupOnCheck: true,
		},
		codec:     token.New(secret, DefaultTokenTTL),
		store:     st,
		hasher:    passwd.Hash,
		validate:  validateTeacherSignup,
		conflicts: teacherConflicts,
	}
}

// Name identifies the realm in logs and throttle keys.
func (r *Realm[T]) Name() string { return r.cfg.Name }

// CookieName is where this realm's session token travels.
func (r *Realm[T]) CookieName() string { return r.cfg.CookieName }

// SetHasher switches the scheme used for newly minted credentials.
// Verification always dispatches on the stored hash, so existing
// records keep working either way.
func (r *Realm[T]) SetHasher(fn func(password, salt string) string) {
	r.hasher = fn
}

// Login checks username/password against the store and mints a session
// token. Unknown usernames and wrong passwords are indistinguishable
// from the outside.
func (r *Realm[T]) Login(ctx context.Context, username, password string) (string, T, error) {
	var zero T
	if username == "" || password == "" {
		return "", zero, ErrMissingField
	}
	recs, err := r.store.ReadAll(ctx)
	if err != nil {
		return "", zero, storeErr(err)
	}
	rec, found := account.FindByUsername(recs, username)
	if !found {
		return "", zero, ErrInvalidCredentials
	}
	salt, hash := rec.Credentials()
	if !passwd.Verify(password, salt, hash) {
		logger := logutil.GetOrDefault(ctx)
		logger.Info().
			Str("realm", r.cfg.Name).
			Msg("Login rejected")
		return "", zero, ErrInvalidCredentials
	}
	return r.codec.Issue(rec.AccountName(), r.cfg.RoleClaim), rec, nil
}

// Signup creates the account described by rec. The username-uniqueness
// check rides on the store's Insert, so concurrent signups for the
// same name cannot both win.
func (r *Realm[T]) Signup(ctx context.Context, rec T, password string) (T, error) {
	var zero T
	if rec.AccountName() == "" || password == "" {
		return zero, ErrMissingField
	}
	if r.validate != nil {
		if err := r.validate(rec, password); err != nil {
			return zero, err
		}
	}
	recs, err := r.store.ReadAll(ctx)
	if err != nil {
		return zero, storeErr(err)
	}
	if _, exists := account.FindByUsername(recs, rec.AccountName()); exists {
		return zero, ErrUsernameTaken
	}
	if r.conflicts != nil {
		if err := r.conflicts(recs, rec); err != nil {
			return zero, err
		}
	}
	salt := passwd.GenerateSalt(passwd.DefaultSaltBytes)
	rec = rec.WithCredentials(salt, r.hasher(password, salt), account.Timestamp(time.Now()))
	if err := r.store.Insert(ctx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return zero, ErrUsernameTaken
		}
		return zero, storeErr(err)
	}
	logger := logutil.GetOrDefault(ctx)
	logger.Info().
		Str("realm", r.cfg.Name).
		Msg("Account created")
	return rec, nil
}

// IssueFor mints a session token for an already-authenticated record,
// e.g. right after signup.
func (r *Realm[T]) IssueFor(rec T) string {
	return r.codec.Issue(rec.AccountName(), r.cfg.RoleClaim)
}

// CheckSession verifies tok and resolves the identity it speaks for.
// For realms with LookupOnCheck the current record is returned too; a
// record deleted after the token was minted fails the check.
func (r *Realm[T]) CheckSession(ctx context.Context, tok string) (T, Identity, bool) {
	var zero T
	claims := r.codec.Verify(tok)
	if !claims.Valid {
		return zero, Identity{}, false
	}
	if r.cfg.RoleClaim != "" && claims.Role != r.cfg.RoleClaim {
		return zero, Identity{}, false
	}
	id := Identity{Username: claims.Sub, Role: claims.Role}
	if !r.cfg.LookupOnCheck {
		return zero, id, true
	}
	recs, err := r.store.ReadAll(ctx)
	if err != nil {
		logger := logutil.GetOrDefault(ctx)
		logger.Error().Err(err).
			Str("realm", r.cfg.Name).
			Msg("Unable to re-check session against the store")
		return zero, Identity{}, false
	}
	rec, found := account.FindByUsername(recs, claims.Sub)
	if !found {
		return zero, Identity{}, false
	}
	return rec, id, true
}

// SecretFromEnv resolves a realm secret, falling back to the shipped
// development default with a loud warning.
func SecretFromEnv(ctx context.Context, envVar, devFallback string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	logger := logutil.GetOrDefault(ctx)
	logger.Warn().
		Str("env.var", envVar).
		Msg("Realm secret not configured, using the development default; never deploy like this")
	return devFallback
}

func validateTeacherSignup(rec account.Teacher, password string) error {
	if rec.Email == "" || rec.FullName == "" || rec.School == "" {
		return ErrMissingField
	}
	if len(password) < teacherMinPasswordLen {
		return ErrPasswordTooShort
	}
	return nil
}

func teacherConflicts(existing []account.Teacher, rec account.Teacher) error {
	for _, t := range existing {
		if strings.EqualFold(t.Email, rec.Email) {
			return ErrEmailTaken
		}
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
