package api

import (
	"net/http"
	"testing"

	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"

	"github.com/cyberheroes/portal/realm"
)

func guardedPages() http.Handler {
	return Guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("page"))
	}))
}

func TestGuardTeacherAreaRedirect(t *testing.T) {
	apitest.New().
		Handler(guardedPages()).
		Get("/progress-dashboard/reports").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/teacher-login").
		End()
}

// A present-but-forged cookie passes the guard. That is by contract:
// the guard checks presence, the API handlers check signatures.
func TestGuardTeacherAreaPresenceOnly(t *testing.T) {
	apitest.New().
		Handler(guardedPages()).
		Get("/progress-dashboard").
		Cookie(realm.TeacherCookie, "totally-forged").
		Expect(t).
		Status(http.StatusOK).
		Body("page").
		End()
}

func TestGuardTeacherLoginRedirectsWhenAuthenticated(t *testing.T) {
	apitest.New().
		Handler(guardedPages()).
		Get("/teacher-login").
		Cookie(realm.TeacherCookie, "tok").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/progress-dashboard").
		End()
}

func TestGuardStudentAreaRedirectKeepsNext(t *testing.T) {
	res := apitest.New().
		Handler(guardedPages()).
		Get("/games/phishing-detective").
		Query("level", "2").
		Expect(t).
		Status(http.StatusFound).
		End()
	loc := res.Response.Header.Get("Location")
	assert.Equal(t, "/login?next=%2Fgames%2Fphishing-detective%3Flevel%3D2", loc)
}

func TestGuardStudentAreaPassesWithCookie(t *testing.T) {
	for _, path := range []string{"/quiz", "/games", "/phishing", "/bad-guys", "/powers"} {
		apitest.New().
			Handler(guardedPages()).
			Get(path).
			Cookie(realm.StudentCookie, "tok").
			Expect(t).
			Status(http.StatusOK).
			End()
	}
}

func TestGuardLoginRedirectsAwayWhenAuthenticated(t *testing.T) {
	apitest.New().
		Handler(guardedPages()).
		Get("/login").
		Query("next", "/games").
		Cookie(realm.StudentCookie, "tok").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/games").
		End()

	apitest.New().
		Handler(guardedPages()).
		Get("/signup").
		Cookie(realm.StudentCookie, "tok").
		Expect(t).
		Status(http.StatusFound).
		Header("Location", "/").
		End()
}

func TestGuardPublicPagesUntouched(t *testing.T) {
	for _, path := range []string{"/", "/about", "/login", "/signup", "/teacher-login"} {
		apitest.New().
			Handler(guardedPages()).
			Get(path).
			Expect(t).
			Status(http.StatusOK).
			Body("page").
			End()
	}
}
