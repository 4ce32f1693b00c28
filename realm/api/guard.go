package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/cyberheroes/portal/realm"
)

// Page prefixes that require a session cookie before the page is even
// served. These mirror the original site's middleware matcher.
var studentProtectedPrefixes = []string{
	"/quiz", "/games", "/phishing", "/bad-guys", "/powers",
}

const (
	teacherProtectedPrefix = "/progress-dashboard"
	teacherLoginPage       = "/teacher-login"
	studentLoginPage       = "/login"
	studentSignupPage      = "/signup"
)

// Guard is the edge pre-filter in front of page requests. It checks
// cookie PRESENCE only: a forged cookie value gets past it and is then
// rejected by the API handlers, which verify the signature. The cheap
// check here only exists to bounce cookieless browsers to the right
// login page before any page rendering happens.
func Guard(pages http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		hasTeacher := hasCookie(r, realm.TeacherCookie)
		hasStudent := hasCookie(r, realm.StudentCookie)

		switch {
		case strings.HasPrefix(path, teacherProtectedPrefix) && !hasTeacher:
			http.Redirect(w, r, teacherLoginPage, http.StatusFound)
			return
		case path == teacherLoginPage && hasTeacher:
			http.Redirect(w, r, teacherProtectedPrefix, http.StatusFound)
			return
		case isStudentProtected(path) && !hasStudent:
			target := path
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			q := url.Values{"next": {target}}
			http.Redirect(w, r, studentLoginPage+"?"+q.Encode(), http.StatusFound)
			return
		case (path == studentLoginPage || path == studentSignupPage) && hasStudent:
			target := r.URL.Query().Get("next")
			if target == "" {
				target = "/"
			}
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		pages.ServeHTTP(w, r)
	})
}

func isStudentProtected(path string) bool {
	for _, p := range studentProtectedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}
