// Package api exposes the two auth realms over HTTP, with the routes,
// JSON envelopes, status codes, and cookie attributes of the original
// portal.
package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/cyberheroes/portal/account"
	"github.com/cyberheroes/portal/internal/logutil"
	"github.com/cyberheroes/portal/internal/throttle"
	"github.com/cyberheroes/portal/realm"
)

type (
	Server struct {
		students *realm.Realm[account.Student]
		teachers *realm.Realm[account.Teacher]
		limits   *throttle.Limiter
	}

	credentials struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	teacherSignupRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		FullName string `json:"fullName"`
		School   string `json:"school"`
	}
)

// Session cookies live for 30 days, like the tokens they carry.
const cookieMaxAge = 30 * 24 * 60 * 60

// New wires the auth API onto a router. Requests that match no API
// route fall through to site, wrapped by the route guard, so page
// requests get the cookie-presence redirects.
func New(students *realm.Realm[account.Student], teachers *realm.Realm[account.Teacher], limits *throttle.Limiter, site http.Handler) http.Handler {
	s := &Server{students: students, teachers: teachers, limits: limits}
	router := httprouter.New()
	router.HandlerFunc("POST", "/api/auth/login", s.studentLogin)
	router.HandlerFunc("POST", "/api/auth/signup", s.studentSignup)
	router.HandlerFunc("POST", "/api/auth/logout", s.studentLogout)
	router.HandlerFunc("GET", "/api/auth/session", s.studentSession)
	router.HandlerFunc("POST", "/api/teacher-auth/login", s.teacherLogin)
	router.HandlerFunc("POST", "/api/teacher-auth/signup", s.teacherSignup)
	router.HandlerFunc("POST", "/api/teacher-auth/logout", s.teacherLogout)
	router.HandlerFunc("GET", "/api/teacher-auth/session", s.teacherSession)
	if site == nil {
		site = http.NotFoundHandler()
	}
	router.NotFound = Guard(site)
	return router
}

func (s *Server) studentLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	decode(r, &req)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, fail("Missing username or password"))
		return
	}
	key := throttleKey(s.students.Name(), req.Username, r)
	if !s.limits.Allow(key) {
		writeJSON(w, http.StatusTooManyRequests, fail("Too many login attempts, try again later"))
		return
	}
	tok, rec, err := s.students.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.loginFailure(w, r, err, key)
		return
	}
	s.limits.Reset(key)
	setSessionCookie(w, s.students.CookieName(), tok)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "username": rec.Username})
}

func (s *Server) studentSignup(w http.ResponseWriter, r *http.Request) {
	var req credentials
	decode(r, &req)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, fail("Missing username or password"))
		return
	}
	rec, err := s.students.Signup(r.Context(), account.Student{Username: req.Username}, req.Password)
	switch {
	case errors.Is(err, realm.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, fail("Username already exists"))
		return
	case err != nil:
		s.internalError(w, r, err)
		return
	}
	setSessionCookie(w, s.students.CookieName(), s.students.IssueFor(rec))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "username": rec.Username})
}

func (s *Server) studentLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, s.students.CookieName())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) studentSession(w http.ResponseWriter, r *http.Request) {
	_, id, ok := s.students.CheckSession(r.Context(), cookieValue(r, s.students.CookieName()))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "authenticated": false, "username": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "authenticated": true, "username": id.Username})
}

func (s *Server) teacherLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	decode(r, &req)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, fail("Missing username or password"))
		return
	}
	key := throttleKey(s.teachers.Name(), req.Username, r)
	if !s.limits.Allow(key) {
		writeJSON(w, http.StatusTooManyRequests, fail("Too many login attempts, try again later"))
		return
	}
	tok, rec, err := s.teachers.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.loginFailure(w, r, err, key)
		return
	}
	s.limits.Reset(key)
	setSessionCookie(w, s.teachers.CookieName(), tok)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"username": rec.Username,
		"fullName": rec.FullName,
		"email":    rec.Email,
		"school":   rec.School,
		"role":     rec.Role,
	})
}

func (s *Server) teacherSignup(w http.ResponseWriter, r *http.Request) {
	var req teacherSignupRequest
	decode(r, &req)
	if req.Username == "" || req.Password == "" || req.Email == "" || req.FullName == "" || req.School == "" {
		writeJSON(w, http.StatusBadRequest,
			fail("Missing required fields: username, password, email, fullName, school"))
		return
	}
	rec, err := s.teachers.Signup(r.Context(), account.Teacher{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		School:   req.School,
	}, req.Password)
	switch {
	case errors.Is(err, realm.ErrPasswordTooShort):
		writeJSON(w, http.StatusBadRequest, fail("Password must be at least 6 characters long"))
		return
	case errors.Is(err, realm.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, fail("Username already exists"))
		return
	case errors.Is(err, realm.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, fail("Email already registered"))
		return
	case err != nil:
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Msg("Unable to create teacher account")
		writeJSON(w, http.StatusInternalServerError, fail("Failed to create teacher account"))
		return
	}
	// The original did not log new teachers in on signup; they go
	// through the login form.
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"message":  "Teacher account created successfully",
		"username": rec.Username,
		"fullName": rec.FullName,
		"email":    rec.Email,
		"school":   rec.School,
	})
}

func (s *Server) teacherLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, s.teachers.CookieName())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) teacherSession(w http.ResponseWriter, r *http.Request) {
	rec, _, ok := s.teachers.CheckSession(r.Context(), cookieValue(r, s.teachers.CookieName()))
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "authenticated": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"authenticated": true,
		"username":      rec.Username,
		"fullName":      rec.FullName,
		"email":         rec.Email,
		"school":        rec.School,
		"role":          rec.Role,
	})
}

func (s *Server) loginFailure(w http.ResponseWriter, r *http.Request, err error, key string) {
	if errors.Is(err, realm.ErrInvalidCredentials) {
		s.limits.Fail(key)
		writeJSON(w, http.StatusUnauthorized, fail("Invalid credentials"))
		return
	}
	s.internalError(w, r, err)
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logutil.GetOrDefault(r.Context())
	logger.Error().Err(err).Msg("Request failed")
	writeJSON(w, http.StatusInternalServerError, fail("Unexpected error"))
}

// decode fills dst from the request body, treating an unreadable body
// the same as an empty one; the missing-field checks catch it.
func decode(r *http.Request, dst any) {
	_ = json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fail(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

func setSessionCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

// throttleKey buckets failures per realm, username, and client
// address. Username is folded so "Alice" and "alice" share a bucket.
func throttleKey(realmName, username string, r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return realmName + "\x00" + strings.ToLower(username) + "\x00" + host
}
