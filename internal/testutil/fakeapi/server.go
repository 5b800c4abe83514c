// Package fakeapi runs an in-process imitation of the mediscan API for tests.
//
// It issues signed JWT access tokens, keeps the refresh credential in an
// httpOnly cookie, and lets tests expire tokens, revoke refresh sessions,
// inject failures, and hold refresh calls open to provoke races.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Paths served by the fake API.
const (
	LoginPath     = "/login"
	RefreshPath   = "/refresh"
	LogoutPath    = "/logout"
	ProfilePath   = "/profile/me"
	ProtectedPath = "/ping"
)

// RefreshCookie is the name of the refresh credential cookie.
const RefreshCookie = "refresh_token"

// Default test account.
const (
	DefaultUsername = "doctor"
	DefaultEmail    = "doctor@example.com"
	DefaultPassword = "s3cret-pass"
)

// MaxRequests is the daily request quota reported in profiles.
const MaxRequests = 10

type account struct {
	passwordHash []byte
	email        string
	unlimited    bool
	requestCount int
}

type failure struct {
	status int
	detail string
}

// Server is a fake mediscan API backed by httptest.Server.
type Server struct {
	*httptest.Server

	secret    []byte
	accessTTL time.Duration

	mu       sync.Mutex
	accounts map[string]*account
	sessions map[string]string // refresh cookie value -> username
	revoked  map[string]bool   // access token IDs invalidated by logout
	cutoff   int64             // access tokens with seq <= cutoff are expired
	failures map[string]failure
	delays   map[string]time.Duration
	gate     chan struct{}

	seq   atomic.Int64
	calls sync.Map // path -> *atomic.Int64
	auths sync.Map // path -> *authLog
}

type authLog struct {
	mu     sync.Mutex
	values []string
}

// New starts a fake API with the default account.
func New() *Server {
	s := &Server{
		secret:    []byte(uuid.NewString()),
		accessTTL: 15 * time.Minute,
		accounts: map[string]*account{
			DefaultUsername: {passwordHash: hashPassword(DefaultPassword), email: DefaultEmail},
		},
		sessions: make(map[string]string),
		revoked:  make(map[string]bool),
		failures: make(map[string]failure),
		delays:   make(map[string]time.Duration),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.inject)

	r.Post(LoginPath, s.handleLogin)
	r.Post(RefreshPath, s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Post(LogoutPath, s.handleLogout)
		r.Get(ProfilePath, s.handleProfile)
		r.Get(ProtectedPath, s.handlePing)
	})
	return r
}

// AddAccount registers another account.
func (s *Server) AddAccount(username, email, password string, unlimited bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[username] = &account{passwordHash: hashPassword(password), email: email, unlimited: unlimited}
}

// hashPassword hashes a password with bcrypt. MinCost keeps
// tests fast.
func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("fakeapi: hash password: %v", err))
	}
	return hash
}

// IssueToken mints a valid access token for username without a login call.
func (s *Server) IssueToken(username string) string {
	token, err := s.sign(username)
	if err != nil {
		panic(err)
	}
	return token
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// sessions stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cutoff = s.seq.Load()
}

// RevokeSessions invalidates every refresh cookie.
func (s *Server) RevokeSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]string)
}

// SessionCount returns the number of live refresh sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Fail makes every request to path answer with status and detail until
// cleared with Fail(path, 0, "").
func (s *Server) Fail(path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = failure{status: status, detail: detail}
}

// Delay holds every request to path for d before handling it.
func (s *Server) Delay(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// HoldRefresh blocks refresh calls until the returned release is called.
// release is idempotent.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.gate == gate {
				s.gate = nil
			}
			s.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns how many requests reached path.
func (s *Server) Calls(path string) int {
	if v, ok := s.calls.Load(path); ok {
		return int(v.(*atomic.Int64).Load())
	}
	return 0
}

// Authorizations returns the Authorization headers received on path, in
// arrival order.
func (s *Server) Authorizations(path string) []string {
	v, ok := s.auths.Load(path)
	if !ok {
		return nil
	}
	l := v.(*authLog)
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.values...)
}

// BearerOf formats token the way clients send it.
func BearerOf(token string) string {
	return "Bearer " + token
}

// record counts calls and captures Authorization headers per path.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter, _ := s.calls.LoadOrStore(r.URL.Path, new(atomic.Int64))
		counter.(*atomic.Int64).Add(1)

		l, _ := s.auths.LoadOrStore(r.URL.Path, new(authLog))
		al := l.(*authLog)
		al.mu.Lock()
		al.values = append(al.values, r.Header.Get("Authorization"))
		al.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// inject applies configured delays and failures.
func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		d := s.delays[r.URL.Path]
		f, failing := s.failures[r.URL.Path]
		s.mu.Unlock()

		if d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := s.verify(raw)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		r.Header.Set("X-Fake-User", claims.Subject)
		r.Header.Set("X-Fake-Token-ID", claims.ID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid form")
		return
	}
	login, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	username, ok := s.authenticate(login, password)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}

	s.issueSession(w, username)
	s.writeToken(w, username)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	gate := s.gate
	s.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	c, err := r.Cookie(RefreshCookie)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}

	s.mu.Lock()
	username, ok := s.sessions[c.Value]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Refresh token invalid or expired")
		return
	}
	s.writeToken(w, username)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.revoked[r.Header.Get("X-Fake-Token-ID")] = true
	if c, err := r.Cookie(RefreshCookie); err == nil {
		delete(s.sessions, c.Value)
	}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	username := r.Header.Get("X-Fake-User")

	s.mu.Lock()
	acct, ok := s.accounts[username]
	var (
		email     string
		unlimited bool
		count     int
	)
	if ok {
		email, unlimited, count = acct.email, acct.unlimited, acct.requestCount
	}
	s.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}

	now := time.Now().UTC()
	nextReset := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	writeJSON(w, http.StatusOK, map[string]any{
		"username":      username,
		"email":         email,
		"is_unlimited":  unlimited,
		"request_count": count,
		"max_requests":  MaxRequests,
		"next_reset":    nextReset.Format(time.RFC3339),
		"last_request":  nil,
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"user":     r.Header.Get("X-Fake-User"),
		"token_id": r.Header.Get("X-Fake-Token-ID"),
	})
}

// authenticate accepts a username or an email address as login.
func (s *Server) authenticate(login, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, acct := range s.accounts {
		match := name == login
		if strings.Contains(login, "@") {
			match = acct.email == login
		}
		if match && bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) == nil {
			return name, true
		}
	}
	return "", false
}

func (s *Server) issueSession(w http.ResponseWriter, username string) {
	value := uuid.NewString()
	s.mu.Lock()
	s.sessions[value] = username
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) writeToken(w http.ResponseWriter, username string) {
	token, err := s.sign(username)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (s *Server) sign(username string) (string, error) {
	n := s.seq.Add(1)
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        fmt.Sprintf("%d", n),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) verify(raw string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	var n int64
	if _, err := fmt.Sscanf(claims.ID, "%d", &n); err != nil {
		return nil, fmt.Errorf("bad token id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= s.cutoff || s.revoked[claims.ID] {
		return nil, fmt.Errorf("token %s is no longer valid", claims.ID)
	}
	return &claims, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes a FastAPI-style error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
