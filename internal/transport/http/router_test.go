package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"classroom-quiz-service/internal/app"
	"classroom-quiz-service/internal/auth"
	"classroom-quiz-service/internal/domain"
	"classroom-quiz-service/internal/infra/memory"
	"classroom-quiz-service/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testNow = time.Date(2026, 10, 19, 10, 30, 0, 0, time.UTC)

type testServer struct {
	handler http.Handler
	store   *memory.Store
	tokens  *auth.TokenIssuer
}

func newTestServer(t *testing.T, rps float64, burst int) *testServer {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := zap.NewNop()
	clock := app.WithClock(func() time.Time { return testNow })
	locker := memory.NewQuizLocker()
	cache := memory.NewLeaderboardCache(app.NewLeaderboardLoader(store, store), time.Minute)

	notifier := app.NewNotificationService(store, logger, clock)
	svc := Services{
		Users:         app.NewUserService(store, tokens, auth.NewPasswordHasher(bcrypt.MinCost), logger, clock),
		Classes:       app.NewClassService(store, logger, clock),
		Quizzes:       app.NewQuizService(store, store, locker, cache, logger, clock, app.WithNotifier(notifier)),
		Leaderboards:  app.NewLeaderboardService(store, store, app.NewEnrollment(store), locker, cache, logger, clock, app.WithMetrics(m), app.WithNotifier(notifier)),
		Notifications: notifier,
	}
	handler := NewRouter(svc, RouterConfig{
		Tokens:         tokens,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         logger,
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
	})
	return &testServer{handler: handler, store: store, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, name string, role domain.Role) (string, domain.User) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/users/register", "", registerRequest{
		Username:    name,
		Email:       name + "@example.com",
		Password:    "pw-" + name,
		PhoneNumber: "555-0100",
		Role:        role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", name, rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	decode(t, rec, &resp)
	return resp.Token, *resp.User
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	var payload errorResponse
	decode(t, rec, &payload)
	if payload.Code != code {
		t.Fatalf("code = %q, want %q", payload.Code, code)
	}
}

func TestQuizFlowOverHTTP(t *testing.T) {
	srv := newTestServer(t, 0, 0)

	mentorToken, _ := srv.register(t, "mentor", domain.RoleMentor)
	aliceToken, alice := srv.register(t, "alice", "")
	bobToken, _ := srv.register(t, "bob", "")

	rec := srv.do(t, http.MethodPost, "/api/classes", mentorToken, classRequest{Name: "Algebra"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create class: %d %s", rec.Code, rec.Body.String())
	}
	var class domain.Class
	decode(t, rec, &class)

	rec = srv.do(t, http.MethodPost, "/api/classes/join", aliceToken, joinRequest{JoinCode: class.JoinCode})
	if rec.Code != http.StatusOK {
		t.Fatalf("join class: %d %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, "/api/quizzes", mentorToken, quizRequest{
		ClassID:   class.ID,
		Name:      "Week 1",
		Questions: []string{"q1"},
		TestDate:  testNow,
		StartTime: testNow.Add(-30 * time.Minute),
		EndTime:   testNow.Add(30 * time.Minute),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz: %d %s", rec.Code, rec.Body.String())
	}
	var quiz domain.Quiz
	decode(t, rec, &quiz)

	submitPath := "/api/quizzes/" + quiz.ID + "/submit"
	rec = srv.do(t, http.MethodPost, submitPath, aliceToken, map[string]any{"score": 80, "timeTaken": 120})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var submitted submitResponse
	decode(t, rec, &submitted)
	if submitted.Rank != 1 {
		t.Fatalf("expected rank 1, got %d", submitted.Rank)
	}

	expectError(t, srv.do(t, http.MethodPost, submitPath, aliceToken, map[string]any{"score": 90, "timeTaken": 10}),
		http.StatusConflict, "already_submitted")
	expectError(t, srv.do(t, http.MethodPost, submitPath, bobToken, map[string]any{"score": 90, "timeTaken": 10}),
		http.StatusForbidden, "not_enrolled")
	expectError(t, srv.do(t, http.MethodPost, submitPath, bobToken, map[string]any{"score": 90}),
		http.StatusBadRequest, "invalid_attempt")
	expectError(t, srv.do(t, http.MethodPost, "/api/quizzes/missing/submit", aliceToken, map[string]any{"score": 1, "timeTaken": 1}),
		http.StatusNotFound, "not_found")

	rec = srv.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID+"/leaderboard", bobToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: %d %s", rec.Code, rec.Body.String())
	}
	var lb domain.Leaderboard
	decode(t, rec, &lb)
	if len(lb.Entries) != 1 || lb.Entries[0].StudentID != alice.ID || lb.Entries[0].Username != "alice" {
		t.Fatalf("unexpected leaderboard: %+v", lb)
	}

	expectError(t, srv.do(t, http.MethodDelete, "/api/quizzes/"+quiz.ID, aliceToken, nil), http.StatusForbidden, "forbidden")
	rec = srv.do(t, http.MethodDelete, "/api/quizzes/"+quiz.ID, mentorToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete quiz: %d %s", rec.Code, rec.Body.String())
	}
}

func TestClosedQuizReturnsDistinctCode(t *testing.T) {
	srv := newTestServer(t, 0, 0)
	mentorToken, _ := srv.register(t, "mentor", domain.RoleMentor)
	aliceToken, _ := srv.register(t, "alice", "")

	var class domain.Class
	decode(t, srv.do(t, http.MethodPost, "/api/classes", mentorToken, classRequest{Name: "History"}), &class)
	srv.do(t, http.MethodPost, "/api/classes/join", aliceToken, joinRequest{JoinCode: class.JoinCode})

	var quiz domain.Quiz
	decode(t, srv.do(t, http.MethodPost, "/api/quizzes", mentorToken, quizRequest{
		ClassID:   class.ID,
		Name:      "Yesterday",
		StartTime: testNow.Add(-48 * time.Hour),
		EndTime:   testNow.Add(-24 * time.Hour),
	}), &quiz)

	expectError(t, srv.do(t, http.MethodPost, "/api/quizzes/"+quiz.ID+"/submit", aliceToken, map[string]any{"score": 1, "timeTaken": 1}),
		http.StatusBadRequest, "quiz_not_active")
}

func TestAuthentication(t *testing.T) {
	srv := newTestServer(t, 0, 0)

	expectError(t, srv.do(t, http.MethodGet, "/api/users/profile", "", nil), http.StatusUnauthorized, "unauthorized")
	expectError(t, srv.do(t, http.MethodGet, "/api/users/profile", "garbage", nil), http.StatusUnauthorized, "unauthorized")

	token, user := srv.register(t, "alice", "")
	rec := srv.do(t, http.MethodGet, "/api/users/profile", token, nil)
	if rec.Code != http.StatusOK || strings.Contains(rec.Body.String(), "pw-alice") {
		t.Fatalf("profile: %d %s", rec.Code, rec.Body.String())
	}

	expectError(t, srv.do(t, http.MethodPost, "/api/users/login", "", loginRequest{Email: "alice@example.com", Password: "nope"}),
		http.StatusUnauthorized, "invalid_credentials")

	adminUser, err := srv.store.CreateUser(context.Background(), domain.User{
		ID: "admin-1", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin, Status: domain.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	adminToken, err := srv.tokens.Issue(adminUser)
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}

	expectError(t, srv.do(t, http.MethodPut, "/api/users/"+user.ID+"/status", token, statusRequest{Status: domain.StatusSuspended}),
		http.StatusForbidden, "forbidden")
	rec = srv.do(t, http.MethodPut, "/api/users/"+user.ID+"/status", adminToken, statusRequest{Status: domain.StatusSuspended})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("suspend: %d %s", rec.Code, rec.Body.String())
	}
	expectError(t, srv.do(t, http.MethodGet, "/api/users/profile", token, nil), http.StatusForbidden, "user_suspended")
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, 0, 0)

	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `http_requests_total{endpoint="/healthz"`) {
		t.Fatalf("metrics missing request counter: %s", rec.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	srv := newTestServer(t, 1, 1)

	if rec := srv.do(t, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	expectError(t, srv.do(t, http.MethodGet, "/healthz", "", nil), http.StatusTooManyRequests, "rate_limited")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"abc", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRateLimiterIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	srv := newTestServer(t, 1, 1)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		if i == 0 {
			if rec.Code != http.StatusOK {
				t.Fatalf("first request: %d", rec.Code)
			}
			continue
		}
		expectError(t, rec, http.StatusTooManyRequests, "rate_limited")
	}
}

func TestClientIP(t *testing.T) {
	proxies, err := parseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatalf("parse proxies: %v", err)
	}
	tests := []struct {
		name    string
		remote  string
		forward string
		want    string
	}{
		{"direct peer", "198.51.100.7:5000", "", "198.51.100.7"},
		{"untrusted peer spoofing", "198.51.100.7:5000", "203.0.113.9", "198.51.100.7"},
		{"trusted proxy", "192.0.2.1:443", "203.0.113.9", "203.0.113.9"},
		{"proxy chain", "10.1.2.3:443", "203.0.113.9, 10.4.5.6", "203.0.113.9"},
		{"client prepends fake hop", "10.1.2.3:443", "1.1.1.1, 203.0.113.9", "203.0.113.9"},
		{"trusted proxy without header", "10.1.2.3:443", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forward != "" {
				req.Header.Set("X-Forwarded-For", tt.forward)
			}
			if got := proxies.clientIP(req); got != tt.want {
				t.Fatalf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := parseTrustedProxies([]string{"not-an-ip"}); err == nil {
		t.Fatal("expected error for invalid proxy entry")
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	srv := newTestServer(t, 0, 0)
	mentorToken, _ := srv.register(t, "mentor", domain.RoleMentor)
	aliceToken, _ := srv.register(t, "alice", "")
	bobToken, _ := srv.register(t, "bob", "")

	rec := srv.do(t, http.MethodPost, "/api/classes", mentorToken, classRequest{Name: "Algebra"})
	var class domain.Class
	decode(t, rec, &class)
	srv.do(t, http.MethodPost, "/api/classes/join", aliceToken, joinRequest{JoinCode: class.JoinCode})

	rec = srv.do(t, http.MethodPost, "/api/quizzes", mentorToken, quizRequest{
		ClassID:   class.ID,
		Name:      "Week 1",
		TestDate:  testNow,
		StartTime: testNow.Add(-time.Minute),
		EndTime:   testNow.Add(time.Minute),
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quiz: %d %s", rec.Code, rec.Body.String())
	}
	var quiz domain.Quiz
	decode(t, rec, &quiz)

	rec = srv.do(t, http.MethodGet, "/api/notifications", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
	}
	var inbox []domain.Notification
	decode(t, rec, &inbox)
	if len(inbox) != 1 || inbox[0].QuizID != quiz.ID || inbox[0].Read {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	readPath := "/api/notifications/" + inbox[0].ID + "/read"
	expectError(t, srv.do(t, http.MethodPatch, readPath, bobToken, nil), http.StatusForbidden, "forbidden")
	expectError(t, srv.do(t, http.MethodPatch, "/api/notifications/missing/read", aliceToken, nil), http.StatusNotFound, "not_found")

	rec = srv.do(t, http.MethodPatch, readPath, aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read: %d %s", rec.Code, rec.Body.String())
	}
	var read domain.Notification
	decode(t, rec, &read)
	if !read.Read {
		t.Fatalf("expected notification marked read: %+v", read)
	}

	rec = srv.do(t, http.MethodPost, "/api/quizzes/"+quiz.ID+"/submit", aliceToken, map[string]any{"score": 5, "timeTaken": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	rec = srv.do(t, http.MethodPatch, "/api/notifications/read-all", mentorToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read all: %d %s", rec.Code, rec.Body.String())
	}
	var updated markAllReadResponse
	decode(t, rec, &updated)
	if updated.Updated != 1 {
		t.Fatalf("expected mentor's submission notice marked read, got %d", updated.Updated)
	}

	expectError(t, srv.do(t, http.MethodGet, "/api/notifications", "", nil), http.StatusUnauthorized, "unauthorized")
}
