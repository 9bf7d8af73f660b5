package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"kfarm/internal/config"
	"kfarm/internal/database"
	"kfarm/internal/models"
	"kfarm/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeMailer records sends instead of talking to an SMTP relay.
type fakeMailer struct {
	mu    sync.Mutex
	sends []fakeSend
	fail  bool
}

type fakeSend struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

func (m *fakeMailer) Send(_ context.Context, kind, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("relay unavailable")
	}
	m.sends = append(m.sends, fakeSend{Kind: kind, To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) sent() []fakeSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fakeSend, len(m.sends))
	copy(out, m.sends)
	return out
}

type testEnv struct {
	srv  *Server
	app  *fiber.App
	db   *gorm.DB
	rdb  *redis.Client
	mail *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Port:         "0",
		Env:          "test",
		AppSecret:    "test-app-secret-for-reset-tokens",
		AdminKey:     "test-admin-key",
		UploadDir:    t.TempDir(),
		ContactEmail: "support@example.com",
		ResetURLBase: "http://localhost:5173/resetpassword",
	}

	mail := &fakeMailer{}
	srv, err := NewServerWithDeps(cfg, db, rdb, mail)
	require.NoError(t, err)

	return &testEnv{
		srv:  srv,
		app:  srv.App(),
		db:   db,
		rdb:  rdb,
		mail: mail,
	}
}

// createUser inserts an account directly and returns it with a live session
// cookie value.
func (e *testEnv) createUser(t *testing.T, name, email string, isAdmin bool) (*models.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: string(hash),
		Language: "en",
		IsAdmin:  isAdmin,
	}
	require.NoError(t, e.db.Create(user).Error)

	sid, _, err := e.srv.sessions.Create(context.Background(), user.ID, user.Email)
	require.NoError(t, err)

	return user, sid
}

// doJSON performs a request with an optional JSON body and session cookie.
func (e *testEnv) doJSON(t *testing.T, method, path string, body interface{}, sid string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// doForm performs a multipart request with the given string fields.
func (e *testEnv) doForm(t *testing.T, method, path string, fields map[string]string, sid string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sid})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// sessionCookie extracts the session cookie set on a response, if any.
func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

// expireSession rewrites a session record so its expiry is in the past,
// simulating an idle client coming back too late.
func (e *testEnv) expireSession(t *testing.T, sid string) {
	t.Helper()

	raw, err := e.rdb.Get(context.Background(), "session:"+sid).Result()
	require.NoError(t, err)

	var rec session.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	rec.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	updated, err := json.Marshal(&rec)
	require.NoError(t, err)
	require.NoError(t, e.rdb.Set(context.Background(), "session:"+sid, updated, time.Hour).Err())
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodGet, "/health/live", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.doJSON(t, http.MethodGet, "/health/ready", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
