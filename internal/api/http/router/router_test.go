package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpctx "github.com/dtroode/gophchat-server/internal/api/http/context"
	"github.com/dtroode/gophchat-server/internal/api/http/cookie"
	"github.com/dtroode/gophchat-server/internal/metrics"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/password"
	"github.com/dtroode/gophchat-server/internal/repository/document"
	sessionmem "github.com/dtroode/gophchat-server/internal/repository/memory"
	"github.com/dtroode/gophchat-server/internal/service"
	storagemem "github.com/dtroode/gophchat-server/internal/storage/memory"
	"github.com/dtroode/gophchat-server/internal/testutil"
	"github.com/dtroode/gophchat-server/internal/token"
)

type stubGenerator struct {
	reply string
	calls atomic.Int32
}

func (g *stubGenerator) Generate(context.Context, []model.ChatEntry, string) (string, error) {
	g.calls.Add(1)
	return g.reply, nil
}

type testServer struct {
	*httptest.Server
	gen *stubGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := testutil.MakeNoopLogger()
	storage := storagemem.NewStore()
	users := document.NewUserRepository(storage)

	credentials := service.NewCredentials(users, password.NewBcrypt(4), log)
	sessions := service.NewSessions(sessionmem.NewSessionStore(), users, token.NewJWT("test-secret"), time.Hour, log)
	auth := service.NewAuth(credentials, sessions, log)

	gen := &stubGenerator{reply: "hello"}
	chat := service.NewChat(document.NewChatRepository(storage), gen, log)

	r := New(auth, chat, httpctx.NewManager(), cookie.Config{Name: "sid", TTL: time.Hour}, metrics.New(), log)
	srv := httptest.NewServer(r.Register())
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, gen: gen}
}

func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func do(t *testing.T, c *http.Client, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestRouter_ExampleFlow(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	resp, _ := do(t, c, http.MethodPost, srv.URL+"/signup", `{"email":"a@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Start the login part of the flow without the signup session.
	c = srv.client(t)

	resp, body := do(t, c, http.MethodPost, srv.URL+"/login", `{"email":"a@x.com","password":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.JSONEq(t, `{"error":"invalid email or password"}`, string(body))

	resp, _ = do(t, c, http.MethodPost, srv.URL+"/login", `{"email":"a@x.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Cookies())

	resp, body = do(t, c, http.MethodPost, srv.URL+"/chat", `{"prompt":"hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	refreshed := resp.Cookies()
	require.Len(t, refreshed, 1)
	assert.Equal(t, 3600, refreshed[0].MaxAge)
	var chatResp struct {
		Reply  string `json:"reply"`
		ChatID string `json:"chatId"`
	}
	require.NoError(t, json.Unmarshal(body, &chatResp))
	assert.Equal(t, "hello", chatResp.Reply)
	assert.NotEmpty(t, chatResp.ChatID)

	resp, body = do(t, c, http.MethodGet, srv.URL+"/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "hi", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
	assert.Equal(t, "hello", history[1].Content)

	resp, body = do(t, c, http.MethodGet, srv.URL+"/chats/"+chatResp.ChatID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"chatId":"`+chatResp.ChatID+`"`)

	resp, body = do(t, c, http.MethodGet, srv.URL+"/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"loggedIn":true,"email":"a@x.com"}`, string(body))

	resp, _ = do(t, c, http.MethodGet, srv.URL+"/logout", "")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, _ = do(t, c, http.MethodPost, srv.URL+"/chat", `{"prompt":"hi again"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.EqualValues(t, 1, srv.gen.calls.Load())
}

func TestRouter_ChatRequiresSession(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/chat", `{"prompt":"hi"}`},
		{http.MethodPost, "/regenerate", `{"lastPrompt":"hi"}`},
		{http.MethodGet, "/history", ""},
		{http.MethodGet, "/chats", ""},
		{http.MethodGet, "/chats/any", ""},
	} {
		resp, body := do(t, c, tc.method, srv.URL+tc.path, tc.body)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, tc.path)
		assert.JSONEq(t, `{"error":"unauthorized"}`, string(body), tc.path)
	}

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat", strings.NewReader(`{"prompt":"hi"}`))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: "sid", Value: "forged"})
	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	assert.Zero(t, srv.gen.calls.Load())
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)
	c := srv.client(t)

	resp, body := do(t, c, http.MethodGet, srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = do(t, c, http.MethodGet, srv.URL+"/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `gophchat_http_requests_total{code="200",route="GET /healthz"} 1`)
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := do(t, srv.client(t), http.MethodGet, srv.URL+"/chat", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
