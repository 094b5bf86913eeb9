package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/config"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/model"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/store"
)

type downStore struct {
	store.Store
}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func baseConfig() *config.Config {
	return &config.Config{WebBind: "127.0.0.1:0", JWTSecret: "test-secret"}
}

func oauthConfig() *config.Config {
	cfg := baseConfig()
	cfg.DiscordClientID = "client"
	cfg.DiscordClientSecret = "secret"
	cfg.DiscordRedirectURI = "http://localhost:3000/api/auth/callback"
	return cfg
}

// seed plays one settled game in chan-1 of guild-1.
func seed(t *testing.T, st store.Store) *session.Manager {
	t.Helper()
	ctx := context.Background()
	sessions := session.NewManager(st)
	l := ledger.New(st, ledger.DefaultTolerance)

	s, err := sessions.Active(ctx, "chan-1", "guild-1")
	require.NoError(t, err)
	for _, n := range []string{"Ann", "Ben"} {
		_, err := l.RecordBuy(ctx, s.ID, n, 100)
		require.NoError(t, err)
	}
	require.NoError(t, l.RecordEnd(ctx, s.ID, "Ann", 130))
	require.NoError(t, l.RecordEnd(ctx, s.ID, "Ben", 70))
	_, err = l.ComputeSettlement(ctx, s.ID, 1000)
	require.NoError(t, err)
	require.NoError(t, sessions.End(ctx, s.ID))
	return sessions
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthAndStatus(t *testing.T) {
	st := store.NewMemory()
	api := New(baseConfig(), st, seed(t, st))
	h := api.Handler()

	w := get(t, h, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(t, h, "/api/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, h, "/api/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var counts model.Counts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &counts))
	assert.Equal(t, model.Counts{Sessions: 1, Chats: 1, Participants: 2}, counts)
}

func TestReadyReportsStoreFailure(t *testing.T) {
	st := store.NewMemory()
	api := New(baseConfig(), downStore{st}, session.NewManager(st))

	w := get(t, api.Handler(), "/api/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectedRoutesNeedOAuth(t *testing.T) {
	st := store.NewMemory()
	api := New(baseConfig(), st, seed(t, st))

	assert.Equal(t, http.StatusNotFound, get(t, api.Handler(), "/api/chats/chan-1/history", "").Code)
	assert.Equal(t, http.StatusNotFound, get(t, api.Handler(), "/api/auth/login", "").Code)
}

func TestLogin(t *testing.T) {
	api := New(oauthConfig(), store.NewMemory(), session.NewManager(store.NewMemory()))

	w := get(t, api.Handler(), "/api/auth/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["auth_url"], "client_id=client")
	assert.Len(t, body["state"], 32)
}

func TestChatEndpoints(t *testing.T) {
	discord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/@me/guilds" {
			http.NotFound(w, r)
			return
		}
		switch r.Header.Get("Authorization") {
		case "Bearer member":
			_, _ = w.Write([]byte(`[{"id":"guild-1","name":"Poker night"}]`))
		default:
			_, _ = w.Write([]byte(`[{"id":"guild-2","name":"Elsewhere"}]`))
		}
	}))
	defer discord.Close()

	st := store.NewMemory()
	api := New(oauthConfig(), st, seed(t, st))
	api.discordAPI = discord.URL
	h := api.Handler()

	member, err := api.issueToken(&DiscordUser{ID: "u1", Username: "ann"}, "member")
	require.NoError(t, err)
	outsider, err := api.issueToken(&DiscordUser{ID: "u2", Username: "zed"}, "outsider")
	require.NoError(t, err)

	t.Run("history", func(t *testing.T) {
		w := get(t, h, "/api/chats/chan-1/history", member)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []historyEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		require.Len(t, out, 1)
		require.Len(t, out[0].Ranking, 2)
		assert.Equal(t, "Ann", out[0].Ranking[0].Name)
		assert.Equal(t, "30", out[0].Ranking[0].Amount.String())
		assert.NotNil(t, out[0].EndedAt)
	})

	t.Run("stats", func(t *testing.T) {
		w := get(t, h, "/api/chats/chan-1/stats", member)
		require.Equal(t, http.StatusOK, w.Code)
		var out []statsEntry
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		require.Len(t, out, 2)
		assert.Equal(t, "Ben", out[1].Name)
		assert.Equal(t, "-30", out[1].Profit.String())
	})

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no token", "/api/chats/chan-1/history", "", http.StatusUnauthorized},
		{"bad token", "/api/chats/chan-1/history", "garbage", http.StatusUnauthorized},
		{"other guild", "/api/chats/chan-1/history", outsider, http.StatusForbidden},
		{"unknown chat", "/api/chats/nowhere/stats", member, http.StatusNotFound},
		{"bad limit", "/api/chats/chan-1/history?limit=0", member, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, get(t, h, tt.path, tt.token).Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	api := New(baseConfig(), store.NewMemory(), session.NewManager(store.NewMemory()))

	req := httptest.NewRequest("OPTIONS", "/api/status", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
