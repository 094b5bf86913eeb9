package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/model"
)

const defaultHistoryLimit = 20

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		log.Warnf("Readiness check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := a.store.Counts(r.Context())
	if err != nil {
		log.Errorf("Failed to count sessions: %v", err)
		http.Error(w, "failed to load status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

type historyEntry struct {
	ID        string            `json:"id"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	EndedAt   *time.Time        `json:"ended_at,omitempty"`
	Ranking   []model.RankEntry `json:"ranking"`
}

type statsEntry struct {
	Name    string          `json:"name"`
	Profit  decimal.Decimal `json:"profit"`
	Games   int             `json:"games"`
	Wins    int             `json:"wins"`
	AvgRank float64         `json:"avg_rank"`
}

// Protected handlers
func (a *API) handleHistory(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chat_id"]
	if !a.authorizeChat(w, r, chatID) {
		return
	}

	limit := defaultHistoryLimit
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	past, err := a.sessions.History(r.Context(), chatID, limit)
	if err != nil {
		log.Errorf("Failed to load history for chat %s: %v", chatID, err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	out := make([]historyEntry, 0, len(past))
	for _, s := range past {
		out = append(out, historyEntry{ID: s.ID, StartedAt: s.StartedAt, EndedAt: s.EndedAt, Ranking: s.Ranking})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["chat_id"]
	if !a.authorizeChat(w, r, chatID) {
		return
	}

	past, err := a.sessions.History(r.Context(), chatID, 0)
	if err != nil {
		log.Errorf("Failed to load history for chat %s: %v", chatID, err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	stats := ledger.Stats(past)
	out := make([]statsEntry, 0, len(stats))
	for _, s := range stats {
		out = append(out, statsEntry{Name: s.Name, Profit: s.Profit, Games: s.Games, Wins: s.Wins, AvgRank: s.AvgRank})
	}
	writeJSON(w, http.StatusOK, out)
}

// authorizeChat writes an error and returns false unless the caller is in
// the guild the chat belongs to.
func (a *API) authorizeChat(w http.ResponseWriter, r *http.Request, chatID string) bool {
	guildID, err := a.chatGuild(r.Context(), chatID)
	if err != nil {
		log.Errorf("Failed to resolve guild for chat %s: %v", chatID, err)
		http.Error(w, "failed to load chat", http.StatusInternalServerError)
		return false
	}
	if guildID == "" {
		http.Error(w, "chat not found", http.StatusNotFound)
		return false
	}

	claims := claimsFrom(r.Context())
	if claims == nil || !a.userHasGuildAccess(r.Context(), claims.AccessToken, guildID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return false
	}
	return true
}

// chatGuild finds the guild a chat's games were played in. Direct-message
// chats have none and are never exposed.
func (a *API) chatGuild(ctx context.Context, chatID string) (string, error) {
	s, err := a.sessions.Current(ctx, chatID)
	if err != nil {
		return "", err
	}
	if s != nil && s.GuildID != "" {
		return s.GuildID, nil
	}
	past, err := a.sessions.History(ctx, chatID, 1)
	if err != nil {
		return "", err
	}
	if len(past) == 0 {
		return "", nil
	}
	return past[0].GuildID, nil
}

// Helper functions
func (a *API) userHasGuildAccess(ctx context.Context, accessToken, guildID string) bool {
	guilds, err := a.getDiscordGuilds(ctx, accessToken)
	if err != nil {
		log.Warnf("Failed to list guilds: %v", err)
		return false
	}

	for _, guild := range guilds {
		if guild.ID == guildID {
			return true
		}
	}
	return false
}
