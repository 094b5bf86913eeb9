package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/susu3304/chipbot/internal/cards"
	"github.com/susu3304/chipbot/internal/model"
)

// Memory keeps everything in process. It backs memory:// URLs and tests.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	order    []string // session ids in creation order
	players  map[string][]*memParticipant
}

type memParticipant struct {
	key string
	p   model.Participant
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*model.Session),
		players:  make(map[string][]*memParticipant),
	}
}

func (m *Memory) ActiveSession(_ context.Context, chatID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		s := m.sessions[id]
		if s.ChatID == chatID && s.Active() {
			return cloneSession(s), nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateSession(_ context.Context, s *model.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return fmt.Errorf("session %s already exists", s.ID)
	}
	if s.Active() {
		for _, other := range m.sessions {
			if other.ChatID == s.ChatID && other.Active() {
				return ErrActiveExists
			}
		}
	}
	m.sessions[s.ID] = cloneSession(s)
	m.order = append(m.order, s.ID)
	return nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

// active must be called with mu held.
func (m *Memory) active(id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.Active() {
		return nil, ErrSessionClosed
	}
	return s, nil
}

func (m *Memory) EndSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.active(id)
	if err != nil {
		return err
	}
	s.Status = model.StatusInactive
	s.EndedAt = &at
	return nil
}

func (m *Memory) ListSessions(_ context.Context, chatID string, status model.Status, limit int) ([]model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Session
	for i := len(m.order) - 1; i >= 0; i-- {
		s := m.sessions[m.order[i]]
		if s.ChatID != chatID || s.Status != status {
			continue
		}
		out = append(out, *cloneSession(s))
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) MarkStarted(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.active(id)
	if err != nil {
		return err
	}
	if s.StartedAt == nil {
		s.StartedAt = &at
	}
	return nil
}

func (m *Memory) SaveRanking(_ context.Context, id string, ranking []model.RankEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.active(id)
	if err != nil {
		return err
	}
	s.Ranking = append([]model.RankEntry(nil), ranking...)
	return nil
}

func (m *Memory) SaveHand(_ context.Context, id string, hand model.HandState) error {
	if err := hand.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.active(id)
	if err != nil {
		return err
	}
	s.Hand = cloneHand(hand)
	return nil
}

func (m *Memory) ClearSession(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.active(id)
	if err != nil {
		return 0, err
	}
	n := len(m.players[id])
	delete(m.players, id)
	s.Ranking = nil
	s.Hand = model.HandState{}
	return n, nil
}

// find must be called with mu held.
func (m *Memory) find(sessionID, key string) *memParticipant {
	for _, mp := range m.players[sessionID] {
		if mp.key == key {
			return mp
		}
	}
	return nil
}

func (m *Memory) AddChips(_ context.Context, sessionID, name string, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.active(sessionID); err != nil {
		return 0, err
	}
	key := model.NameKey(name)
	if mp := m.find(sessionID, key); mp != nil {
		mp.p.ChipsBought += amount
		return mp.p.ChipsBought, nil
	}
	p := model.Participant{SessionID: sessionID, Name: name, ChipsBought: amount}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	m.players[sessionID] = append(m.players[sessionID], &memParticipant{key: key, p: p})
	return amount, nil
}

func (m *Memory) SetChipsEnd(_ context.Context, sessionID, name string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.active(sessionID); err != nil {
		return err
	}
	mp := m.find(sessionID, model.NameKey(name))
	if mp == nil {
		return ErrNotFound
	}
	mp.p.ChipsEnd = &amount
	return nil
}

func (m *Memory) SetChipsEndIfUnset(_ context.Context, sessionID, name string, amount int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.active(sessionID); err != nil {
		return false, err
	}
	mp := m.find(sessionID, model.NameKey(name))
	if mp == nil {
		return false, ErrNotFound
	}
	if mp.p.ChipsEnd != nil {
		return false, nil
	}
	mp.p.ChipsEnd = &amount
	return true, nil
}

func (m *Memory) Participants(_ context.Context, sessionID string) ([]model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Participant, 0, len(m.players[sessionID]))
	for _, mp := range m.players[sessionID] {
		p := mp.p
		if p.ChipsEnd != nil {
			v := *p.ChipsEnd
			p.ChipsEnd = &v
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) Counts(_ context.Context) (model.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chats := make(map[string]struct{})
	var c model.Counts
	for _, s := range m.sessions {
		c.Sessions++
		chats[s.ChatID] = struct{}{}
	}
	for _, ps := range m.players {
		c.Participants += int64(len(ps))
	}
	c.Chats = int64(len(chats))
	return c, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func cloneSession(s *model.Session) *model.Session {
	c := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	c.Ranking = append([]model.RankEntry(nil), s.Ranking...)
	c.Hand = cloneHand(s.Hand)
	return &c
}

func cloneHand(h model.HandState) model.HandState {
	c := model.HandState{
		Hole: append([]cards.Card(nil), h.Hole...),
		Flop: append([]cards.Card(nil), h.Flop...),
	}
	if h.Turn != nil {
		t := *h.Turn
		c.Turn = &t
	}
	if h.River != nil {
		r := *h.River
		c.River = &r
	}
	return c
}
