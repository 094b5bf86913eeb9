package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/store"
)

type sent struct {
	channel string
	content string
}

type fakeSession struct {
	mu    sync.Mutex
	sent  []sent
	fails []error // consumed one per call before succeeding
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.fails) > 0 {
		err := f.fails[0]
		f.fails = f.fails[1:]
		return nil, err
	}
	f.sent = append(f.sent, sent{channelID, content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestSendRetriesTimeouts(t *testing.T) {
	fs := &fakeSession{fails: []error{timeoutErr{}}}
	s := &sender{session: fs}

	require.NoError(t, s.send(context.Background(), "chan", "hello"))
	assert.Equal(t, []sent{{"chan", "hello"}}, fs.sent)
}

func TestSendGivesUpOnOtherErrors(t *testing.T) {
	boom := errors.New("403 forbidden")
	fs := &fakeSession{fails: []error{boom}}
	s := &sender{session: fs}

	err := s.send(context.Background(), "chan", "hello")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, fs.sent)
}

func TestSendSplitsLongMessages(t *testing.T) {
	fs := &fakeSession{}
	s := &sender{session: fs}

	line := make([]byte, 1500)
	for i := range line {
		line[i] = 'x'
	}
	content := string(line) + "\n" + string(line)
	require.NoError(t, s.send(context.Background(), "chan", content))
	require.Len(t, fs.sent, 2)
	assert.Equal(t, string(line), fs.sent[1].content)
}

func TestFirstImage(t *testing.T) {
	assert.Empty(t, firstImage(nil))
	assert.Equal(t, "https://cdn/b.png", firstImage([]*discordgo.MessageAttachment{
		{URL: "https://cdn/a.txt", ContentType: "text/plain"},
		{URL: "https://cdn/b.png", ContentType: "image/png"},
	}))
}

func TestReminder(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sessions := session.NewManager(st)
	l := ledger.New(st, ledger.DefaultTolerance)
	fs := &fakeSession{}

	w := newReminderWorker(&sender{session: fs}, sessions, l, 3*time.Hour)
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	s, err := sessions.Active(ctx, "chan", "guild")
	require.NoError(t, err)
	for _, n := range []string{"Ann", "Ben", "Cat"} {
		_, err := l.RecordBuy(ctx, s.ID, n, 100)
		require.NoError(t, err)
	}
	require.NoError(t, l.RecordEnd(ctx, s.ID, "Ann", 100))
	w.touch("chan")

	now = now.Add(time.Hour)
	w.tick(ctx)
	assert.Empty(t, fs.sent, "not idle long enough")

	now = now.Add(2 * time.Hour)
	w.tick(ctx)
	require.Len(t, fs.sent, 1)
	assert.Equal(t, "chan", fs.sent[0].channel)
	assert.Contains(t, fs.sent[0].content, "quiet for 3h. Still playing: Ben, Cat.")

	now = now.Add(5 * time.Hour)
	w.tick(ctx)
	assert.Len(t, fs.sent, 1, "one reminder per quiet spell")

	w.touch("chan")
	now = now.Add(3 * time.Hour)
	w.tick(ctx)
	assert.Len(t, fs.sent, 2, "activity re-arms the reminder")
}

func TestReminderSkipsFinishedGames(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sessions := session.NewManager(st)
	l := ledger.New(st, ledger.DefaultTolerance)
	fs := &fakeSession{}

	w := newReminderWorker(&sender{session: fs}, sessions, l, time.Minute)
	now := time.Now()
	w.now = func() time.Time { return now }

	w.touch("empty-chat")
	s, err := sessions.Active(ctx, "done-chat", "")
	require.NoError(t, err)
	_, err = l.RecordBuy(ctx, s.ID, "Ann", 100)
	require.NoError(t, err)
	require.NoError(t, l.RecordEnd(ctx, s.ID, "Ann", 100))
	w.touch("done-chat")

	now = now.Add(time.Hour)
	w.tick(ctx)
	assert.Empty(t, fs.sent)
	assert.Empty(t, w.due(), "chats without a pending game are dropped")
}

func TestShortDuration(t *testing.T) {
	assert.Equal(t, "3h", shortDuration(3*time.Hour))
	assert.Equal(t, "1h30m", shortDuration(90*time.Minute))
	assert.Equal(t, "10m", shortDuration(10*time.Minute))
}
