// Package logging wires one subsystem logger per package onto a shared
// backend.
package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/decred/slog"

	"github.com/susu3304/chipbot/internal/api"
	"github.com/susu3304/chipbot/internal/bot"
	"github.com/susu3304/chipbot/internal/commands"
	"github.com/susu3304/chipbot/internal/db"
	"github.com/susu3304/chipbot/internal/equity"
	"github.com/susu3304/chipbot/internal/ledger"
	"github.com/susu3304/chipbot/internal/session"
	"github.com/susu3304/chipbot/internal/vision"
)

var subsystems = map[string]func(slog.Logger){
	"API":  api.UseLogger,
	"BOT":  bot.UseLogger,
	"CMDS": commands.UseLogger,
	"DB":   db.UseLogger,
	"EQTY": equity.UseLogger,
	"LDGR": ledger.UseLogger,
	"SESS": session.UseLogger,
	"VISN": vision.UseLogger,
}

// Backend owns the subsystem loggers.
type Backend struct {
	backend *slog.Backend
	loggers map[string]slog.Logger
}

// New creates a logger per subsystem writing to w at the given level
// (trace, debug, info, warn, error, critical or off).
func New(w io.Writer, level string) (*Backend, error) {
	lvl := slog.LevelInfo
	if level != "" {
		l, ok := slog.LevelFromString(strings.ToLower(level))
		if !ok {
			return nil, fmt.Errorf("invalid log level %q", level)
		}
		lvl = l
	}

	b := &Backend{
		backend: slog.NewBackend(w),
		loggers: make(map[string]slog.Logger, len(subsystems)),
	}
	for tag, use := range subsystems {
		logger := b.backend.Logger(tag)
		logger.SetLevel(lvl)
		use(logger)
		b.loggers[tag] = logger
	}
	return b, nil
}

// Logger returns the subsystem logger for tag, creating it at info level if
// it is not one of the package subsystems.
func (b *Backend) Logger(tag string) slog.Logger {
	if l, ok := b.loggers[tag]; ok {
		return l
	}
	l := b.backend.Logger(tag)
	l.SetLevel(slog.LevelInfo)
	b.loggers[tag] = l
	return l
}

// Subsystems lists the registered tags.
func Subsystems() []string {
	tags := make([]string, 0, len(subsystems))
	for tag := range subsystems {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
