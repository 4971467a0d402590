package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/logging"
	"github.com/dmitrijs2005/gophdiary/internal/services"
)

type App struct {
	diary  services.DiaryService
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

// NewApp builds an App reading commands from in and printing to out. The
// service must already be initialized.
func NewApp(diary services.DiaryService, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		diary:  diary,
		log:    log,
		reader: bufio.NewReader(in),
		out:    out,
		now:    time.Now,
	}
}

// Run loads the entries and starts the REPL. It returns when the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.watch(ctx)

	fmt.Fprintln(a.out, "Diary CLI (type 'help' for commands)")
	if err := a.diary.LoadEntries(ctx); err != nil {
		printError(a.out, err)
	}

	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) status() string {
	s := a.diary.Settings()
	switch {
	case s.EncryptionActive:
		return " " + color.GreenString("(encrypted)")
	case s.EncryptionConfigured:
		return " " + color.YellowString("(locked)")
	default:
		return ""
	}
}

// watch logs state changes until ctx is done.
func (a *App) watch(ctx context.Context) {
	for ev := range a.diary.Subscribe(ctx) {
		a.log.Debug(ctx, "state changed", "kind", ev.Kind, "id", ev.ID)
	}
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, common.ErrLocked):
		return "Run " + color.YellowString("unlock") + " to read sealed entries"
	case errors.Is(err, common.ErrAuthenticationFailure):
		return "The entry was sealed with a different key or is corrupted"
	case errors.Is(err, common.ErrWrongPassword):
		return "Check the password and try again"
	case errors.Is(err, common.ErrNotConfigured):
		return "Run " + color.YellowString("encrypt") + " first"
	case errors.Is(err, common.ErrAlreadyConfigured):
		return "Run " + color.YellowString("unlock") + " with the existing password, or " +
			color.YellowString("decrypt") + " to start over"
	case errors.Is(err, common.ErrStorageUnavailable):
		return "Check that the database file is reachable and writable"
	case errors.Is(err, ErrUsage):
		return "Type " + color.YellowString("help") + " for command usage"
	default:
		return ""
	}
}
