package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a recording stub.
type execIface interface {
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	New(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Flag(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Templates(ctx context.Context) error
	AddTemplate(ctx context.Context) error
	Theme(ctx context.Context, args []string) error
	Encrypt(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	Decrypt(ctx context.Context) error
	Migrate(ctx context.Context) error
}

const helpText = `Available commands:
  list                          list loaded entries
  show <id>                     show one entry
  new [template] [YYYY-MM-DD]   write a new entry
  edit <id>                     edit section contents
  flag <id> <important|review|major> [section#]
  search [words] [+important] [+review] [+major] [tpl:<id>]
  templates                     list templates
  addtemplate                   create a template
  theme <light|dark>            change the theme
  encrypt                       seal new writes with a password
  unlock                        re-derive the key after a restart
  lock                          forget the key until unlock
  decrypt                       stop sealing new writes
  migrate                       rewrite stored entries under the current state
  exit | quit                   leave the program`

// ErrUsage is returned by commands called with missing or bad arguments.
var ErrUsage = errors.New("usage")

// runREPL reads commands from reader until EOF or exit, dispatching to a.
// Command errors are printed and do not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "diary%s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)
		case "l", "list":
			cmdErr = a.List(ctx)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "new":
			cmdErr = a.New(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "flag":
			cmdErr = a.Flag(ctx, args)
		case "search":
			cmdErr = a.Search(ctx, args)
		case "templates":
			cmdErr = a.Templates(ctx)
		case "addtemplate":
			cmdErr = a.AddTemplate(ctx)
		case "theme":
			cmdErr = a.Theme(ctx, args)
		case "encrypt":
			cmdErr = a.Encrypt(ctx)
		case "unlock":
			cmdErr = a.Unlock(ctx)
		case "lock":
			cmdErr = a.Lock(ctx)
		case "decrypt":
			cmdErr = a.Decrypt(ctx)
		case "migrate":
			cmdErr = a.Migrate(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, color.RedString("✗")+" Unknown command: "+cmd+" (type 'help')")
		}

		if cmdErr != nil {
			printError(w, cmdErr)
		}
	}
}

func printError(w io.Writer, err error) {
	fmt.Fprintln(w, color.RedString("✗")+" "+err.Error())
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(w, color.CyanString("→")+" "+hint)
	}
}

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, color.GreenString("✓")+" "+msg)
}

func printHint(w io.Writer, msg string) {
	fmt.Fprintln(w, color.CyanString("→")+" "+msg)
}
