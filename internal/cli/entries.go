package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/models"
)

const snippetLen = 48

func (a *App) List(ctx context.Context) error {
	entries := a.diary.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(a.out, summary(e))
	}
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show <id>", ErrUsage)
	}
	e, err := a.diary.GetEntry(ctx, a.resolveID(args[0]))
	if err != nil {
		return err
	}
	printEntry(a.out, e)
	return nil
}

// New writes an entry from a template. Arguments are an optional template id
// and an optional date; the defaults are the settings' default template and
// today.
func (a *App) New(ctx context.Context, args []string) error {
	tplID := a.diary.Settings().DefaultTemplateID
	date := a.now().Format(models.DateLayout)
	for _, arg := range args {
		if _, err := time.Parse(models.DateLayout, arg); err == nil {
			date = arg
		} else {
			tplID = arg
		}
	}

	tpl, ok := a.template(tplID)
	if !ok {
		return fmt.Errorf("%w: template %q", common.ErrNotFound, tplID)
	}

	e := models.NewEntry(tpl, date, a.now())
	for i := range e.Sections {
		text, err := GetMultiline(a.reader, color.CyanString(e.Sections[i].Heading), a.out)
		if err != nil {
			return err
		}
		e.Sections[i].Content = text
	}

	if err := a.diary.AddEntry(ctx, e); err != nil {
		return err
	}
	printOK(a.out, "Saved entry "+shortID(e.ID)+" for "+e.Date)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: edit <id>", ErrUsage)
	}
	e, err := a.diary.GetEntry(ctx, a.resolveID(args[0]))
	if err != nil {
		return err
	}

	for i, s := range e.Sections {
		fmt.Fprintln(a.out, color.CyanString(s.Heading)+"\n"+s.Content)
		text, err := GetMultiline(a.reader, "New content (empty keeps the current text)", a.out)
		if err != nil {
			return err
		}
		if text != "" {
			e.Sections[i].Content = text
		}
	}

	e.Touch(a.now())
	if err := a.diary.UpdateEntry(ctx, e); err != nil {
		return err
	}
	printOK(a.out, "Updated entry "+shortID(e.ID))
	return nil
}

// Flag toggles a flag on an entry, or on one of its sections when a
// 1-based section number is given.
func (a *App) Flag(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: flag <id> <important|review|major> [section#]", ErrUsage)
	}
	e, err := a.diary.GetEntry(ctx, a.resolveID(args[0]))
	if err != nil {
		return err
	}

	target := &e.Flags
	if len(args) == 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 || n > len(e.Sections) {
			return fmt.Errorf("%w: section must be 1..%d", ErrUsage, len(e.Sections))
		}
		target = &e.Sections[n-1].Flags
	}
	if err := toggle(target, args[1]); err != nil {
		return err
	}

	e.Touch(a.now())
	if err := a.diary.UpdateEntry(ctx, e); err != nil {
		return err
	}
	printOK(a.out, "Flags: "+flagString(*target))
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	var f models.Filter
	var words []string
	for _, arg := range args {
		switch {
		case arg == "+important":
			f.Important = true
		case arg == "+review":
			f.NeedsReview = true
		case arg == "+major":
			f.MajorEvent = true
		case strings.HasPrefix(arg, "tpl:"):
			f.TemplateID = strings.TrimPrefix(arg, "tpl:")
		default:
			words = append(words, arg)
		}
	}
	f.Query = strings.Join(words, " ")

	found := a.diary.Search(f)
	if len(found) == 0 {
		fmt.Fprintln(a.out, "No matching entries.")
		return nil
	}
	for _, e := range found {
		fmt.Fprintln(a.out, summary(e))
	}
	return nil
}

// resolveID expands a unique prefix of a loaded entry id.
func (a *App) resolveID(arg string) string {
	match := ""
	for _, e := range a.diary.Entries() {
		if e.ID == arg {
			return arg
		}
		if strings.HasPrefix(e.ID, arg) {
			if match != "" {
				return arg
			}
			match = e.ID
		}
	}
	if match == "" {
		return arg
	}
	return match
}

func (a *App) template(id string) (models.Template, bool) {
	for _, t := range a.diary.Templates() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Template{}, false
}

func toggle(f *models.Flags, name string) error {
	switch name {
	case "important":
		f.IsImportant = !f.IsImportant
	case "review":
		f.NeedsReview = !f.NeedsReview
	case "major":
		f.IsMajorEvent = !f.IsMajorEvent
	default:
		return fmt.Errorf("%w: unknown flag %q", ErrUsage, name)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func flagString(f models.Flags) string {
	var parts []string
	if f.IsImportant {
		parts = append(parts, "important")
	}
	if f.NeedsReview {
		parts = append(parts, "review")
	}
	if f.IsMajorEvent {
		parts = append(parts, "major")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func summary(e models.DiaryEntry) string {
	snippet := ""
	for _, s := range e.Sections {
		if s.Content != "" {
			snippet = strings.ReplaceAll(s.Content, "\n", " ")
			break
		}
	}
	if r := []rune(snippet); len(r) > snippetLen {
		snippet = string(r[:snippetLen]) + "…"
	}
	return fmt.Sprintf("%s  %s  [%s]  %s", e.Date, shortID(e.ID), flagString(e.Flags), snippet)
}

func printEntry(w io.Writer, e models.DiaryEntry) {
	fmt.Fprintf(w, "%s  %s  template=%s  flags=%s\n", e.Date, e.ID, e.TemplateID, flagString(e.Flags))
	for i, s := range e.Sections {
		fmt.Fprintf(w, "%d. %s [%s]\n", i+1, color.CyanString(s.Heading), flagString(s.Flags))
		if s.Content != "" {
			fmt.Fprintln(w, s.Content)
		}
	}
	fmt.Fprintf(w, "updated %s\n", e.UpdatedAt.Local().Format(time.DateTime))
}
