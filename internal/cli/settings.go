package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/models"
	"github.com/dmitrijs2005/gophdiary/internal/services"
)

// getPassword is swapped in tests together with readPassword.
var getPassword = GetPassword

func (a *App) Templates(ctx context.Context) error {
	def := a.diary.Settings().DefaultTemplateID
	for _, t := range a.diary.Templates() {
		marker := " "
		if t.ID == def {
			marker = color.GreenString("*")
		}
		fmt.Fprintf(a.out, "%s %s  %s  (%d sections)\n", marker, t.ID, t.Name, len(t.Sections))
	}
	return nil
}

func (a *App) AddTemplate(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Template name", a.out)
	if err != nil {
		return err
	}
	headings, err := GetLines(a.reader, "Section headings, one per line", a.out)
	if err != nil {
		return err
	}

	tpl := models.NewTemplate(uuid.NewString(), name, headings...)
	if err := a.diary.AddTemplate(ctx, tpl); err != nil {
		return err
	}
	printOK(a.out, "Added template "+color.YellowString(tpl.Name)+" ("+shortID(tpl.ID)+")")
	return nil
}

func (a *App) Theme(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: theme <light|dark>", ErrUsage)
	}
	theme := models.Theme(args[0])
	if err := a.diary.UpdateSettings(ctx, services.SettingsUpdate{Theme: &theme}); err != nil {
		return err
	}
	printOK(a.out, "Theme set to "+string(theme))
	return nil
}

func (a *App) Encrypt(ctx context.Context) error {
	if a.diary.Settings().EncryptionConfigured {
		return common.ErrAlreadyConfigured
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}

	if err := a.diary.EnableEncryption(ctx, password, confirm); err != nil {
		return err
	}
	printOK(a.out, "Encryption enabled; new writes are sealed")
	printHint(a.out, "Existing entries are unchanged. Run "+color.YellowString("migrate")+" to seal them")
	return nil
}

func (a *App) Unlock(ctx context.Context) error {
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	if err := a.diary.Unlock(ctx, password); err != nil {
		return err
	}
	printOK(a.out, "Unlocked")
	return a.diary.LoadEntries(ctx)
}

func (a *App) Lock(ctx context.Context) error {
	a.diary.Lock()
	printOK(a.out, "Locked")
	return nil
}

func (a *App) Decrypt(ctx context.Context) error {
	if err := a.diary.DisableEncryption(ctx); err != nil {
		return err
	}
	printOK(a.out, "Encryption disabled; new writes are plaintext")
	printHint(a.out, "Sealed entries stay sealed. Run "+color.YellowString("migrate")+" now to rewrite them as plaintext")
	return nil
}

func (a *App) Migrate(ctx context.Context) error {
	n, err := a.diary.MigrateEntries(ctx)
	if err != nil {
		return err
	}
	state := "plaintext"
	if a.diary.Settings().EncryptionActive {
		state = "sealed"
	}
	printOK(a.out, fmt.Sprintf("Rewrote %d entries as %s", n, state))
	return nil
}
