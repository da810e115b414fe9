package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/iotadmin/internal/client/client"
	"github.com/dmitrijs2005/iotadmin/internal/client/firmware"
	"github.com/dmitrijs2005/iotadmin/internal/client/models"
	"github.com/dmitrijs2005/iotadmin/internal/client/services"
	"github.com/dmitrijs2005/iotadmin/internal/client/session"
	"github.com/dmitrijs2005/iotadmin/internal/common"
)

var (
	errNotLoggedIn     = errors.New("not logged in")
	errUnknownFirmware = errors.New("unknown firmware")
)

// now is a test seam for the users screen.
var now = time.Now

// Login prompts for the missing credentials and exchanges them for a session.
// On success the users screen becomes the only screen in the history.
func (a *App) Login(ctx context.Context, identifier string) error {
	var err error
	if identifier == "" {
		identifier, err = getSimpleText(a.reader, "Enter username or email", a.out)
		if err != nil {
			return err
		}
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.auth.Login(ctx, identifier, password); err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			printlnFn("Username and password are required")
		case errors.Is(err, client.ErrUnavailable):
			printlnFn("Server unavailable, try again later")
		default:
			msg := "Invalid credentials"
			if m, ok := client.ServerMessage(err); ok {
				msg = m
			}
			printlnFn("Login failed:", msg)
		}
		a.logger.Warn(ctx, "login failed", "identifier", identifier, "error", err)
		return err
	}

	a.logger.Info(ctx, "logged in", "identifier", identifier)
	printlnFn("Logged in as", identifier)
	a.router.Redirect(session.ScreenUsers)
	a.showUsers(ctx)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.logger.Error(ctx, "logout failed", "error", err)
		return err
	}
	a.mu.Lock()
	a.lastUsers = nil
	a.mu.Unlock()
	printlnFn("Logged out")
	return nil
}

func (a *App) Users(ctx context.Context) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	a.router.Navigate(session.ScreenUsers)
	a.showUsers(ctx)
	return nil
}

func (a *App) Firmware(ctx context.Context) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	a.router.Navigate(session.ScreenFirmware)
	a.showFirmware(ctx, true)
	return nil
}

func (a *App) Back(ctx context.Context) error {
	screen, ok := a.router.Back()
	if !ok {
		printlnFn("Nowhere to go back to")
		return nil
	}
	a.show(ctx, screen, false)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	a.show(ctx, a.router.Current(), true)
	return nil
}

// show renders screen. Users are always fetched on entry; the firmware list
// only when refresh is set.
func (a *App) show(ctx context.Context, screen session.Screen, refresh bool) {
	switch screen {
	case session.ScreenUsers:
		a.showUsers(ctx)
	case session.ScreenFirmware:
		a.showFirmware(ctx, refresh)
	default:
		printlnFn("Please log in (type 'login')")
	}
}

// showUsers fetches the user list and renders it. A failed fetch other than
// an expired session keeps showing the last list.
func (a *App) showUsers(ctx context.Context) {
	a.session.Guard(func() {
		users, err := a.users.List(ctx)
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				printlnFn("Session expired, please log in again")
				return
			}
			a.logger.Error(ctx, "failed to load users", "error", err)
			printlnFn("Failed to load users")
			a.mu.Lock()
			users = a.lastUsers
			a.mu.Unlock()
		} else {
			a.mu.Lock()
			a.lastUsers = users
			a.mu.Unlock()
		}
		renderUsers(a.out, users, a.users.Summarize(users), now())
	})
}

func (a *App) showFirmware(ctx context.Context, refresh bool) {
	if refresh && a.session.Authenticated() {
		if err := a.registry.Refresh(ctx); err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				printlnFn("Session expired, please log in again")
				return
			}
			printlnFn("Failed to refresh firmware list, showing the last known one")
		}
	}
	a.session.Guard(func() {
		renderFirmware(a.out, a.firmwareView())
	})
}

func (a *App) firmwareView() firmwareView {
	v := firmwareView{
		Records:    a.registry.Records(),
		FetchedAt:  a.registry.FetchedAt(),
		Selected:   a.intake.Selected(),
		DragActive: a.intake.DragActive(),
		Form:       a.uploader.State(),
		Deleting:   a.lifecycle.Deleting(),
	}
	if rec, ok := a.lifecycle.PendingDelete(); ok {
		v.Pending = &rec
	}
	return v
}

// guard runs the session guard for commands that only make sense on a
// protected screen.
func (a *App) guard() bool {
	if a.session.Guard(func() {}) {
		return true
	}
	printlnFn("Please log in first")
	return false
}

func (a *App) Select(ctx context.Context, path string) error {
	return a.pick(ctx, path, firmware.SourcePicker)
}

func (a *App) Drop(ctx context.Context, path string) error {
	return a.pick(ctx, path, firmware.SourceDrop)
}

func (a *App) pick(ctx context.Context, path string, src firmware.Source) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	if a.uploader.InFlight() {
		a.board.Error(firmware.MsgUploadInFlight)
		return firmware.ErrUploadInFlight
	}

	art, err := firmware.ArtifactFromFile(path, src)
	if err != nil {
		printlnFn("Cannot use", path+":", err)
		return err
	}

	if src == firmware.SourceDrop {
		a.intake.DragEnter()
		err = a.intake.Drop(art)
	} else {
		err = a.intake.SelectFromPicker(art)
	}
	if err != nil {
		return err
	}

	if sel := a.intake.Selected(); sel != nil {
		printlnFn(fmt.Sprintf("Selected %s (%s)", sel.Name, firmware.FormatSize(sel.Size)))
		if digest, err := sel.Digest(); err == nil {
			a.logger.Debug(ctx, "firmware file selected", "path", sel.Path, "sha256", digest)
		}
	}
	return nil
}

func (a *App) Remove(ctx context.Context) error {
	if a.uploader.InFlight() {
		a.board.Error(firmware.MsgUploadInFlight)
		return firmware.ErrUploadInFlight
	}
	a.intake.Remove()
	printlnFn("Selection cleared")
	return nil
}

func (a *App) SetVersion(ctx context.Context, version string) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	if version == "" {
		v, err := getSimpleText(a.reader, "Firmware version (e.g. 1.2.0)", a.out)
		if err != nil {
			return err
		}
		version = v
	}
	if err := a.uploader.SetVersion(version); err != nil {
		a.board.Error(firmware.MsgUploadInFlight)
		return err
	}
	return nil
}

func (a *App) SetDescription(ctx context.Context, description string) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	if description == "" {
		d, err := getMultiline(a.reader, "Release notes", a.out)
		if err != nil {
			return err
		}
		description = d
	}
	if err := a.uploader.SetDescription(description); err != nil {
		a.board.Error(firmware.MsgUploadInFlight)
		return err
	}
	return nil
}

// Upload validates the form in the foreground and sends the file in the
// background so the console stays usable. A form that cannot be submitted
// fails immediately with its notice.
func (a *App) Upload(ctx context.Context) error {
	if !a.guard() {
		return errNotLoggedIn
	}

	state := a.uploader.State()
	if !a.uploader.CanSubmit() || strings.TrimSpace(state.Version) == "" {
		return a.uploader.Upload(ctx)
	}

	if sel := a.intake.Selected(); sel != nil {
		printlnFn(fmt.Sprintf("Uploading %s as version %s", sel.Name, strings.TrimSpace(state.Version)))
	}

	bg := context.WithoutCancel(ctx)
	a.uploads.Add(1)
	go func() {
		defer a.uploads.Done()
		if err := a.uploader.Upload(bg); err != nil {
			return
		}
		if a.router.Current() == session.ScreenFirmware {
			a.session.Guard(func() { renderFirmware(a.out, a.firmwareView()) })
		}
	}()
	return nil
}

func (a *App) Activate(ctx context.Context, ref string) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	id := ref
	if rec, ok := resolveFirmware(a.registry.Records(), ref); ok {
		id = rec.ID
	}
	if err := a.lifecycle.Activate(ctx, id); err != nil {
		return err
	}
	a.rerenderFirmware()
	return nil
}

func (a *App) Delete(ctx context.Context, ref string) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	rec, ok := resolveFirmware(a.registry.Records(), ref)
	if !ok {
		printlnFn("Unknown firmware:", ref, "(type 'refresh' to reload the list)")
		return errUnknownFirmware
	}
	a.lifecycle.RequestDelete(rec)
	renderDeletePrompt(a.out, rec, false)
	return nil
}

func (a *App) Confirm(ctx context.Context) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	err := a.lifecycle.ConfirmDelete(ctx)
	switch {
	case errors.Is(err, firmware.ErrNoPendingDelete):
		printlnFn("Nothing to confirm")
		return err
	case errors.Is(err, firmware.ErrDeleteInFlight):
		printlnFn("Delete already in progress")
		return err
	case err != nil:
		if _, open := a.lifecycle.PendingDelete(); open {
			printlnFn("Type 'confirm' to retry or 'cancel'")
		}
		return err
	}
	a.rerenderFirmware()
	return nil
}

func (a *App) Cancel(ctx context.Context) error {
	if _, ok := a.lifecycle.PendingDelete(); !ok {
		printlnFn("Nothing to cancel")
		return nil
	}
	a.lifecycle.CancelDelete()
	printlnFn("Delete cancelled")
	return nil
}

// Download starts a background transfer into the configured sink.
func (a *App) Download(ctx context.Context, ref string) error {
	if !a.guard() {
		return errNotLoggedIn
	}
	var rec models.Firmware
	id := ref
	if r, ok := resolveFirmware(a.registry.Records(), ref); ok {
		rec, id = r, r.ID
	}
	name := rec.DisplayName()
	if name == "" {
		name = id
	}
	a.lifecycle.Download(ctx, id)
	printlnFn(fmt.Sprintf("Downloading %s to %s", name, a.sinkName))
	return nil
}

func (a *App) Dismiss(ctx context.Context) error {
	a.board.Clear()
	return nil
}

func (a *App) rerenderFirmware() {
	if a.router.Current() != session.ScreenFirmware {
		return
	}
	a.session.Guard(func() { renderFirmware(a.out, a.firmwareView()) })
}
