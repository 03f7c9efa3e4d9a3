package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/command"
	"schedule_bot/internal/errdef"
	"schedule_bot/internal/events"
	"schedule_bot/internal/flash"
	"schedule_bot/internal/models"
	"schedule_bot/internal/paginate"
	"schedule_bot/internal/template"
)

const (
	failedText     = "Request failed. Please try again later."
	outOfBoundText = "Page out of bound!"
	mainMenu       = "woy"
)

// Request is a parsed command addressed to one domain.
type Request struct {
	Source models.Scope
	// Verb is the command name without the domain part, e.g. "delete_confirm".
	Verb  string
	Args  []string
	Flash *flash.Queue
}

// Domain handles the commands of one record type. Commands reach it as
// <prefix><Name>_<verb>.
type Domain interface {
	Name() string
	Handle(ctx context.Context, req Request) []template.Message
}

// Deps are the collaborators shared by the domain handlers.
type Deps struct {
	Profiles  chat.Profiles
	Publisher events.Publisher
	Log       *slog.Logger
	Location  *time.Location
	Now       func() time.Time
	Prefix    string
}

func (d Deps) withDefaults() Deps {
	if d.Publisher == nil {
		d.Publisher = &events.NoopPublisher{}
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Prefix == "" {
		d.Prefix = command.DefaultPrefix
	}
	return d
}

// cmd spells a command for payloads and templates.
func (d Deps) cmd(domain, verb string, args ...string) string {
	s := d.Prefix + domain
	if verb != "" {
		s += "_" + verb
	}
	for _, a := range args {
		s += " " + a
	}
	return s
}

func (d Deps) format(t time.Time, layout string) string {
	return t.In(d.Location).Format(layout)
}

// displayName resolves a user id, falling back to the id itself.
func (d Deps) displayName(ctx context.Context, userID string) string {
	if d.Profiles == nil {
		return userID
	}
	name, err := d.Profiles.DisplayName(ctx, userID)
	if err != nil || name == "" {
		d.Log.WarnContext(ctx, "failed to get user profile", slog.String("profile", userID), slog.Any("error", err))
		return userID
	}
	return name
}

func (d Deps) publish(ctx context.Context, topic string, event any) {
	if err := d.Publisher.Publish(ctx, topic, event); err != nil {
		d.Log.WarnContext(ctx, "failed to publish event", slog.String("topic", topic), slog.Any("error", err))
	}
}

// respond turns a handler result into a reply. label names the record type in
// not found messages.
func (d Deps) respond(ctx context.Context, label string, msgs []template.Message, err error) []template.Message {
	switch {
	case err == nil:
		return msgs
	case errdef.IsValidation(err):
		return template.Texts(err.Error())
	case errdef.IsNotFound(err):
		return template.Texts(label + " not found!")
	}
	d.Log.ErrorContext(ctx, "request failed", slog.Any("error", err))
	return template.Texts(failedText)
}

// checkName rejects names the edit template could not quote back.
func checkName(name string) error {
	if !command.Quotable(name) {
		return errdef.NewValidation(`Name must not contain both " and ' quotes!`)
	}
	return nil
}

func exactly(args []string, n int) error {
	if len(args) != n {
		return errdef.NewValidation("Arguments must be exactly %d!", n)
	}
	return nil
}

// pageArg reads the optional page argument of a view command.
func pageArg(args []string) (int, error) {
	switch len(args) {
	case 0:
		return 0, nil
	case 1:
		page, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, errdef.NewValidation(outOfBoundText)
		}
		return page, nil
	}
	return 0, errdef.NewValidation("Arguments must be exactly 0 or 1!")
}

// page lays items out with layout and returns the requested page.
func page[T any](layout paginate.Layout[T, template.Column], items []T, index int) ([]template.Column, error) {
	p, err := layout.Page(items, index)
	if errors.Is(err, paginate.ErrOutOfBound) {
		return nil, errdef.NewValidation(outOfBoundText)
	}
	return p, err
}

func parseDate(d Deps, s string) (time.Time, error) {
	t, err := command.ParseDate(s, d.Location)
	if err != nil {
		return time.Time{}, errdef.NewValidation("Invalid date!")
	}
	return t, nil
}

func cardTitle(index int, suffix, name string) string {
	return fmt.Sprintf("[%d%s] %s", index+1, suffix, name)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
