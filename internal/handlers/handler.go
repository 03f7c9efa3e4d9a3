// Package handler routes chat events to the command domains and composes
// the replies.
package handler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/command"
	"schedule_bot/internal/errdef"
	"schedule_bot/internal/flash"
	"schedule_bot/internal/logging"
	"schedule_bot/internal/template"
)

type Options struct {
	Prefix string
	// MaxArgLen caps the length of each argument in runes. Zero disables it.
	MaxArgLen int
	Log       *slog.Logger
}

// Dispatcher is the chat.Handler of the bot. Events of one scope are handled
// one at a time, and every event gets its own flash queue.
type Dispatcher struct {
	prefix    string
	maxArgLen int
	domains   map[string]Domain
	images    *ImageDomain
	locks     scopeLocks
	log       *slog.Logger
}

var _ chat.Handler = (*Dispatcher)(nil)

// NewDispatcher registers domains by name. The image domain also receives
// image uploads and cancels pending uploads.
func NewDispatcher(opts Options, domains ...Domain) *Dispatcher {
	d := &Dispatcher{
		prefix:    opts.Prefix,
		maxArgLen: opts.MaxArgLen,
		domains:   make(map[string]Domain, len(domains)),
		log:       opts.Log,
	}
	if d.prefix == "" {
		d.prefix = command.DefaultPrefix
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	for _, dom := range domains {
		d.domains[dom.Name()] = dom
		if img, ok := dom.(*ImageDomain); ok {
			d.images = img
		}
	}
	return d
}

func (d *Dispatcher) Handle(ctx context.Context, ev chat.Event) (reply []template.Message) {
	ctx = logging.WithScope(ctx, ev.Source)
	lgr := d.log.With(slog.String("event", ev.Kind.String()))

	unlock := d.locks.lock(ev.Source.Key())
	defer unlock()

	q := flash.New()
	defer func() {
		if r := recover(); r != nil {
			lgr.ErrorContext(ctx, "panic while handling event",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			reply = q.DrainAndPrepend(template.Text{Text: failedText})
		}
	}()

	switch ev.Kind {
	case chat.EventText, chat.EventPostback:
		return q.DrainAndPrepend(d.handleCommand(ctx, lgr, ev, q)...)
	case chat.EventImage:
		if d.images == nil {
			return q.DrainAndPrepend()
		}
		lgr.InfoContext(ctx, "received image")
		req := Request{Source: ev.Source, Flash: q}
		return q.DrainAndPrepend(d.images.Upload(ctx, req, ev.Content)...)
	case chat.EventFollow:
		return q.DrainAndPrepend(template.Text{Text: followText})
	case chat.EventJoin:
		return q.DrainAndPrepend(template.Text{Text: joinText})
	}
	return q.DrainAndPrepend()
}

func (d *Dispatcher) handleCommand(ctx context.Context, lgr *slog.Logger, ev chat.Event, q *flash.Queue) []template.Message {
	if d.images != nil {
		n, err := d.images.CancelPending(ctx, ev.Source)
		if err != nil {
			lgr.ErrorContext(ctx, "failed to cancel pending uploads", slog.Any("error", err))
		}
		if n > 0 {
			q.Push(cancelledText)
		}
	}

	cmd, ok := command.Parse(ev.Text, d.prefix)
	if !ok {
		return nil
	}
	ctx = logging.WithCommand(ctx, cmd.Name)
	lgr.InfoContext(ctx, "received command", slog.Int("args", len(cmd.Args)))

	if err := d.checkArgs(cmd.Args); err != nil {
		return template.Texts(err.Error())
	}

	name := strings.TrimPrefix(cmd.Name, d.prefix)
	if msgs, ok := d.builtin(name); ok {
		return msgs
	}

	domain, verb, _ := strings.Cut(name, "_")
	dom, ok := d.domains[domain]
	if !ok || verb == "" {
		lgr.DebugContext(ctx, "ignored unknown command")
		return nil
	}
	return dom.Handle(ctx, Request{Source: ev.Source, Verb: verb, Args: cmd.Args, Flash: q})
}

func (d *Dispatcher) checkArgs(args []string) error {
	if d.maxArgLen <= 0 {
		return nil
	}
	for _, a := range args {
		if utf8.RuneCountInString(a) > d.maxArgLen {
			return errdef.NewValidation("Arguments must be at most %d characters!", d.maxArgLen)
		}
	}
	return nil
}
