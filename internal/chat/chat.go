// Package chat defines the transport-neutral inbound event and the
// collaborators a chat transport exposes to the bot core.
package chat

import (
	"context"

	"schedule_bot/internal/models"
	"schedule_bot/internal/template"
)

type EventKind int

const (
	EventUnknown EventKind = iota
	EventText
	EventPostback
	EventImage
	EventFollow
	EventJoin
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventPostback:
		return "postback"
	case EventImage:
		return "image"
	case EventFollow:
		return "follow"
	case EventJoin:
		return "join"
	}
	return "unknown"
}

// Event is one inbound chat update. Text holds the message text or the
// postback payload. Content fetches the binary body of an image event.
type Event struct {
	Source  models.Scope
	Kind    EventKind
	Text    string
	Content func(ctx context.Context) ([]byte, error)
}

// Handler turns an event into reply content. It never fails: errors are
// reported inside the reply.
type Handler interface {
	Handle(ctx context.Context, ev Event) []template.Message
}

type HandlerFunc func(ctx context.Context, ev Event) []template.Message

func (f HandlerFunc) Handle(ctx context.Context, ev Event) []template.Message {
	return f(ctx, ev)
}

// Profiles resolves user ids to display names.
type Profiles interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
