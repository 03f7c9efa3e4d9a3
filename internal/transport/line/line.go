// Package line serves the bot over the LINE Messaging API webhook.
package line

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"golang.org/x/sync/errgroup"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/models"
)

const (
	// maxReplyMessages is the per-call message limit of reply and push.
	maxReplyMessages = 5
	// maxParallelEvents bounds how many scopes of one webhook call run at once.
	maxParallelEvents = 8
)

type messenger interface {
	ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
	PushMessage(req *messaging_api.PushMessageRequest, xLineRetryKey string) (*messaging_api.PushMessageResponse, error)
	GetProfile(userId string) (*messaging_api.UserProfileResponse, error)
}

type blobs interface {
	GetMessageContent(messageId string) (*http.Response, error)
}

type Bot struct {
	secret  string
	api     messenger
	blob    blobs
	handler chat.Handler
	log     *slog.Logger
}

// New creates the Messaging API clients for the channel.
func New(secret, token string, log *slog.Logger) (*Bot, error) {
	api, err := messaging_api.NewMessagingApiAPI(token)
	if err != nil {
		return nil, fmt.Errorf("line messaging api: %w", err)
	}
	blob, err := messaging_api.NewMessagingApiBlobAPI(token)
	if err != nil {
		return nil, fmt.Errorf("line blob api: %w", err)
	}
	return &Bot{secret: secret, api: api, blob: blob, log: log}, nil
}

// Handle sets the handler that receives chat events.
func (b *Bot) Handle(h chat.Handler) {
	b.handler = h
}

// Webhook verifies the signature of a callback request and handles its
// events before answering.
func (b *Bot) Webhook(c *gin.Context) {
	cb, err := webhook.ParseRequest(b.secret, c.Request)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			b.log.Warn("rejected webhook with invalid signature")
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		b.log.Error("failed to parse webhook", slog.Any("error", err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	ctx := c.Request.Context()
	var g errgroup.Group
	g.SetLimit(maxParallelEvents)
	for _, batch := range b.byScope(cb.Events) {
		g.Go(func() error {
			for _, in := range batch {
				b.dispatch(ctx, in)
			}
			return nil
		})
	}
	_ = g.Wait()
	c.Status(http.StatusOK)
}

// byScope groups events by scope, keeping delivery order inside each group
// and the order in which groups first appear.
func (b *Bot) byScope(raw []webhook.EventInterface) [][]inbound {
	var batches [][]inbound
	index := make(map[string]int)
	for _, e := range raw {
		in, ok := b.eventOf(e)
		if !ok {
			continue
		}
		key := in.event.Source.Key()
		i, seen := index[key]
		if !seen {
			i = len(batches)
			index[key] = i
			batches = append(batches, nil)
		}
		batches[i] = append(batches[i], in)
	}
	return batches
}

// inbound is a chat event with the addressing needed to answer it.
type inbound struct {
	event      chat.Event
	replyToken string
	to         string
}

func (b *Bot) dispatch(ctx context.Context, in inbound) {
	reply := b.handler.Handle(ctx, in.event)
	msgs := render(reply)
	if len(msgs) == 0 {
		return
	}

	first := msgs[:min(len(msgs), maxReplyMessages)]
	if _, err := b.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: in.replyToken,
		Messages:   first,
	}); err != nil {
		b.log.Error("failed to reply", slog.String("to", in.to), slog.Any("error", err))
		return
	}

	for rest := msgs[len(first):]; len(rest) > 0; {
		chunk := rest[:min(len(rest), maxReplyMessages)]
		rest = rest[len(chunk):]
		if _, err := b.api.PushMessage(&messaging_api.PushMessageRequest{
			To:       in.to,
			Messages: chunk,
		}, ""); err != nil {
			b.log.Error("failed to push", slog.String("to", in.to), slog.Any("error", err))
			return
		}
	}
}

func (b *Bot) eventOf(raw webhook.EventInterface) (inbound, bool) {
	var (
		in     inbound
		source webhook.SourceInterface
	)
	switch e := raw.(type) {
	case webhook.MessageEvent:
		in.replyToken, source = e.ReplyToken, e.Source
		switch m := e.Message.(type) {
		case webhook.TextMessageContent:
			in.event = chat.Event{Kind: chat.EventText, Text: m.Text}
		case webhook.ImageMessageContent:
			id := m.Id
			in.event = chat.Event{Kind: chat.EventImage, Content: func(context.Context) ([]byte, error) {
				return b.content(id)
			}}
		default:
			return inbound{}, false
		}
	case webhook.PostbackEvent:
		if e.Postback == nil {
			return inbound{}, false
		}
		in.replyToken, source = e.ReplyToken, e.Source
		in.event = chat.Event{Kind: chat.EventPostback, Text: e.Postback.Data}
	case webhook.FollowEvent:
		in.replyToken, source = e.ReplyToken, e.Source
		in.event = chat.Event{Kind: chat.EventFollow}
	case webhook.JoinEvent:
		in.replyToken, source = e.ReplyToken, e.Source
		in.event = chat.Event{Kind: chat.EventJoin}
	default:
		return inbound{}, false
	}

	scope, to, ok := scopeOf(source)
	if !ok {
		return inbound{}, false
	}
	in.event.Source, in.to = scope, to
	return in, true
}

// scopeOf maps a webhook source to the record scope and the push target.
// Rooms share records the way groups do.
func scopeOf(src webhook.SourceInterface) (models.Scope, string, bool) {
	switch s := src.(type) {
	case webhook.UserSource:
		return models.PersonalScope(s.UserId), s.UserId, s.UserId != ""
	case webhook.GroupSource:
		return models.GroupScope(s.GroupId, s.UserId), s.GroupId, s.GroupId != ""
	case webhook.RoomSource:
		return models.GroupScope(s.RoomId, s.UserId), s.RoomId, s.RoomId != ""
	}
	return models.Scope{}, "", false
}

func (b *Bot) content(messageID string) ([]byte, error) {
	resp, err := b.blob.GetMessageContent(messageID)
	if err != nil {
		return nil, fmt.Errorf("get message content: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// DisplayName implements chat.Profiles.
func (b *Bot) DisplayName(_ context.Context, userID string) (string, error) {
	p, err := b.api.GetProfile(userID)
	if err != nil {
		return "", fmt.Errorf("get profile: %w", err)
	}
	return p.DisplayName, nil
}
