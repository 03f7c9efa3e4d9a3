// Package telegram runs the bot over the Telegram Bot API using long polling.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/models"
)

// maxPhotoSize caps downloaded photos; the Bot API serves files up to 20 MB.
const maxPhotoSize = 20 << 20

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Bot struct {
	api     botAPI
	selfID  int64
	handler chat.Handler
	log     *slog.Logger
	http    *http.Client

	// photoLimit overrides maxPhotoSize when positive.
	photoLimit int64
}

// New authorizes token with the Bot API.
func New(token string, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	api.Debug = false
	log.Info("authorized on account", slog.String("account", api.Self.UserName))
	return &Bot{api: api, selfID: api.Self.ID, log: log, http: http.DefaultClient}, nil
}

// Handle sets the handler that receives chat events. It must be called
// before Run.
func (b *Bot) Handle(h chat.Handler) {
	b.handler = h
}

// Run polls for updates until ctx is done. Updates of one chat are handled
// in arrival order; chats are handled concurrently. Run waits for queued
// updates before returning.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 15
	updates := b.api.GetUpdatesChan(updateConfig)

	seq := newSequencer()
	defer seq.wait()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			seq.submit(chatKey(update), func() {
				b.handleUpdate(ctx, update)
			})
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
			b.log.Warn("failed to answer callback", slog.Any("error", err))
		}
	}

	ev, chatID, ok := b.eventOf(update)
	if !ok {
		return
	}
	reply := b.handler.Handle(ctx, ev)

	msgs := b.render(chatID, reply)
	if ev.Kind == chat.EventFollow && len(msgs) > 0 {
		if m, ok := msgs[0].(tgbotapi.MessageConfig); ok {
			m.ReplyMarkup = MainMenu()
			msgs[0] = m
		}
	}
	for _, m := range msgs {
		if _, err := b.api.Send(m); err != nil {
			b.log.Error("failed to send reply", slog.Int64("chat", chatID), slog.Any("error", err))
		}
	}
}

// eventOf converts an update into a chat event and the chat to reply to.
func (b *Bot) eventOf(update tgbotapi.Update) (chat.Event, int64, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil || cq.From == nil {
			return chat.Event{}, 0, false
		}
		ev := chat.Event{Source: scopeOf(cq.Message.Chat, cq.From), Kind: chat.EventPostback, Text: cq.Data}
		return ev, cq.Message.Chat.ID, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || msg.From == nil {
		return chat.Event{}, 0, false
	}
	ev := chat.Event{Source: scopeOf(msg.Chat, msg.From)}
	switch {
	case b.joined(msg):
		ev.Kind = chat.EventJoin
	case msg.IsCommand() && msg.Command() == "start":
		ev.Kind = chat.EventFollow
	case len(msg.Photo) > 0:
		ev.Kind = chat.EventImage
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		ev.Content = func(ctx context.Context) ([]byte, error) {
			return b.download(ctx, fileID)
		}
	case msg.Text != "":
		ev.Kind = chat.EventText
		ev.Text = msg.Text
	default:
		return chat.Event{}, 0, false
	}
	return ev, msg.Chat.ID, true
}

func (b *Bot) joined(msg *tgbotapi.Message) bool {
	for _, u := range msg.NewChatMembers {
		if u.ID == b.selfID {
			return true
		}
	}
	return false
}

func scopeOf(c *tgbotapi.Chat, from *tgbotapi.User) models.Scope {
	userID := strconv.FormatInt(from.ID, 10)
	if c.IsPrivate() {
		return models.PersonalScope(userID)
	}
	return models.GroupScope(strconv.FormatInt(c.ID, 10), userID)
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %s", resp.Status)
	}
	limit := b.photoLimit
	if limit <= 0 {
		limit = maxPhotoSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("download photo: larger than %d bytes", limit)
	}
	return data, nil
}

// DisplayName implements chat.Profiles.
func (b *Bot) DisplayName(_ context.Context, userID string) (string, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("telegram user id %q: %w", userID, err)
	}
	c, err := b.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: id}})
	if err != nil {
		return "", fmt.Errorf("get chat: %w", err)
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.UserName
	}
	return name, nil
}

// MainMenu is the reply keyboard offered after /start.
func MainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		[]tgbotapi.KeyboardButton{{Text: "!woy"}},
		[]tgbotapi.KeyboardButton{{Text: "!schedule_view"}},
		[]tgbotapi.KeyboardButton{{Text: "!help"}},
	)
}
