package telegram

import (
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"schedule_bot/internal/template"
)

// maxCallbackData is the Bot API limit for inline button payloads.
const maxCallbackData = 64

// render turns reply content into Bot API messages. A carousel becomes one
// message per column, each with a row of inline buttons.
func (b *Bot) render(chatID int64, reply []template.Message) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable
	for _, m := range reply {
		switch m := m.(type) {
		case template.Text:
			if strings.TrimSpace(m.Text) != "" {
				out = append(out, tgbotapi.NewMessage(chatID, m.Text))
			}
		case template.Image:
			out = append(out, tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(m.OriginalURL)))
		case template.Menu:
			msg := tgbotapi.NewMessage(chatID, columnText(m.Column))
			if kb := b.keyboard(m.Actions, false); kb != nil {
				msg.ReplyMarkup = *kb
			}
			out = append(out, msg)
		case template.Carousel:
			for _, col := range m.Columns {
				out = append(out, b.column(chatID, col))
			}
		case template.Confirm:
			msg := tgbotapi.NewMessage(chatID, m.Text)
			if kb := b.keyboard([]template.Action{m.Yes, m.No}, true); kb != nil {
				msg.ReplyMarkup = *kb
			}
			out = append(out, msg)
		}
	}
	return out
}

func (b *Bot) column(chatID int64, col template.Column) tgbotapi.Chattable {
	actions := dedupe(col.Actions)
	text := columnText(col)
	if text == "" {
		labels := make([]string, 0, len(actions))
		for _, a := range actions {
			labels = append(labels, a.Label)
		}
		text = strings.Join(labels, " ")
	}
	kb := b.keyboard(actions, true)

	if col.ThumbnailURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(col.ThumbnailURL))
		photo.Caption = text
		if kb != nil {
			photo.ReplyMarkup = *kb
		}
		return photo
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	return msg
}

func columnText(col template.Column) string {
	return strings.TrimSpace(strings.TrimSpace(col.Title) + "\n" + strings.TrimSpace(col.Text))
}

// dedupe drops blank actions and keeps the longest label per payload, so
// "<<< Previous <<<" style controls become a single button.
func dedupe(actions []template.Action) []template.Action {
	out := make([]template.Action, 0, len(actions))
	seen := make(map[string]int)
	for _, a := range actions {
		if a.IsBlank() {
			continue
		}
		if i, ok := seen[a.Payload]; ok {
			if len(a.Label) > len(out[i].Label) {
				out[i].Label = a.Label
			}
			continue
		}
		seen[a.Payload] = len(out)
		out = append(out, a)
	}
	return out
}

// keyboard lays actions out in one row, or one per row when inline is false.
func (b *Bot) keyboard(actions []template.Action, inline bool) *tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, a := range actions {
		if a.IsBlank() {
			continue
		}
		if len(a.Payload) > maxCallbackData {
			b.log.Warn("dropped button with oversized payload", slog.String("label", a.Label), slog.Int("size", len(a.Payload)))
			continue
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Payload))
	}
	if len(buttons) == 0 {
		return nil
	}
	if inline {
		kb := tgbotapi.NewInlineKeyboardMarkup(buttons)
		return &kb
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, btn := range buttons {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{btn})
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
