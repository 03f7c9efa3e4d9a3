package line

import (
	"strings"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"schedule_bot/internal/template"
)

// Template field limits of the Messaging API.
const (
	maxAltText      = 400
	maxTitle        = 40
	maxLabel        = 20
	maxShortText    = 60
	maxText         = 120
	maxConfirmText  = 240
	maxActionData   = 300
	maxMessageText  = 5000
	maxButtonAction = 4
)

func render(reply []template.Message) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(reply))
	for _, m := range reply {
		switch m := m.(type) {
		case template.Text:
			if strings.TrimSpace(m.Text) != "" {
				out = append(out, &messaging_api.TextMessage{Text: clip(m.Text, maxMessageText)})
			}
		case template.Image:
			preview := m.PreviewURL
			if preview == "" {
				preview = m.OriginalURL
			}
			out = append(out, &messaging_api.ImageMessage{
				OriginalContentUrl: m.OriginalURL,
				PreviewImageUrl:    preview,
			})
		case template.Menu:
			out = append(out, &messaging_api.TemplateMessage{
				AltText:  altText(m.AltText),
				Template: buttons(m.Column),
			})
		case template.Carousel:
			out = append(out, &messaging_api.TemplateMessage{
				AltText:  altText(m.AltText),
				Template: carousel(m.Columns),
			})
		case template.Confirm:
			out = append(out, &messaging_api.TemplateMessage{
				AltText: altText(m.Text),
				Template: &messaging_api.ConfirmTemplate{
					Text:    clip(m.Text, maxConfirmText),
					Actions: []messaging_api.ActionInterface{action(m.Yes), action(m.No)},
				},
			})
		}
	}
	return out
}

func buttons(col template.Column) *messaging_api.ButtonsTemplate {
	acts := col.Actions
	if len(acts) > maxButtonAction {
		acts = acts[:maxButtonAction]
	}
	return &messaging_api.ButtonsTemplate{
		ThumbnailImageUrl: col.ThumbnailURL,
		Title:             clip(col.Title, maxTitle),
		Text:              clip(col.Text, textLimit(col)),
		Actions:           actions(acts),
	}
}

func carousel(cols []template.Column) *messaging_api.CarouselTemplate {
	out := make([]messaging_api.CarouselColumn, 0, len(cols))
	for _, col := range cols {
		out = append(out, messaging_api.CarouselColumn{
			ThumbnailImageUrl: col.ThumbnailURL,
			Title:             clip(col.Title, maxTitle),
			Text:              clip(col.Text, textLimit(col)),
			Actions:           actions(col.Actions),
		})
	}
	return &messaging_api.CarouselTemplate{Columns: out}
}

func actions(in []template.Action) []messaging_api.ActionInterface {
	out := make([]messaging_api.ActionInterface, 0, len(in))
	for _, a := range in {
		out = append(out, action(a))
	}
	return out
}

func action(a template.Action) messaging_api.ActionInterface {
	label := clip(a.Label, maxLabel)
	if a.Type == template.ActionMessage {
		return &messaging_api.MessageAction{Label: label, Text: clip(a.Payload, maxActionData)}
	}
	return &messaging_api.PostbackAction{Label: label, Data: clip(a.Payload, maxActionData)}
}

// textLimit is the text limit of a column, which shrinks when it has a
// title or an image.
func textLimit(col template.Column) int {
	if col.Title != "" || col.ThumbnailURL != "" {
		return maxShortText
	}
	return maxText
}

func altText(s string) string {
	if strings.TrimSpace(s) == "" {
		s = "Menu"
	}
	return clip(s, maxAltText)
}

// clip cuts s to at most n runes.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
