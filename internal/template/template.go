// Package template builds transport-agnostic reply content. Transports
// render these values into their own wire formats.
package template

// Message is one element of a reply: Text, Image, Menu, Carousel or Confirm.
type Message interface {
	isMessage()
}

type ActionType string

const (
	// ActionMessage echoes the payload back as if the user typed it.
	ActionMessage ActionType = "message"
	// ActionPostback sends the payload back as structured postback data.
	ActionPostback ActionType = "postback"
)

// Action is a selectable item. Payload is echoed back verbatim by the
// transport and parsed again as a command.
type Action struct {
	Type    ActionType
	Label   string
	Payload string
}

// Column is a card: a record summary or a pagination control.
type Column struct {
	Title        string
	Text         string
	ThumbnailURL string
	Actions      []Action
}

type Text struct {
	Text string
}

type Image struct {
	OriginalURL string
	PreviewURL  string
}

type Menu struct {
	AltText string
	Column
}

type Carousel struct {
	AltText string
	Columns []Column
}

type Confirm struct {
	Text string
	Yes  Action
	No   Action
}

func (Text) isMessage()     {}
func (Image) isMessage()    {}
func (Menu) isMessage()     {}
func (Carousel) isMessage() {}
func (Confirm) isMessage()  {}

func Postback(label, payload string) Action {
	return Action{Type: ActionPostback, Label: label, Payload: payload}
}

func Echo(label, text string) Action {
	return Action{Type: ActionMessage, Label: label, Payload: text}
}

// Blank is a filler action keeping action counts equal across carousel
// columns.
func Blank() Action {
	return Postback(" ", " ")
}

// IsBlank reports whether a carries nothing to show or send.
func (a Action) IsBlank() bool {
	return isSpace(a.Label) || isSpace(a.Payload)
}

func NewMenu(title, text string, actions ...Action) Menu {
	return Menu{
		AltText: title,
		Column:  Column{Title: title, Text: text, Actions: actions},
	}
}

// NewCarousel returns header followed by page as one carousel.
func NewCarousel(title string, header Column, page []Column) Carousel {
	cols := make([]Column, 0, len(page)+1)
	cols = append(cols, header)
	cols = append(cols, page...)
	return Carousel{AltText: title, Columns: cols}
}

// NewConfirm builds a yes/no question. typ applies to both answers.
func NewConfirm(title string, typ ActionType, yesPayload, noPayload string) Confirm {
	if typ == "" {
		typ = ActionMessage
	}
	if yesPayload == "" {
		yesPayload = "Yes"
	}
	if noPayload == "" {
		noPayload = "No"
	}
	return Confirm{
		Text: title,
		Yes:  Action{Type: typ, Label: "Yes", Payload: yesPayload},
		No:   Action{Type: typ, Label: "No", Payload: noPayload},
	}
}

// Texts wraps each string as a Text message.
func Texts(lines ...string) []Message {
	out := make([]Message, 0, len(lines))
	for _, l := range lines {
		out = append(out, Text{Text: l})
	}
	return out
}

func isSpace(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}
