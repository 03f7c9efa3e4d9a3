package handler

import "schedule_bot/internal/template"

const (
	helpText = `List of common commands:

* !woy -> show the main menu

* !help -> list common commands

* !about -> show information about this bot`

	aboutText = `I am a chat bot that keeps reminders of your seminars and workshops.
I hope I can make things a little easier for all of you.

Regards,
ID.`

	followText = `Thank you for following me.

I can be used privately or in a group.
To use me in a group, add me to that group directly.

To show the main menu, type "!woy" without quotes.

To show help, type "!help" without quotes.

Regards,
ID.`

	joinText = `Thank you for inviting me.

To show the main menu, type "!woy" without quotes.

To show help, type "!help" without quotes.

Regards,
ID.`
)

// MainMenu is the two-column carousel shown by the main menu command.
func (d *Dispatcher) MainMenu() template.Carousel {
	const title = "Event Schedule Manager Bot"
	return template.Carousel{
		AltText: "Main Menu",
		Columns: []template.Column{
			{
				Title: title,
				Text:  "Choose an action",
				Actions: []template.Action{
					template.Postback("View All Schedule", d.prefix+"schedule_view"),
					template.Postback("Help", d.prefix+"help"),
					template.Postback("About", d.prefix+"about"),
				},
			},
			{
				Title: title,
				Text:  "Choose an action",
				Actions: []template.Action{
					template.Postback("View Seminars", d.prefix+"seminar_view"),
					template.Postback("View Workshops", d.prefix+"workshop_view"),
					template.Postback("View Images", d.prefix+"image_view"),
				},
			},
		},
	}
}

func (d *Dispatcher) builtin(name string) ([]template.Message, bool) {
	switch name {
	case mainMenu:
		return []template.Message{d.MainMenu()}, true
	case "help":
		return template.Texts(helpText), true
	case "about":
		return template.Texts(aboutText), true
	}
	return nil, false
}
