package handler

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	"schedule_bot/internal/command"
	"schedule_bot/internal/errdef"
	"schedule_bot/internal/events"
	"schedule_bot/internal/models"
	"schedule_bot/internal/paginate"
	"schedule_bot/internal/store"
	"schedule_bot/internal/template"
)

// expiredAfter is how long past its date an event is listed as expired.
const expiredAfter = 24 * time.Hour

// EventDomain manages events of one kind. The schedule domain is a read-only
// view over every kind.
type EventDomain struct {
	Deps
	store    store.Events
	name     string
	label    string
	plural   string
	kind     models.Kind
	readOnly bool
}

var _ Domain = (*EventDomain)(nil)

func NewScheduleDomain(s store.Events, deps Deps) *EventDomain {
	return &EventDomain{Deps: deps.withDefaults(), store: s, name: "schedule", label: "Schedule", plural: "Schedules", readOnly: true}
}

func NewSeminarDomain(s store.Events, deps Deps) *EventDomain {
	return newKindDomain(s, deps, models.KindSeminar)
}

func NewWorkshopDomain(s store.Events, deps Deps) *EventDomain {
	return newKindDomain(s, deps, models.KindWorkshop)
}

func newKindDomain(s store.Events, deps Deps, kind models.Kind) *EventDomain {
	label := strings.ToUpper(string(kind[:1])) + string(kind[1:])
	return &EventDomain{Deps: deps.withDefaults(), store: s, name: string(kind), label: label, plural: label + "s", kind: kind}
}

func (d *EventDomain) Name() string { return d.name }

func (d *EventDomain) Handle(ctx context.Context, req Request) []template.Message {
	var (
		msgs []template.Message
		err  error
	)
	switch req.Verb {
	case "view":
		msgs, err = d.viewCommand(ctx, req)
	case "detail":
		msgs, err = d.detail(ctx, req)
	default:
		if d.readOnly {
			return nil
		}
		switch req.Verb {
		case "add":
			msgs, err = d.add(ctx, req)
		case "add_template":
			msgs = d.addTemplate()
		case "delete":
			msgs, err = d.remove(ctx, req)
		case "delete_confirm":
			msgs, err = d.deleteConfirm(ctx, req)
		case "edit":
			msgs, err = d.edit(ctx, req)
		case "edit_template":
			msgs, err = d.editTemplate(ctx, req)
		default:
			return nil
		}
	}
	return d.respond(ctx, d.label, msgs, err)
}

func (d *EventDomain) viewCommand(ctx context.Context, req Request) ([]template.Message, error) {
	p, err := pageArg(req.Args)
	if err != nil {
		return nil, err
	}
	return d.view(ctx, req.Source, p)
}

// view renders page index of the events visible to scope.
func (d *EventDomain) view(ctx context.Context, scope models.Scope, index int) ([]template.Message, error) {
	list, err := d.store.FindEvents(ctx, store.EventFilter{Scope: scope, Kind: d.kind})
	if err != nil {
		return nil, err
	}
	cards, err := page(d.layout(), list, index)
	if err != nil {
		return nil, err
	}

	header := template.Column{Title: "All " + d.plural, Text: "Choose an action"}
	if d.readOnly {
		header.Text = "List of all events"
		header.Actions = []template.Action{template.Postback("Back to Menu", d.Prefix+mainMenu)}
		if len(list) == 0 {
			header.Text = "No event yet"
		}
	} else {
		header.Actions = []template.Action{
			template.Blank(),
			template.Postback("Add", d.cmd(d.name, "add_template")),
			template.Postback("Back to Menu", d.Prefix+mainMenu),
		}
		if len(list) == 0 {
			header.Text = "No " + d.name + " yet"
		}
	}
	return []template.Message{template.NewCarousel(header.Title, header, cards)}, nil
}

func (d *EventDomain) expired(e models.EventModel) bool {
	return d.Now().Sub(e.Date) > expiredAfter
}

func (d *EventDomain) layout() paginate.Layout[models.EventModel, template.Column] {
	bucket := func(e models.EventModel) int {
		if d.expired(e) {
			return 1
		}
		return 0
	}
	return paginate.Layout[models.EventModel, template.Column]{
		Compare: paginate.By(
			func(a, b models.EventModel) int { return cmp.Compare(bucket(a), bucket(b)) },
			func(a, b models.EventModel) int { return a.Date.Compare(b.Date) },
		),
		Card:    d.card,
		Control: d.control,
	}
}

func (d *EventDomain) card(e paginate.Entry[models.EventModel]) template.Column {
	suffix := ""
	if d.expired(e.Item) {
		suffix = " - Expired"
	}
	col := template.Column{Title: cardTitle(e.Index, suffix, e.Item.Name)}
	if d.readOnly {
		col.Text = d.format(e.Item.Date, command.DayLayout)
		col.Actions = []template.Action{template.Postback("View Detail", d.cmd(d.name, "detail", e.Item.ID))}
		return col
	}
	col.Text = d.format(e.Item.Date, command.DisplayLayout)
	col.Actions = []template.Action{
		template.Postback("View Detail", d.cmd(d.name, "detail", e.Item.ID)),
		template.Postback("Edit", d.cmd(d.name, "edit_template", e.Item.ID)),
		template.Postback("Delete", d.cmd(d.name, "delete_confirm", e.Item.ID)),
	}
	return col
}

func (d *EventDomain) control(dir paginate.Direction, target int) template.Column {
	payload := d.cmd(d.name, "view", itoa(target))
	label, arrows := "Next", ">>>"
	if dir == paginate.Previous {
		label, arrows = "Previous", "<<<"
	}
	col := template.Column{Title: " ", Text: " "}
	if d.readOnly {
		col.Actions = []template.Action{template.Postback(label, payload)}
		return col
	}
	col.Actions = []template.Action{
		template.Postback(arrows, payload),
		template.Postback(label, payload),
		template.Postback(arrows, payload),
	}
	return col
}

// lookup loads an event of this domain visible to scope.
func (d *EventDomain) lookup(ctx context.Context, scope models.Scope, id string) (*models.EventModel, error) {
	e, err := d.store.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errdef.NewNotFound("%s %q not found", d.name, id)
	}
	if err != nil {
		return nil, err
	}
	if !e.VisibleTo(scope) || (d.kind != "" && e.Kind != d.kind) {
		return nil, errdef.NewNotFound("%s %q not found", d.name, id)
	}
	return e, nil
}

func (d *EventDomain) detail(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	e, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}

	layout := command.DisplayLayout
	if d.readOnly {
		layout = command.DayLayout
	}
	lines := []string{
		"[" + d.label + " Detail]",
		"Name: " + e.Name,
	}
	if d.readOnly {
		lines = append(lines, "Type: "+string(e.Kind))
	}
	lines = append(lines,
		"Date: "+d.format(e.Date, layout),
		"Created By: "+d.displayName(ctx, e.CreatedBy),
		"Created At: "+d.format(e.CreatedAt, layout),
	)
	return template.Texts(strings.Join(lines, "\n")), nil
}

func (d *EventDomain) add(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 2); err != nil {
		return nil, err
	}
	if err := checkName(req.Args[0]); err != nil {
		return nil, err
	}
	date, err := parseDate(d.Deps, req.Args[1])
	if err != nil {
		return nil, err
	}

	e := &models.EventModel{
		Name:  req.Args[0],
		Date:  date,
		Kind:  d.kind,
		Owner: models.OwnerFor(req.Source),
	}
	if err := d.store.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	d.publish(ctx, events.TopicEventCreated, events.EventOf(e))

	req.Flash.Push(d.label + " created successfully!")
	return d.view(ctx, req.Source, 0)
}

func (d *EventDomain) addTemplate() []template.Message {
	return template.Texts(
		`Please copy below input template and replace "`+d.name+` name" and "date" as you wish, then Send`,
		d.cmd(d.name, "add", command.Quote(d.name+" name"), d.format(d.Now(), command.TemplateLayout)),
	)
}

func (d *EventDomain) remove(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	e, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	if err := d.store.RemoveEvent(ctx, e.ID); err != nil {
		return nil, err
	}
	d.publish(ctx, events.TopicEventDeleted, events.Deleted{ID: e.ID})

	req.Flash.Push(d.label + " deleted successfully!")
	return d.view(ctx, req.Source, 0)
}

func (d *EventDomain) deleteConfirm(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	e, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	title := "Delete " + e.Name + " [" + d.format(e.Date, command.DisplayLayout) + "] ?"
	return []template.Message{
		template.NewConfirm(title, template.ActionPostback, d.cmd(d.name, "delete", e.ID), d.cmd(d.name, "view")),
	}, nil
}

func (d *EventDomain) edit(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 3); err != nil {
		return nil, err
	}
	if err := checkName(req.Args[1]); err != nil {
		return nil, err
	}
	date, err := parseDate(d.Deps, req.Args[2])
	if err != nil {
		return nil, err
	}
	e, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}

	e.Name = req.Args[1]
	e.Date = date
	if err := d.store.SaveEvent(ctx, e); err != nil {
		return nil, err
	}
	d.publish(ctx, events.TopicEventUpdated, events.EventOf(e))

	req.Flash.Push(d.label + " edited successfully!")
	return d.view(ctx, req.Source, 0)
}

func (d *EventDomain) editTemplate(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	e, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	return template.Texts(
		`Please copy below edit template and replace "`+d.name+` name" and "date" as you wish, then Send`,
		d.cmd(d.name, "edit", e.ID, command.Quote(e.Name), command.Quote(d.format(e.Date, command.TemplateLayout))),
	), nil
}
