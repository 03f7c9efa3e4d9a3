package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"schedule_bot/internal/asset"
	"schedule_bot/internal/command"
	"schedule_bot/internal/errdef"
	"schedule_bot/internal/events"
	"schedule_bot/internal/models"
	"schedule_bot/internal/paginate"
	"schedule_bot/internal/store"
	"schedule_bot/internal/template"
)

// PlaceholderURL decorates header and pagination columns of the image carousel.
const PlaceholderURL = "https://2.bp.blogspot.com/-V31y2Ef4Ad0/VZservQf70I/AAAAAAAAdu8/ErI--hbXwfE/s1600/OpenCamera1.png"

const cancelledText = "Cancelled image upload(s)"

// ImageDomain manages named images. An image is created pending and is
// fulfilled by the next image upload from the same scope.
type ImageDomain struct {
	Deps
	store  store.Images
	assets asset.Host
}

var _ Domain = (*ImageDomain)(nil)

func NewImageDomain(s store.Images, assets asset.Host, deps Deps) *ImageDomain {
	return &ImageDomain{Deps: deps.withDefaults(), store: s, assets: assets}
}

func (d *ImageDomain) Name() string { return "image" }

func (d *ImageDomain) Handle(ctx context.Context, req Request) []template.Message {
	var (
		msgs []template.Message
		err  error
	)
	switch req.Verb {
	case "view":
		var p int
		if p, err = pageArg(req.Args); err == nil {
			msgs, err = d.view(ctx, req.Source, p)
		}
	case "detail":
		msgs, err = d.detail(ctx, req)
	case "add":
		msgs, err = d.add(ctx, req)
	case "add_template":
		msgs = template.Texts(
			`Please copy below input template and replace "image name" as you wish, then Send`,
			d.cmd("image", "add", command.Quote("image name")),
		)
	case "delete":
		msgs, err = d.remove(ctx, req)
	case "delete_confirm":
		msgs, err = d.deleteConfirm(ctx, req)
	default:
		return nil
	}
	return d.respond(ctx, "Image", msgs, err)
}

func (d *ImageDomain) view(ctx context.Context, scope models.Scope, index int) ([]template.Message, error) {
	list, err := d.store.FindImages(ctx, store.ImageFilter{Scope: scope, State: store.FulfilledAsset})
	if err != nil {
		return nil, err
	}
	cards, err := page(d.layout(), list, index)
	if err != nil {
		return nil, err
	}

	header := template.Column{
		Title:        "All Images",
		Text:         "Choose an action",
		ThumbnailURL: PlaceholderURL,
		Actions: []template.Action{
			template.Postback("Add", d.cmd("image", "add_template")),
			template.Postback("Back to Menu", d.Prefix+mainMenu),
		},
	}
	if len(list) == 0 {
		header.Text = "No image yet"
	}
	return []template.Message{template.NewCarousel(header.Title, header, cards)}, nil
}

func (d *ImageDomain) layout() paginate.Layout[models.ImageModel, template.Column] {
	return paginate.Layout[models.ImageModel, template.Column]{
		Compare: paginate.By(
			func(a, b models.ImageModel) int { return strings.Compare(a.Name, b.Name) },
			func(a, b models.ImageModel) int { return a.CreatedAt.Compare(b.CreatedAt) },
		),
		Card: func(e paginate.Entry[models.ImageModel]) template.Column {
			f, _ := e.Item.Fulfilled()
			return template.Column{
				Title:        cardTitle(e.Index, "", e.Item.Name),
				Text:         " ",
				ThumbnailURL: f.ThumbnailURL,
				Actions: []template.Action{
					template.Postback("View Detail", d.cmd("image", "detail", e.Item.ID)),
					template.Postback("Delete", d.cmd("image", "delete_confirm", e.Item.ID)),
				},
			}
		},
		Control: func(dir paginate.Direction, target int) template.Column {
			payload := d.cmd("image", "view", itoa(target))
			label, arrows := "Next", ">>>"
			if dir == paginate.Previous {
				label, arrows = "Previous", "<<<"
			}
			return template.Column{
				Title:        " ",
				Text:         " ",
				ThumbnailURL: PlaceholderURL,
				Actions:      []template.Action{template.Postback(arrows, payload), template.Postback(label, payload)},
			}
		},
	}
}

// lookup loads an uploaded image visible to scope.
func (d *ImageDomain) lookup(ctx context.Context, scope models.Scope, id string) (*models.ImageModel, models.Fulfilled, error) {
	m, err := d.store.GetImage(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.Fulfilled{}, errdef.NewNotFound("image %q not found", id)
	}
	if err != nil {
		return nil, models.Fulfilled{}, err
	}
	f, ok := m.Fulfilled()
	if !ok || !m.VisibleTo(scope) {
		return nil, models.Fulfilled{}, errdef.NewNotFound("image %q not found", id)
	}
	return m, f, nil
}

func (d *ImageDomain) detail(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	m, f, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	text := strings.Join([]string{
		"[Image Detail]",
		"Name: " + m.Name,
		"Created By: " + d.displayName(ctx, m.CreatedBy),
		"Created At: " + d.format(m.CreatedAt, command.DayLayout),
	}, "\n")
	return []template.Message{
		template.Image{OriginalURL: f.URL, PreviewURL: f.URL},
		template.Text{Text: text},
	}, nil
}

func (d *ImageDomain) add(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	m := &models.ImageModel{
		Name:  req.Args[0],
		Asset: models.Pending{},
		Owner: models.OwnerFor(req.Source),
	}
	if err := d.store.CreateImage(ctx, m); err != nil {
		return nil, err
	}
	d.publish(ctx, events.TopicImageCreated, events.ImageOf(m))
	return template.Texts("Please upload your image immediately."), nil
}

func (d *ImageDomain) remove(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	m, f, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	if err := d.store.RemoveImage(ctx, m.ID); err != nil {
		return nil, err
	}
	if err := d.assets.Destroy(ctx, f.AssetID); err != nil {
		d.Log.WarnContext(ctx, "failed to destroy deleted image asset", slog.String("asset", f.AssetID), slog.Any("error", err))
	}
	d.publish(ctx, events.TopicImageDeleted, events.Deleted{ID: m.ID})

	req.Flash.Push("Image deleted successfully!")
	return d.view(ctx, req.Source, 0)
}

func (d *ImageDomain) deleteConfirm(ctx context.Context, req Request) ([]template.Message, error) {
	if err := exactly(req.Args, 1); err != nil {
		return nil, err
	}
	m, _, err := d.lookup(ctx, req.Source, req.Args[0])
	if err != nil {
		return nil, err
	}
	return []template.Message{
		template.NewConfirm("Delete "+m.Name+"?", template.ActionPostback, d.cmd("image", "delete", m.ID), d.cmd("image", "view")),
	}, nil
}

// Upload fulfills the oldest pending image of req.Source with the content
// of an image message. Without a pending image the content is ignored.
func (d *ImageDomain) Upload(ctx context.Context, req Request, content func(context.Context) ([]byte, error)) []template.Message {
	msgs, err := d.upload(ctx, req, content)
	return d.respond(ctx, "Image", msgs, err)
}

func (d *ImageDomain) upload(ctx context.Context, req Request, content func(context.Context) ([]byte, error)) ([]template.Message, error) {
	pending, err := d.store.FindImages(ctx, store.ImageFilter{Scope: req.Source, State: store.PendingAsset})
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	m := pending[0]

	if content == nil {
		return nil, errors.New("image event without content")
	}
	data, err := content(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch image content: %w", err)
	}
	up, err := d.assets.Upload(ctx, m.Name, data)
	if err != nil {
		return nil, err
	}

	m.Asset = models.Fulfilled{
		AssetID:      up.AssetID,
		URL:          up.URL,
		ThumbnailURL: d.assets.ThumbnailURL(up.AssetID, asset.SquareFaceCrop),
	}
	if err := d.store.SaveImage(ctx, &m); err != nil {
		if derr := d.assets.Destroy(ctx, up.AssetID); derr != nil {
			d.Log.WarnContext(ctx, "failed to destroy orphaned asset", slog.String("asset", up.AssetID), slog.Any("error", derr))
		}
		return nil, err
	}
	d.publish(ctx, events.TopicImageUploaded, events.ImageOf(&m))

	req.Flash.Push("Image uploaded!")
	return d.view(ctx, req.Source, 0)
}

// CancelPending removes every pending image of scope and reports how many
// were removed.
func (d *ImageDomain) CancelPending(ctx context.Context, scope models.Scope) (int, error) {
	pending, err := d.store.FindImages(ctx, store.ImageFilter{Scope: scope, State: store.PendingAsset})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range pending {
		if err := d.store.RemoveImage(ctx, m.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return n, err
		}
		n++
		d.publish(ctx, events.TopicImageDeleted, events.Deleted{ID: m.ID})
	}
	return n, nil
}
