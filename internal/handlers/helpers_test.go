package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"schedule_bot/internal/asset"
	"schedule_bot/internal/chat"
	"schedule_bot/internal/events"
	"schedule_bot/internal/flash"
	"schedule_bot/internal/logging"
	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
	"schedule_bot/internal/store/memory"
	"schedule_bot/internal/template"
)

var testNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

type fakeAssets struct {
	mu         sync.Mutex
	uploads    []string
	destroyed  []string
	uploadErr  error
	destroyErr error
}

func (f *fakeAssets) Upload(_ context.Context, name string, data []byte) (asset.Uploaded, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return asset.Uploaded{}, f.uploadErr
	}
	id := fmt.Sprintf("images/%s/%d", name, len(f.uploads))
	f.uploads = append(f.uploads, string(data))
	return asset.Uploaded{AssetID: id, URL: "https://cdn/" + id}, nil
}

func (f *fakeAssets) ThumbnailURL(assetID string, crop asset.Crop) string {
	return "https://cdn/" + crop.Transformation() + "/" + assetID
}

func (f *fakeAssets) Destroy(_ context.Context, assetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.destroyErr != nil {
		return f.destroyErr
	}
	f.destroyed = append(f.destroyed, assetID)
	return nil
}

type fakeProfiles map[string]string

func (p fakeProfiles) DisplayName(_ context.Context, userID string) (string, error) {
	name, ok := p[userID]
	if !ok {
		return "", errors.New("no such user")
	}
	return name, nil
}

// failingEvents breaks every listing.
type failingEvents struct {
	store.Events
}

func (failingEvents) FindEvents(context.Context, store.EventFilter) ([]models.EventModel, error) {
	return nil, errors.New("connection refused")
}

// failingRemoveImages breaks image deletion.
type failingRemoveImages struct {
	store.Images
}

func (failingRemoveImages) RemoveImage(context.Context, string) error {
	return errors.New("connection refused")
}

type fixture struct {
	store     *memory.Store
	assets    *fakeAssets
	published *events.Recorder
	deps      Deps
	d         *Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.New().WithClock(func() time.Time { return testNow }),
		assets:    &fakeAssets{},
		published: &events.Recorder{},
	}
	f.deps = Deps{
		Profiles:  fakeProfiles{"alice": "Alice"},
		Publisher: f.published,
		Log:       logging.Discard(),
		Location:  time.UTC,
		Now:       func() time.Time { return testNow },
	}
	f.d = NewDispatcher(Options{Log: logging.Discard(), MaxArgLen: 200},
		NewScheduleDomain(f.store, f.deps),
		NewSeminarDomain(f.store, f.deps),
		NewWorkshopDomain(f.store, f.deps),
		NewImageDomain(f.store, f.assets, f.deps),
	)
	return f
}

func (f *fixture) send(scope models.Scope, text string) []template.Message {
	return f.d.Handle(context.Background(), chat.Event{Source: scope, Kind: chat.EventText, Text: text})
}

func (f *fixture) upload(scope models.Scope, data string) []template.Message {
	return f.d.Handle(context.Background(), chat.Event{
		Source: scope,
		Kind:   chat.EventImage,
		Content: func(context.Context) ([]byte, error) {
			return []byte(data), nil
		},
	})
}

func (f *fixture) addEvent(t *testing.T, scope models.Scope, kind models.Kind, name string, date time.Time) *models.EventModel {
	t.Helper()
	e := &models.EventModel{Name: name, Kind: kind, Date: date, Owner: models.OwnerFor(scope)}
	require.NoError(t, f.store.CreateEvent(context.Background(), e))
	return e
}

func carousel(t *testing.T, msgs []template.Message) template.Carousel {
	t.Helper()
	require.NotEmpty(t, msgs)
	c, ok := msgs[0].(template.Carousel)
	require.True(t, ok, "want carousel, got %T", msgs[0])
	return c
}

func texts(msgs []template.Message) []string {
	var out []string
	for _, m := range msgs {
		if tx, ok := m.(template.Text); ok {
			out = append(out, tx.Text)
		}
	}
	return out
}

func newQueue() *flash.Queue {
	return flash.New()
}
