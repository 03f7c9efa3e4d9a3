package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule_bot/internal/chat"
	"schedule_bot/internal/events"
	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
	"schedule_bot/internal/template"
)

func images(t *testing.T, f *fixture, scope models.Scope, state store.AssetState) []models.ImageModel {
	t.Helper()
	list, err := f.store.FindImages(context.Background(), store.ImageFilter{Scope: scope, State: state})
	require.NoError(t, err)
	return list
}

func TestImageAdd_ThenUpload(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, []string{"Please upload your image immediately."}, texts(f.send(alice, `!image_add "Cat Picture"`)))

	pending := images(t, f, alice, store.PendingAsset)
	require.Len(t, pending, 1)
	assert.Equal(t, models.Pending{}, pending[0].Asset)

	msgs := f.upload(alice, "jpeg bytes")
	assert.Equal(t, []string{"Image uploaded!"}, texts(msgs))
	c := carousel(t, msgs)
	require.Len(t, c.Columns, 2)
	assert.Equal(t, "[1] cat picture", c.Columns[1].Title)
	assert.Equal(t, "https://cdn/ar_1:1,g_face,c_fill/images/cat picture/0", c.Columns[1].ThumbnailURL)

	assert.Empty(t, images(t, f, alice, store.PendingAsset))
	done := images(t, f, alice, store.FulfilledAsset)
	require.Len(t, done, 1)
	fulfilled, ok := done[0].Fulfilled()
	require.True(t, ok)
	assert.Equal(t, "images/cat picture/0", fulfilled.AssetID)
	assert.Equal(t, "https://cdn/images/cat picture/0", fulfilled.URL)
	assert.Equal(t, []string{"jpeg bytes"}, f.assets.uploads)
	assert.Equal(t, []string{events.TopicImageCreated, events.TopicImageUploaded}, f.published.Topics())
}

func TestImageUpload_OldestPendingFirst(t *testing.T) {
	f := newFixture(t)
	dom := NewImageDomain(f.store, f.assets, f.deps)
	for _, name := range []string{"first", "second"} {
		require.NoError(t, f.store.CreateImage(context.Background(), &models.ImageModel{Name: name, Owner: models.OwnerFor(alice)}))
	}

	msgs := dom.Upload(context.Background(), Request{Source: alice, Flash: newQueue()}, func(context.Context) ([]byte, error) {
		return []byte("x"), nil
	})
	carousel(t, msgs)

	pending := images(t, f, alice, store.PendingAsset)
	require.Len(t, pending, 1)
	assert.Equal(t, "second", pending[0].Name)
	done := images(t, f, alice, store.FulfilledAsset)
	require.Len(t, done, 1)
	assert.Equal(t, "first", done[0].Name)
}

func TestImageUpload_WithoutPendingIgnored(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.upload(alice, "x"))
	assert.Empty(t, f.assets.uploads)
}

func TestImageUpload_OtherScopeUntouched(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)

	assert.Empty(t, f.upload(models.PersonalScope("bob"), "x"))
	assert.Len(t, images(t, f, alice, store.PendingAsset), 1)
}

func TestImageUpload_FailureKeepsPending(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)
	f.assets.uploadErr = errors.New("quota exceeded")

	assert.Equal(t, []string{failedText}, texts(f.upload(alice, "x")))

	pending := images(t, f, alice, store.PendingAsset)
	require.Len(t, pending, 1)
	assert.Equal(t, models.Pending{}, pending[0].Asset)
	assert.Empty(t, images(t, f, alice, store.FulfilledAsset))
}

func TestNewCommand_CancelsPendingUploads(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add one`)
	require.NoError(t, f.store.CreateImage(context.Background(), &models.ImageModel{Name: "two", Owner: models.OwnerFor(alice)}))

	msgs := f.send(alice, "!seminar_view")
	carousel(t, msgs)
	assert.Equal(t, []string{cancelledText}, texts(msgs))
	assert.Empty(t, images(t, f, alice, store.AnyAsset))

	// nothing left to cancel
	assert.Empty(t, texts(f.send(alice, "!seminar_view")))
}

func TestCancel_AppliesToNonCommandText(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add one`)

	assert.Equal(t, []string{cancelledText}, texts(f.send(alice, "just chatting")))
	assert.Empty(t, images(t, f, alice, store.PendingAsset))
}

func TestImageView_OnlyFulfilledSortedByName(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"zebra", "apple"} {
		f.send(alice, `!image_add `+name)
		f.upload(alice, name)
	}
	f.send(alice, `!image_add pending`)

	msgs := f.send(alice, "!image_view")
	c := carousel(t, msgs)
	require.Len(t, c.Columns, 3)
	assert.Equal(t, PlaceholderURL, c.Columns[0].ThumbnailURL)
	assert.Equal(t, "Choose an action", c.Columns[0].Text)
	assert.Equal(t, "[1] apple", c.Columns[1].Title)
	assert.Equal(t, "[2] zebra", c.Columns[2].Title)
	assert.Len(t, c.Columns[1].Actions, 2)
}

func TestImageDetail(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)
	f.upload(alice, "x")
	m := images(t, f, alice, store.FulfilledAsset)[0]

	msgs := f.send(alice, "!image_detail "+m.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, template.Image{OriginalURL: "https://cdn/images/cat/0", PreviewURL: "https://cdn/images/cat/0"}, msgs[0])
	assert.Equal(t, "[Image Detail]\nName: cat\nCreated By: Alice\nCreated At: 05 March 2024", msgs[1].(template.Text).Text)
}

func TestImageDelete_TwoPhaseDestroysAsset(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)
	f.upload(alice, "x")
	m := images(t, f, alice, store.FulfilledAsset)[0]

	msgs := f.send(alice, "!image_delete_confirm "+m.ID)
	require.Len(t, msgs, 1)
	confirm := msgs[0].(template.Confirm)
	assert.Equal(t, "Delete cat?", confirm.Text)
	assert.Equal(t, "!image_view", confirm.No.Payload)
	assert.Empty(t, f.assets.destroyed)
	assert.Len(t, images(t, f, alice, store.FulfilledAsset), 1)

	msgs = f.send(alice, confirm.Yes.Payload)
	assert.Equal(t, []string{"Image deleted successfully!"}, texts(msgs))
	assert.Equal(t, []string{"images/cat/0"}, f.assets.destroyed)
	assert.Empty(t, images(t, f, alice, store.AnyAsset))

	assert.Equal(t, []string{"Image not found!"}, texts(f.send(alice, confirm.Yes.Payload)))
}

func TestImageDelete_StoreFailureKeepsAsset(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)
	f.upload(alice, "x")
	m := images(t, f, alice, store.FulfilledAsset)[0]

	d := NewDispatcher(Options{Log: f.deps.Log}, NewImageDomain(failingRemoveImages{f.store}, f.assets, f.deps))
	msgs := d.Handle(context.Background(), chat.Event{Source: alice, Kind: chat.EventText, Text: "!image_delete " + m.ID})

	assert.Equal(t, []string{failedText}, texts(msgs))
	assert.Empty(t, f.assets.destroyed)
	assert.Len(t, images(t, f, alice, store.FulfilledAsset), 1)
}

func TestImageDelete_DestroyFailureStillRemovesRecord(t *testing.T) {
	f := newFixture(t)
	f.send(alice, `!image_add cat`)
	f.upload(alice, "x")
	m := images(t, f, alice, store.FulfilledAsset)[0]
	f.assets.destroyErr = errors.New("bucket unreachable")

	msgs := f.send(alice, "!image_delete "+m.ID)
	assert.Equal(t, []string{"Image deleted successfully!"}, texts(msgs))
	assert.Empty(t, images(t, f, alice, store.AnyAsset))
	assert.Equal(t, []string{events.TopicImageCreated, events.TopicImageUploaded, events.TopicImageDeleted}, f.published.Topics())
}

func TestImageAddTemplate(t *testing.T) {
	f := newFixture(t)
	got := texts(f.send(alice, "!image_add_template"))
	require.Len(t, got, 2)
	assert.Equal(t, `!image_add "image name"`, got[1])
}

func TestImageView_Pagination(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		f.store.WithClock(func() time.Time { return base.Add(time.Duration(i) * time.Minute) })
		require.NoError(t, f.store.CreateImage(context.Background(), &models.ImageModel{
			Name:  "same",
			Owner: models.OwnerFor(alice),
			Asset: models.Fulfilled{AssetID: "a", URL: "u", ThumbnailURL: "t"},
		}))
	}
	c := carousel(t, f.send(alice, "!image_view 1"))
	require.Len(t, c.Columns, 1+3)
	assert.Equal(t, []template.Action{
		template.Postback("<<<", "!image_view 0"),
		template.Postback("Previous", "!image_view 0"),
	}, c.Columns[1].Actions)
	assert.Equal(t, "[9] same", c.Columns[2].Title)
}
