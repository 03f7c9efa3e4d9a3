package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule_bot/internal/models"
)

func TestPublishers_ImplementPublisher(t *testing.T) {
	var _ Publisher = (*NoopPublisher)(nil)
	var _ Publisher = (*NATSPublisher)(nil)
	var _ Publisher = (*Recorder)(nil)
}

func TestNoopPublisher(t *testing.T) {
	pub := &NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), TopicEventCreated, Event{}))
	assert.NoError(t, pub.Close())
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), TopicImageCreated, Deleted{ID: "a"}))
	require.NoError(t, r.Publish(context.Background(), TopicImageDeleted, Deleted{ID: "b"}))

	assert.Equal(t, []string{TopicImageCreated, TopicImageDeleted}, r.Topics())
	assert.Equal(t, Deleted{ID: "b"}, r.Events()[1].Event)
}

func TestEventOf_JSON(t *testing.T) {
	e := &models.EventModel{
		ID:    "e1",
		Name:  "go meetup",
		Kind:  models.KindSeminar,
		Date:  time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		Owner: models.OwnerFor(models.PersonalScope("u1")),
	}
	data, err := json.Marshal(EventOf(e))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"e1","name":"go meetup","kind":"seminar","date":"2024-03-05T14:30:00Z","created_by":"u1","scope":"user"}`, string(data))
}

func TestImageOf(t *testing.T) {
	m := &models.ImageModel{ID: "i1", Name: "cat", Owner: models.OwnerFor(models.GroupScope("g1", "u1"))}
	assert.Empty(t, ImageOf(m).URL)

	m.Asset = models.Fulfilled{AssetID: "k", URL: "https://a/k", ThumbnailURL: "https://t/k"}
	img := ImageOf(m)
	assert.Equal(t, "https://a/k", img.URL)
	assert.Equal(t, "g1", img.GroupID)
}
