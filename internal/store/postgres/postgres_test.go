package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
)

var fixedNow = time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	s := New(db)
	s.now = func() time.Time { return fixedNow }
	return s, mock
}

var eventCols = []string{"id", "name", "date", "kind", "created_by", "group_id", "scope", "created_at"}
var imageCols = []string{"id", "name", "asset_id", "asset_url", "thumbnail_url", "created_by", "group_id", "scope", "created_at"}

func TestCreateEvent(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+events\b`).
		WithArgs(sqlmock.AnyArg(), "go meetup", fixedNow, "seminar", "u1", "g1", "group", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &models.EventModel{
		Name:  "go meetup",
		Date:  fixedNow,
		Kind:  models.KindSeminar,
		Owner: models.OwnerFor(models.GroupScope("g1", "u1")),
	}
	require.NoError(t, s.CreateEvent(context.Background(), e))
	assert.Len(t, e.ID, 12)
	assert.Equal(t, fixedNow, e.CreatedAt)
}

func TestCreateEvent_PersonalHasNullGroup(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO events`).
		WithArgs(sqlmock.AnyArg(), "x", fixedNow, "workshop", "u1", nil, "user", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := &models.EventModel{Name: "x", Date: fixedNow, Kind: models.KindWorkshop, Owner: models.OwnerFor(models.PersonalScope("u1"))}
	require.NoError(t, s.CreateEvent(context.Background(), e))
}

func TestFindEvents_GroupAndKind(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(eventCols).
		AddRow("a", "first", fixedNow, "seminar", "u1", "g1", "group", fixedNow).
		AddRow("b", "second", fixedNow, "seminar", "u2", "g1", "group", fixedNow.Add(time.Minute))
	mock.ExpectQuery(`(?s)^SELECT .* FROM events WHERE scope = \$1 AND group_id = \$2 AND kind = \$3 ORDER BY created_at, id$`).
		WithArgs("group", "g1", "seminar").
		WillReturnRows(rows)

	got, err := s.FindEvents(context.Background(), store.EventFilter{Scope: models.GroupScope("g1", "u3"), Kind: models.KindSeminar})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Name)
	assert.Equal(t, models.Owner{CreatedBy: "u2", GroupID: "g1", Scope: models.ScopeGroup}, got[1].Owner)
}

func TestFindEvents_PersonalAnyKind(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`FROM events WHERE scope = \$1 AND created_by = \$2 ORDER BY`).
		WithArgs("user", "u1").
		WillReturnRows(sqlmock.NewRows(eventCols))

	got, err := s.FindEvents(context.Background(), store.EventFilter{Scope: models.PersonalScope("u1")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetEvent_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(`FROM events WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventCols))

	_, err := s.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetEvent_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`FROM events WHERE id = \$1`).WithArgs("a").WillReturnError(boom)

	_, err := s.GetEvent(context.Background(), "a")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestSaveEvent(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE events SET name = \$2, date = \$3, kind = \$4 WHERE id = \$1`).
		WithArgs("a", "renamed", fixedNow, "seminar").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE events`).
		WithArgs("gone", "renamed", fixedNow, "seminar").
		WillReturnResult(sqlmock.NewResult(0, 0))

	e := &models.EventModel{ID: "a", Name: "renamed", Date: fixedNow, Kind: models.KindSeminar}
	require.NoError(t, s.SaveEvent(context.Background(), e))

	e.ID = "gone"
	assert.ErrorIs(t, s.SaveEvent(context.Background(), e), store.ErrNotFound)
}

func TestRemoveEvent(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM events WHERE id = \$1`).WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.RemoveEvent(context.Background(), "a"))
	assert.ErrorIs(t, s.RemoveEvent(context.Background(), "a"), store.ErrNotFound)
}

func TestFindImages_Pending(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(imageCols).
		AddRow("i1", "cat", nil, nil, nil, "u1", nil, "user", fixedNow)
	mock.ExpectQuery(`FROM images WHERE scope = \$1 AND created_by = \$2 AND asset_id IS NULL ORDER BY created_at, id`).
		WithArgs("user", "u1").
		WillReturnRows(rows)

	got, err := s.FindImages(context.Background(), store.ImageFilter{Scope: models.PersonalScope("u1"), State: store.PendingAsset})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsPending())
	assert.Equal(t, models.Pending{}, got[0].Asset)
}

func TestGetImage_Fulfilled(t *testing.T) {
	s, mock := newStoreWithMock(t)

	rows := sqlmock.NewRows(imageCols).
		AddRow("i1", "cat", "k", "https://a/k", "https://t/k", "u1", "g1", "group", fixedNow)
	mock.ExpectQuery(`FROM images WHERE id = \$1`).WithArgs("i1").WillReturnRows(rows)

	got, err := s.GetImage(context.Background(), "i1")
	require.NoError(t, err)
	f, ok := got.Fulfilled()
	require.True(t, ok)
	assert.Equal(t, models.Fulfilled{AssetID: "k", URL: "https://a/k", ThumbnailURL: "https://t/k"}, f)
	assert.Equal(t, "g1", got.GroupID)
}

func TestCreateImage_Pending(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`INSERT INTO images`).
		WithArgs(sqlmock.AnyArg(), "cat", nil, nil, nil, "u1", nil, "user", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &models.ImageModel{Name: "cat", Owner: models.OwnerFor(models.PersonalScope("u1"))}
	require.NoError(t, s.CreateImage(context.Background(), m))
	assert.Equal(t, models.Pending{}, m.Asset)
	assert.NotEmpty(t, m.ID)
}

func TestSaveImage_WritesAllAssetFields(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`UPDATE images SET name = \$2, asset_id = \$3, asset_url = \$4, thumbnail_url = \$5 WHERE id = \$1`).
		WithArgs("i1", "cat", "k", "https://a/k", "https://t/k").
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := &models.ImageModel{ID: "i1", Name: "cat", Asset: models.Fulfilled{AssetID: "k", URL: "https://a/k", ThumbnailURL: "https://t/k"}}
	require.NoError(t, s.SaveImage(context.Background(), m))
}

func TestRemoveImage_DBError(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(`DELETE FROM images`).WithArgs("i1").WillReturnError(sql.ErrConnDone)

	err := s.RemoveImage(context.Background(), "i1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestMigrate_UsesEmbeddedDir(t *testing.T) {
	s, _ := newStoreWithMock(t)

	var gotDir string
	orig := gooseUp
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	t.Cleanup(func() { gooseUp = orig })

	require.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, "migrations", gotDir)

	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}
