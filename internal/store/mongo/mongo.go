// Package mongo stores events and images as documents in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"schedule_bot/internal/idgen"
	"schedule_bot/internal/models"
	"schedule_bot/internal/store"
)

type Store struct {
	client *mongo.Client
	events *mongo.Collection
	images *mongo.Collection
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, creates the indexes and returns a store over database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func New(db *mongo.Database) *Store {
	return &Store{
		events: db.Collection("events"),
		images: db.Collection("images"),
		now:    time.Now,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	owner := []mongo.IndexModel{
		{Keys: bson.D{{Key: "scope", Value: 1}, {Key: "group_id", Value: 1}, {Key: "created_by", Value: 1}, {Key: "created_at", Value: 1}}},
	}
	if _, err := s.events.Indexes().CreateMany(ctx, owner); err != nil {
		return fmt.Errorf("create events indexes: %w", err)
	}
	if _, err := s.images.Indexes().CreateMany(ctx, owner); err != nil {
		return fmt.Errorf("create images indexes: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

type eventDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Date      time.Time `bson:"date"`
	Kind      string    `bson:"kind"`
	CreatedBy string    `bson:"created_by"`
	GroupID   *string   `bson:"group_id"`
	Scope     string    `bson:"scope"`
	CreatedAt time.Time `bson:"created_at"`
}

// imageDoc keeps the three asset fields all null or all set.
type imageDoc struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	AssetID      *string   `bson:"asset_id"`
	AssetURL     *string   `bson:"asset_url"`
	ThumbnailURL *string   `bson:"thumbnail_url"`
	CreatedBy    string    `bson:"created_by"`
	GroupID      *string   `bson:"group_id"`
	Scope        string    `bson:"scope"`
	CreatedAt    time.Time `bson:"created_at"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func toEventDoc(e *models.EventModel) eventDoc {
	return eventDoc{
		ID:        e.ID,
		Name:      e.Name,
		Date:      e.Date,
		Kind:      string(e.Kind),
		CreatedBy: e.CreatedBy,
		GroupID:   optional(e.GroupID),
		Scope:     string(e.Scope),
		CreatedAt: e.CreatedAt,
	}
}

func (d eventDoc) model() models.EventModel {
	return models.EventModel{
		ID:   d.ID,
		Name: d.Name,
		Date: d.Date,
		Kind: models.Kind(d.Kind),
		Owner: models.Owner{
			CreatedBy: d.CreatedBy,
			GroupID:   deref(d.GroupID),
			Scope:     models.ScopeKind(d.Scope),
		},
		CreatedAt: d.CreatedAt,
	}
}

func toImageDoc(m *models.ImageModel) imageDoc {
	d := imageDoc{
		ID:        m.ID,
		Name:      m.Name,
		CreatedBy: m.CreatedBy,
		GroupID:   optional(m.GroupID),
		Scope:     string(m.Scope),
		CreatedAt: m.CreatedAt,
	}
	if f, ok := m.Fulfilled(); ok {
		d.AssetID = &f.AssetID
		d.AssetURL = &f.URL
		d.ThumbnailURL = &f.ThumbnailURL
	}
	return d
}

func (d imageDoc) model() models.ImageModel {
	m := models.ImageModel{
		ID:   d.ID,
		Name: d.Name,
		Owner: models.Owner{
			CreatedBy: d.CreatedBy,
			GroupID:   deref(d.GroupID),
			Scope:     models.ScopeKind(d.Scope),
		},
		CreatedAt: d.CreatedAt,
		Asset:     models.Pending{},
	}
	if d.AssetID != nil {
		m.Asset = models.Fulfilled{AssetID: *d.AssetID, URL: deref(d.AssetURL), ThumbnailURL: deref(d.ThumbnailURL)}
	}
	return m
}

func ownerFilter(scope models.Scope) bson.M {
	if scope.Kind == models.ScopeGroup {
		return bson.M{"scope": string(scope.Kind), "group_id": scope.GroupID}
	}
	return bson.M{"scope": string(scope.Kind), "created_by": scope.UserID}
}

var byCreation = options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

func (s *Store) FindEvents(ctx context.Context, f store.EventFilter) ([]models.EventModel, error) {
	filter := ownerFilter(f.Scope)
	if f.Kind != "" {
		filter["kind"] = string(f.Kind)
	}
	cur, err := s.events.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []eventDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	out := make([]models.EventModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (*models.EventModel, error) {
	var d eventDoc
	err := s.events.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	e := d.model()
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.EventModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	d := toEventDoc(e)
	d.ID = id
	d.CreatedAt = s.now().UTC()
	if _, err := s.events.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID = d.ID
	e.CreatedAt = d.CreatedAt
	return nil
}

func (s *Store) SaveEvent(ctx context.Context, e *models.EventModel) error {
	update := bson.M{"$set": bson.M{"name": e.Name, "date": e.Date, "kind": string(e.Kind)}}
	res, err := s.events.UpdateByID(ctx, e.ID, update)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveEvent(ctx context.Context, id string) error {
	return remove(ctx, s.events, id)
}

func (s *Store) FindImages(ctx context.Context, f store.ImageFilter) ([]models.ImageModel, error) {
	filter := ownerFilter(f.Scope)
	switch f.State {
	case store.PendingAsset:
		filter["asset_id"] = nil
	case store.FulfilledAsset:
		filter["asset_id"] = bson.M{"$ne": nil}
	}
	cur, err := s.images.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, fmt.Errorf("find images: %w", err)
	}
	defer cur.Close(ctx)

	var docs []imageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode images: %w", err)
	}
	out := make([]models.ImageModel, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.model())
	}
	return out, nil
}

func (s *Store) GetImage(ctx context.Context, id string) (*models.ImageModel, error) {
	var d imageDoc
	err := s.images.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	m := d.model()
	return &m, nil
}

func (s *Store) CreateImage(ctx context.Context, m *models.ImageModel) error {
	id, err := idgen.Generate()
	if err != nil {
		return err
	}
	d := toImageDoc(m)
	d.ID = id
	d.CreatedAt = s.now().UTC()
	if _, err := s.images.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	*m = d.model()
	return nil
}

func (s *Store) SaveImage(ctx context.Context, m *models.ImageModel) error {
	d := toImageDoc(m)
	update := bson.M{"$set": bson.M{
		"name":          d.Name,
		"asset_id":      d.AssetID,
		"asset_url":     d.AssetURL,
		"thumbnail_url": d.ThumbnailURL,
	}}
	res, err := s.images.UpdateByID(ctx, m.ID, update)
	if err != nil {
		return fmt.Errorf("update image: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveImage(ctx context.Context, id string) error {
	return remove(ctx, s.images, id)
}

func remove(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", coll.Name(), err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
