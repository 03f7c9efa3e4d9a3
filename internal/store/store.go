// Package store defines the record store used by the command handlers.
// Implementations live in the memory, postgres and mongo subpackages.
package store

import (
	"context"
	"errors"

	"schedule_bot/internal/models"
)

var ErrNotFound = errors.New("record not found")

// EventFilter selects events visible to Scope. An empty Kind matches all kinds.
type EventFilter struct {
	Scope models.Scope
	Kind  models.Kind
}

func (f EventFilter) Match(e *models.EventModel) bool {
	return e.VisibleTo(f.Scope) && (f.Kind == "" || e.Kind == f.Kind)
}

type AssetState int

const (
	AnyAsset AssetState = iota
	PendingAsset
	FulfilledAsset
)

// ImageFilter selects images visible to Scope in the given upload state.
type ImageFilter struct {
	Scope models.Scope
	State AssetState
}

func (f ImageFilter) Match(m *models.ImageModel) bool {
	if !m.VisibleTo(f.Scope) {
		return false
	}
	switch f.State {
	case PendingAsset:
		return m.IsPending()
	case FulfilledAsset:
		return !m.IsPending()
	}
	return true
}

// Events stores EventModel records. Find results are ordered by creation
// time, oldest first. Get, Save and Remove return ErrNotFound for unknown ids.
type Events interface {
	FindEvents(ctx context.Context, f EventFilter) ([]models.EventModel, error)
	GetEvent(ctx context.Context, id string) (*models.EventModel, error)
	// CreateEvent assigns ID and CreatedAt.
	CreateEvent(ctx context.Context, e *models.EventModel) error
	SaveEvent(ctx context.Context, e *models.EventModel) error
	RemoveEvent(ctx context.Context, id string) error
}

// Images stores ImageModel records with the same contract as Events.
type Images interface {
	FindImages(ctx context.Context, f ImageFilter) ([]models.ImageModel, error)
	GetImage(ctx context.Context, id string) (*models.ImageModel, error)
	CreateImage(ctx context.Context, m *models.ImageModel) error
	SaveImage(ctx context.Context, m *models.ImageModel) error
	RemoveImage(ctx context.Context, id string) error
}

type Store interface {
	Events
	Images
	Close(ctx context.Context) error
}
