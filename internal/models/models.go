package models

import "time"

type Kind string

const (
	KindSchedule Kind = "schedule"
	KindSeminar  Kind = "seminar"
	KindWorkshop Kind = "workshop"
)

type ScopeKind string

const (
	ScopePersonal ScopeKind = "user"
	ScopeGroup    ScopeKind = "group"
)

// Scope is the visibility boundary of a chat event: one user, or one group
// shared by all of its members. UserID is always the acting user.
type Scope struct {
	Kind    ScopeKind
	UserID  string
	GroupID string
}

func PersonalScope(userID string) Scope {
	return Scope{Kind: ScopePersonal, UserID: userID}
}

func GroupScope(groupID, userID string) Scope {
	return Scope{Kind: ScopeGroup, UserID: userID, GroupID: groupID}
}

// Key identifies the scope for locking and logging.
func (s Scope) Key() string {
	if s.Kind == ScopeGroup {
		return "group:" + s.GroupID
	}
	return "user:" + s.UserID
}

// Owner is the ownership triple stored on every record.
type Owner struct {
	CreatedBy string
	GroupID   string
	Scope     ScopeKind
}

func OwnerFor(s Scope) Owner {
	o := Owner{CreatedBy: s.UserID, Scope: s.Kind}
	if s.Kind == ScopeGroup {
		o.GroupID = s.GroupID
	}
	return o
}

func (o Owner) VisibleTo(s Scope) bool {
	if o.Scope != s.Kind {
		return false
	}
	if s.Kind == ScopeGroup {
		return o.GroupID == s.GroupID
	}
	return o.CreatedBy == s.UserID
}

type EventModel struct {
	ID   string
	Name string
	Date time.Time
	Kind Kind
	Owner
	CreatedAt time.Time
}

// Asset is the upload state of an image: Pending or Fulfilled.
type Asset interface {
	isAsset()
}

type Pending struct{}

type Fulfilled struct {
	AssetID      string
	URL          string
	ThumbnailURL string
}

func (Pending) isAsset()   {}
func (Fulfilled) isAsset() {}

type ImageModel struct {
	ID    string
	Name  string
	Asset Asset
	Owner
	CreatedAt time.Time
}

// Fulfilled returns the uploaded asset; a nil Asset counts as pending.
func (m ImageModel) Fulfilled() (Fulfilled, bool) {
	f, ok := m.Asset.(Fulfilled)
	return f, ok
}

func (m ImageModel) IsPending() bool {
	_, ok := m.Fulfilled()
	return !ok
}
