package domain

import (
	"reflect"
	"slices"
	"time"

	"github.com/aussiebroadwan/tenancy/pkg/idx"
)

// EntityRecord is the persisted identity and audit state of an entity.
type EntityRecord struct {
	ID        idx.ID
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
}

// Entity is the tracked base: an identifier plus creation, update and
// soft-delete timestamps.
type Entity struct {
	id        idx.ID
	createdAt time.Time
	updatedAt *time.Time
	deletedAt *time.Time

	opts options
}

func newEntity(o options) Entity {
	return Entity{id: o.newID(), createdAt: o.now(), opts: o}
}

func restoreEntity(r EntityRecord, o options) Entity {
	return Entity{
		id:        r.ID,
		createdAt: r.CreatedAt,
		updatedAt: copyTime(r.UpdatedAt),
		deletedAt: copyTime(r.DeletedAt),
		opts:      o,
	}
}

func (e *Entity) ID() idx.ID            { return e.id }
func (e *Entity) CreatedAt() time.Time  { return e.createdAt }
func (e *Entity) UpdatedAt() *time.Time { return copyTime(e.updatedAt) }
func (e *Entity) DeletedAt() *time.Time { return copyTime(e.deletedAt) }
func (e *Entity) IsDeleted() bool       { return e.deletedAt != nil }

// Record snapshots the identity and audit fields for persistence.
func (e *Entity) Record() EntityRecord {
	return EntityRecord{
		ID:        e.id,
		CreatedAt: e.createdAt,
		UpdatedAt: copyTime(e.updatedAt),
		DeletedAt: copyTime(e.deletedAt),
	}
}

// Touch stamps UpdatedAt with the current time.
func (e *Entity) Touch() {
	t := e.opts.now()
	e.updatedAt = &t
}

// SoftDelete stamps DeletedAt. Calling it again overwrites the timestamp.
func (e *Entity) SoftDelete() {
	t := e.opts.now()
	e.deletedAt = &t
}

func (e *Entity) now() time.Time { return e.opts.now() }

func (e *Entity) eventMeta() EventMeta {
	return EventMeta{ID: e.opts.newID(), At: e.opts.now()}
}

// EventEntity is an Entity that buffers the events it raises until the
// dispatch layer drains them after commit.
type EventEntity struct {
	Entity

	events []Event
}

// RaiseEvent appends e to the pending buffer.
func (e *EventEntity) RaiseEvent(ev Event) {
	e.events = append(e.events, ev)
}

// Events returns the pending events in the order they were raised.
func (e *EventEntity) Events() []Event {
	return slices.Clone(e.events)
}

// ClearEvents empties the pending buffer.
func (e *EventEntity) ClearEvents() {
	e.events = nil
}

// Identified is anything with an entity identifier.
type Identified interface {
	ID() idx.ID
}

// SameEntity reports whether a and b are the same entity: same concrete type
// and same identifier. Nil never equals anything.
func SameEntity(a, b Identified) bool {
	if isNil(a) || isNil(b) {
		return false
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	return a.ID() == b.ID()
}

func isNil(v Identified) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
