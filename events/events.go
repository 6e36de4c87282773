// Package events fans domain events out to websocket subscribers and Kafka.
package events

import (
	"context"
	"errors"
	"time"
)

const (
	ActivityCreated = "activity.created"
	ActivityUpdated = "activity.updated"
	ActivityDeleted = "activity.deleted"
	ActivityJoined  = "activity.joined"
	ActivityLeft    = "activity.left"
	ActivityInvited = "activity.invited"

	PointsAdded       = "points.added"
	PointsDonated     = "points.donated"
	PointsTransferred = "points.transferred"
	PointsConverted   = "points.converted"

	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	UserDeleted    = "user.deleted"
)

type Event struct {
	Type string      `json:"type"`
	Key  string      `json:"key"`
	Data interface{} `json:"data"`
	At   time.Time   `json:"at"`
}

// New stamps an event with the current time.
func New(typ, key string, data interface{}) Event {
	return Event{Type: typ, Key: key, Data: data, At: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
