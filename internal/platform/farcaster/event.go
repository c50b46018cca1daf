package farcaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yungbote/apl-daily-backend/internal/domain"
)

type EventType string

const (
	EventFrameAdded            EventType = "frame_added"
	EventFrameRemoved          EventType = "frame_removed"
	EventNotificationsEnabled  EventType = "notifications_enabled"
	EventNotificationsDisabled EventType = "notifications_disabled"
)

// Mini App clients send the renamed variants of the add/remove events.
var eventAliases = map[EventType]EventType{
	"miniapp_added":   EventFrameAdded,
	"miniapp_removed": EventFrameRemoved,
}

type Event struct {
	Event               EventType            `json:"event"`
	NotificationDetails *domain.Subscription `json:"notificationDetails,omitempty"`
}

// WebhookEvent is a verified event attributed to FID.
type WebhookEvent struct {
	FID   int64
	Event Event
}

// ParseWebhookEvent verifies the signed body, checks the app key belongs to
// the signing fid and decodes the event. verifier may be nil to skip the
// ownership check.
func ParseWebhookEvent(ctx context.Context, body []byte, verifier AppKeyVerifier) (*WebhookEvent, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, invalidData("body is not a signed envelope")
	}
	v, err := VerifyEnvelope(env)
	if err != nil {
		return nil, err
	}

	if verifier != nil {
		ok, err := verifier.VerifyAppKey(ctx, v.Header.FID, v.AppKey)
		if err != nil {
			if errors.Is(err, ErrVerifyAppKey) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrVerifyAppKey, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: key not registered for fid %d", ErrInvalidAppKey, v.Header.FID)
		}
	}

	ev, err := decodeEvent(v.Payload)
	if err != nil {
		return nil, err
	}
	return &WebhookEvent{FID: v.Header.FID, Event: ev}, nil
}

func decodeEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, invalidEvent("payload is not json")
	}
	if alias, ok := eventAliases[ev.Event]; ok {
		ev.Event = alias
	}
	switch ev.Event {
	case EventFrameAdded, EventNotificationsEnabled:
		if ev.NotificationDetails != nil && !ev.NotificationDetails.Valid() {
			return Event{}, invalidEvent("notificationDetails requires url and token")
		}
	case EventFrameRemoved, EventNotificationsDisabled:
	default:
		return Event{}, invalidEvent("unknown event %q", ev.Event)
	}
	if ev.Event == EventNotificationsEnabled && ev.NotificationDetails == nil {
		return Event{}, invalidEvent("notifications_enabled without notificationDetails")
	}
	return ev, nil
}
