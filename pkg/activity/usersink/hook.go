package usersink

import (
	"context"
	"time"

	"github.com/goliatone/go-signdesk/pkg/activity"
	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Channel tags every record forwarded to go-users.
const Channel = "signdesk"

// Hook forwards store events into a go-users ActivitySink so the signing
// dashboard shows up in the user activity feed next to the local audit trail.
type Hook struct {
	Sink types.ActivitySink
}

// Notify maps the activity event into a types.ActivityRecord and forwards it.
func (h Hook) Notify(ctx context.Context, evt activity.Event) {
	if h.Sink == nil {
		return
	}
	record := types.ActivityRecord{
		ID:         uuid.New(),
		ActorID:    parseUUID(evt.ActorID),
		Verb:       evt.Verb,
		ObjectType: evt.ObjectType,
		ObjectID:   evt.ObjectID,
		Channel:    Channel,
		Data:       buildData(evt),
		OccurredAt: evt.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	_ = h.Sink.Log(ctx, record)
}

func buildData(evt activity.Event) map[string]any {
	data := activity.CloneMetadata(evt.Metadata)
	if data == nil {
		data = make(map[string]any)
	}
	data["result"] = evt.Result
	if evt.Reason != "" {
		data["reason"] = evt.Reason
	}
	// Local sessions use a plain name rather than a uuid.
	if _, err := uuid.Parse(evt.ActorID); err != nil && evt.ActorID != "" {
		data["actor"] = evt.ActorID
	}
	return data
}

func parseUUID(raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
