package webserver

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/nantokaworks/betboard/internal/shared/logger"
	"go.uber.org/zap"
)

// announcementFrame is one channel message pushed over the hub. The ref
// identifies the message so clients can update or remove it later.
type announcementFrame struct {
	Ref     string `json:"ref"`
	EventID int64  `json:"event_id"`
	Text    string `json:"text"`
}

type retractionFrame struct {
	Refs []string `json:"refs"`
}

// publishAnnouncement broadcasts a new channel message and records its
// ref against the event for later retraction. Runs strictly after the
// state mutation has succeeded; a publish or record failure is logged
// and never rolls anything back.
func publishAnnouncement(msgType string, eventID int64, text string) string {
	ref, err := gonanoid.New()
	if err != nil {
		logger.Error("Failed to generate announcement ref", zap.Error(err))
		return ""
	}

	BroadcastWSMessage(msgType, announcementFrame{
		Ref:     ref,
		EventID: eventID,
		Text:    text,
	})

	if err := store.RecordAnnouncement(eventID, ref); err != nil {
		logger.Warn("Failed to record announcement ref",
			zap.Int64("event_id", eventID),
			zap.String("ref", ref),
			zap.Error(err))
	}
	return ref
}

// publishEdit re-broadcasts an existing message (identified by ref) with
// fresh content, e.g. the live tally board after a new bet. No new ref
// is minted.
func publishEdit(msgType string, eventID int64, ref, text string) {
	BroadcastWSMessage(msgType, announcementFrame{
		Ref:     ref,
		EventID: eventID,
		Text:    text,
	})
}

// publishRetraction tells clients to drop the listed messages. Best
// effort: the event is already gone either way.
func publishRetraction(refs []string) {
	if len(refs) == 0 {
		return
	}
	BroadcastWSMessage("announcement_retracted", retractionFrame{Refs: refs})
}
