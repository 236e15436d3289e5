package watcher

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"continuum/internal/domain"
)

// ParseLine decodes one line-delimited JSON log record into a normalized
// Message, per spec.md §6's input log format: a mandatory textual content
// field, with role/timestamp/uuid recognized if present and everything
// else preserved verbatim in Raw but otherwise ignored.
func ParseLine(sessionID string, seq uint64, line []byte) (domain.Message, error) {
	if !gjson.ValidBytes(line) {
		return domain.Message{}, fmt.Errorf("watcher: invalid JSON")
	}
	root := gjson.ParseBytes(line)

	content := root.Get("content")
	if !content.Exists() || content.Type != gjson.String {
		return domain.Message{}, fmt.Errorf("watcher: missing required content field")
	}

	speaker := domain.SpeakerUser
	switch root.Get("role").String() {
	case "assistant":
		speaker = domain.SpeakerAssistant
	case "system":
		speaker = domain.SpeakerSystem
	case "", "user":
		speaker = domain.SpeakerUser
	}

	ts := time.Now().UTC()
	if raw := root.Get("timestamp"); raw.Exists() {
		if parsed, err := time.Parse(time.RFC3339, raw.String()); err == nil {
			ts = parsed.UTC()
		}
	}

	id := root.Get("uuid").String()
	if id == "" {
		id = domain.DeriveMessageID(sessionID, line)
	}

	return domain.Message{
		ID:        id,
		SessionID: sessionID,
		Seq:       seq,
		Timestamp: ts,
		Speaker:   speaker,
		Content:   content.String(),
		Raw:       append([]byte(nil), line...),
	}, nil
}
