package affect

import "continuum/internal/domain"

// SpeakerWindow is a run of adjacent messages from the same speaker.
type SpeakerWindow struct {
	Speaker  domain.Speaker
	Messages []domain.Message
}

// CoalesceSpeakerWindows groups adjacent messages from the same speaker,
// per spec.md §4.3's "adjacent messages from the same speaker coalesced"
// rule, skipping separators entirely since they carry no affect.
func CoalesceSpeakerWindows(messages []domain.Message) []SpeakerWindow {
	var windows []SpeakerWindow
	for _, m := range messages {
		if m.IsSeparator() {
			continue
		}
		if n := len(windows); n > 0 && windows[n-1].Speaker == m.Speaker {
			windows[n-1].Messages = append(windows[n-1].Messages, m)
			continue
		}
		windows = append(windows, SpeakerWindow{Speaker: m.Speaker, Messages: []domain.Message{m}})
	}
	return windows
}
