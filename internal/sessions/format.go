package sessions

import (
	"fmt"
	"math"
	"time"

	"gwi.com/venue-assistant/internal/models"
)

const (
	titleLimit   = 30
	previewLimit = 50
	ellipsis     = "..."
	noMessages   = "No messages yet"
	dateLayout   = "Jan 02, 2006"
)

// TitleFor labels a session by its first message.
func TitleFor(session models.ChatSession) string {
	if len(session.Messages) == 0 {
		return fallbackTitle(session)
	}
	text := truncate(session.Messages[0].DisplayText(), titleLimit)
	if text == "" {
		return fallbackTitle(session)
	}
	return text
}

// PreviewFor shows the start of the last message.
func PreviewFor(session models.ChatSession) string {
	if len(session.Messages) == 0 {
		return noMessages
	}
	return truncate(session.Messages[len(session.Messages)-1].DisplayText(), previewLimit)
}

func fallbackTitle(session models.ChatSession) string {
	return fmt.Sprintf("Session %d", session.ID)
}

// truncate cuts text longer than limit characters to limit characters plus an ellipsis.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + ellipsis
}

// RelativeDate describes how long ago ts was in started days, so anything up
// to a full day back is "Yesterday". Timestamps in the future count by distance.
func RelativeDate(ts, now time.Time) string {
	elapsed := now.Sub(ts)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(elapsed.Hours() / 24))
	switch {
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return ts.In(now.Location()).Format(dateLayout)
}
