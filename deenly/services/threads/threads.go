// Package threads derives conversation threads from a flat message log.
//
// Threads are never stored. They are recomputed from message timestamps on
// every call: a new thread starts whenever two consecutive messages are more
// than Gap apart.
package threads

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const (
	// Gap is the inactivity window that separates two threads.
	Gap = 2 * time.Hour

	TitleLength   = 40
	FallbackTitle = "Conversación"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrThreadNotFound = errors.New("thread not found")

type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Starred   bool      `json:"starred"`
}

type Thread struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	StartTimestamp time.Time `json:"start_timestamp"`
	MessageCount   int       `json:"message_count"`
	Starred        bool      `json:"starred"`
}

// Segment splits messages (ascending by timestamp) into threads and returns
// them newest first.
func Segment(messages []Message) []Thread {
	if len(messages) == 0 {
		return []Thread{}
	}
	var out []Thread
	start := 0
	for i := 1; i < len(messages); i++ {
		if breaksAt(messages, i) {
			out = append(out, summarize(messages[start:i]))
			start = i
		}
	}
	out = append(out, summarize(messages[start:]))

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RangeOf returns the half-open index range [start, end) of the thread
// anchored at threadID.
func RangeOf(messages []Message, threadID string) (int, int, error) {
	start := -1
	for i := range messages {
		if messages[i].ID == threadID {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, ErrThreadNotFound
	}
	end := len(messages)
	for i := start + 1; i < len(messages); i++ {
		if breaksAt(messages, i) {
			end = i
			break
		}
	}
	return start, end, nil
}

// IDs returns the message ids of the thread anchored at threadID.
func IDs(messages []Message, threadID string) ([]string, error) {
	start, end, err := RangeOf(messages, threadID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, end-start)
	for _, m := range messages[start:end] {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ActiveThread returns the last thread's messages when the last message is
// no older than Gap relative to now. Otherwise there is no open thread.
func ActiveThread(messages []Message, now time.Time) []Message {
	if len(messages) == 0 {
		return []Message{}
	}
	last := messages[len(messages)-1]
	if now.Sub(last.Timestamp) > Gap {
		return []Message{}
	}
	start := len(messages) - 1
	for start > 0 && !breaksAt(messages, start) {
		start--
	}
	out := make([]Message, len(messages)-start)
	copy(out, messages[start:])
	return out
}

// MessagesForThread returns the messages shown for the selected thread. An
// empty or unknown thread id falls back to the full log.
func MessagesForThread(messages []Message, threadID string) []Message {
	if threadID == "" {
		return messages
	}
	start, end, err := RangeOf(messages, threadID)
	if err != nil {
		return messages
	}
	return messages[start:end]
}

// Starred reports whether any message in the slice is starred.
func Starred(messages []Message) bool {
	for _, m := range messages {
		if m.Starred {
			return true
		}
	}
	return false
}

// FilterBySearch keeps threads whose title contains query, ignoring case.
func FilterBySearch(threads []Thread, query string) []Thread {
	if query == "" {
		return threads
	}
	q := strings.ToLower(query)
	out := make([]Thread, 0, len(threads))
	for _, t := range threads {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// SortForDisplay moves starred threads first and keeps the relative order
// within each group. The input is not modified.
func SortForDisplay(threads []Thread) []Thread {
	out := make([]Thread, len(threads))
	copy(out, threads)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Starred && !out[j].Starred
	})
	return out
}

// Title builds a thread title from the first user message.
func Title(messages []Message) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		r := []rune(m.Content)
		if len(r) > TitleLength {
			return string(r[:TitleLength]) + "..."
		}
		return m.Content
	}
	return FallbackTitle
}

func breaksAt(messages []Message, i int) bool {
	return messages[i].Timestamp.Sub(messages[i-1].Timestamp) > Gap
}

func summarize(messages []Message) Thread {
	return Thread{
		ID:             messages[0].ID,
		Title:          Title(messages),
		StartTimestamp: messages[0].Timestamp,
		MessageCount:   len(messages),
		Starred:        Starred(messages),
	}
}
