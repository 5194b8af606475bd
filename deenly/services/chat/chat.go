// Package chat keeps one user's conversation view in step with the message
// store and runs the question/answer flow.
package chat

import (
	"context"
	"strings"
	"time"

	"deenly/deenly/services/threads"
)

// GuestID is the sentinel identity of unauthenticated sessions. Guest
// sessions never reach the stores. Per-client guest ids use the
// "guest:" prefix.
const GuestID = "guest"

// HistoryLimit caps how many previous messages are sent to the Responder.
const HistoryLimit = 10

const (
	connectErrorText = "Hubo un error al conectar con Deenly."
	fallbackReply    = "Lo siento, no pude procesar tu solicitud en este momento."
)

func IsGuest(userID string) bool {
	return userID == GuestID || strings.HasPrefix(userID, GuestID+":")
}

type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one history entry handed to the Responder.
type Turn struct {
	Role string
	Text string
}

type MessageStore interface {
	ListMessages(ctx context.Context, userID string) ([]threads.Message, error)
	InsertMessage(ctx context.Context, userID string, msg threads.Message) error
	DeleteMessages(ctx context.Context, userID string, ids []string) error
	SetStarred(ctx context.Context, userID string, ids []string, value bool) error
	DeleteAllMessages(ctx context.Context, userID string) error
}

type MemoryStore interface {
	ListMemories(ctx context.Context, userID string) ([]Memory, error)
	CreateMemory(ctx context.Context, userID, content string) (Memory, error)
	DeleteMemory(ctx context.Context, userID, id string) error
}

type Responder interface {
	Respond(ctx context.Context, prompt string, history []Turn, memories []string, premium bool) (string, error)
}

type Entitlements interface {
	IsPremium(ctx context.Context, userID string) (bool, error)
	DailyQuestionCount(ctx context.Context, userID string, date time.Time) (int, error)
	IncrementDailyCount(ctx context.Context, userID string, date time.Time) error
}

// ResponderError is returned by Responder implementations. Connectivity is
// set when the model could not be reached at all.
type ResponderError struct {
	Connectivity bool
	Err          error
}

func (e *ResponderError) Error() string {
	if e.Connectivity {
		return "responder unreachable: " + e.Err.Error()
	}
	return "responder failed: " + e.Err.Error()
}

func (e *ResponderError) Unwrap() error { return e.Err }

type Mutation string

const (
	MutationStar       Mutation = "star"
	MutationUnstar     Mutation = "unstar"
	MutationToggleStar Mutation = "toggle_star"
	MutationDelete     Mutation = "delete"
)

// ThreadUpdate describes what ApplyToThread changed.
type ThreadUpdate struct {
	ThreadID   string   `json:"thread_id"`
	MessageIDs []string `json:"message_ids"`
	Deleted    bool     `json:"deleted"`
	Starred    bool     `json:"starred"`
}

type SendResult struct {
	UserMessage      threads.Message `json:"user_message"`
	AssistantMessage threads.Message `json:"assistant_message"`
	// Failed is set when the assistant message carries an error text.
	Failed bool `json:"failed"`
}
