package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"deenly/deenly/domain"
	"deenly/deenly/services/threads"
	"deenly/deenly/telemetry"
	"deenly/deenly/utils/logging"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// persistTimeout bounds the assistant message write, which runs on a
// context detached from the request.
const persistTimeout = 5 * time.Second

// Session is the in-memory message view of one user. Mutations hold mu for
// the whole store call so the view and the store never diverge.
type Session struct {
	userID string
	guest  bool
	deps   Deps

	mu       sync.Mutex
	messages []threads.Message
	memories []Memory

	// held for a whole send and by thread mutations and ClearAll
	mutating *semaphore.Weighted
}

func newSession(userID string, deps Deps) *Session {
	return &Session{
		userID:   userID,
		guest:    IsGuest(userID),
		deps:     deps,
		mutating: semaphore.NewWeighted(1),
	}
}

func (s *Session) UserID() string { return s.userID }
func (s *Session) Guest() bool    { return s.guest }

// Reload replaces the view with the store contents. Guests keep their
// local state.
func (s *Session) Reload(ctx context.Context) error {
	if s.guest {
		return nil
	}
	defer logging.LogDuration(ctx, "chat_session_reload")()

	msgs, err := s.deps.Messages.ListMessages(ctx, s.userID)
	if err != nil {
		return err
	}
	var mems []Memory
	if s.deps.Memories != nil {
		if mems, err = s.deps.Memories.ListMemories(ctx, s.userID); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = msgs
	s.memories = mems
	return nil
}

// Threads returns the display list: segmented, filtered by query, starred first.
func (s *Session) Threads(query string) []threads.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return threads.SortForDisplay(threads.FilterBySearch(threads.Segment(s.messages), query))
}

// Messages returns the messages of the selected thread, or all of them when
// threadID is empty or no longer exists.
func (s *Session) Messages(threadID string) []threads.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(threads.MessagesForThread(s.messages, threadID))
}

// Snapshot returns the display threads and every message from one view
// state.
func (s *Session) Snapshot() ([]threads.Thread, []threads.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return threads.SortForDisplay(threads.Segment(s.messages)), clone(s.messages)
}

// Active returns the open thread, if the last message is recent enough.
func (s *Session) Active() []threads.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return threads.ActiveThread(s.messages, s.deps.now())
}

// ApplyToThread stars, unstars, toggles or deletes every message of a
// thread. The store is updated first; the view only changes on success.
func (s *Session) ApplyToThread(ctx context.Context, threadID string, m Mutation) (upd ThreadUpdate, err error) {
	ctx, span := telemetry.Start(ctx, "chat.ApplyToThread",
		attribute.String("thread_id", threadID), attribute.String("mutation", string(m)))
	defer func() { telemetry.End(span, err) }()

	if err := s.waitForSend(ctx); err != nil {
		return ThreadUpdate{}, err
	}
	defer s.mutating.Release(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	start, end, err := threads.RangeOf(s.messages, threadID)
	if err != nil {
		return ThreadUpdate{}, err
	}
	ids := make([]string, 0, end-start)
	for _, msg := range s.messages[start:end] {
		ids = append(ids, msg.ID)
	}
	upd = ThreadUpdate{ThreadID: threadID, MessageIDs: ids}

	switch m {
	case MutationDelete:
		if !s.guest {
			if err := s.deps.Messages.DeleteMessages(ctx, s.userID, ids); err != nil {
				return ThreadUpdate{}, err
			}
		}
		rest := make([]threads.Message, 0, len(s.messages)-len(ids))
		rest = append(rest, s.messages[:start]...)
		s.messages = append(rest, s.messages[end:]...)
		upd.Deleted = true

	case MutationStar, MutationUnstar, MutationToggleStar:
		value := m == MutationStar
		if m == MutationToggleStar {
			value = !threads.Starred(s.messages[start:end])
		}
		if !s.guest {
			if err := s.deps.Messages.SetStarred(ctx, s.userID, ids, value); err != nil {
				return ThreadUpdate{}, err
			}
		}
		for i := start; i < end; i++ {
			s.messages[i].Starred = value
		}
		upd.Starred = value

	default:
		return ThreadUpdate{}, &domain.ValidationError{Message: fmt.Sprintf("unknown mutation %q", m)}
	}

	logging.AppLogger.Info("thread updated",
		zap.String("user_id", s.userID),
		zap.String("thread_id", threadID),
		zap.String("mutation", string(m)),
		zap.Int("messages", len(ids)),
	)
	return upd, nil
}

// ClearAll deletes the user's whole history.
func (s *Session) ClearAll(ctx context.Context) error {
	if err := s.waitForSend(ctx); err != nil {
		return err
	}
	defer s.mutating.Release(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guest {
		if err := s.deps.Messages.DeleteAllMessages(ctx, s.userID); err != nil {
			return err
		}
	}
	s.messages = nil
	return nil
}

// waitForSend blocks until no send is in flight. The caller releases the
// guard.
func (s *Session) waitForSend(ctx context.Context) error {
	if err := s.mutating.Acquire(ctx, 1); err != nil {
		return domain.ErrSendInProgress
	}
	return nil
}

// HandleSend records the user's question, asks the Responder and records
// the answer. Free users past the daily limit get domain.ErrLimitReached and
// the Responder is not called. Responder failures become an assistant
// message in the view rather than an error; that message is not stored.
func (s *Session) HandleSend(ctx context.Context, text string) (res SendResult, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SendResult{}, &domain.ValidationError{Message: "message is empty"}
	}
	if !s.mutating.TryAcquire(1) {
		return SendResult{}, domain.ErrSendInProgress
	}
	defer s.mutating.Release(1)

	ctx, span := telemetry.Start(ctx, "chat.HandleSend", attribute.Bool("guest", s.guest))
	defer func() { telemetry.End(span, err) }()
	defer logging.LogDuration(ctx, "chat_handle_send")()

	now := s.deps.now()
	premium := false
	if !s.guest {
		if premium, err = s.deps.Entitlements.IsPremium(ctx, s.userID); err != nil {
			return SendResult{}, err
		}
		if !premium {
			count, err := s.deps.Entitlements.DailyQuestionCount(ctx, s.userID, now)
			if err != nil {
				return SendResult{}, err
			}
			if count >= s.deps.DailyLimit {
				logging.AppLogger.Info("daily limit reached", zap.String("user_id", s.userID), zap.Int("count", count))
				return SendResult{}, domain.ErrLimitReached
			}
		}
	}

	userMsg, history, memories, err := s.appendUserMessage(ctx, text, now)
	if err != nil {
		return SendResult{}, err
	}
	res.UserMessage = userMsg

	if !s.guest && !premium {
		if err := s.deps.Entitlements.IncrementDailyCount(ctx, s.userID, now); err != nil {
			logging.ErrorLogger.Error("failed to increment daily count", zap.String("user_id", s.userID), zap.Error(err))
		}
	}

	reply, rerr := s.deps.Responder.Respond(ctx, text, history, memories, premium)
	content := reply
	switch {
	case rerr != nil:
		logging.ErrorLogger.Error("responder failed", zap.String("user_id", s.userID), zap.Error(rerr))
		content = errorText(rerr)
		res.Failed = true
	case strings.TrimSpace(reply) == "":
		content = fallbackReply
	}

	// the answer is kept even if the client went away
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	assistant, err := s.appendReply(pctx, userMsg.ID, content, !res.Failed)
	if err != nil {
		return res, err
	}
	res.AssistantMessage = assistant
	return res, nil
}

// appendReply adds the answer to question questionID. Error replies stay in
// the view only. A reply whose question left the view is dropped.
func (s *Session) appendReply(ctx context.Context, questionID, content string, persist bool) (threads.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].ID == questionID {
			found = true
			break
		}
	}
	if !found {
		logging.AppLogger.Warn("reply dropped, question no longer in view",
			zap.String("user_id", s.userID), zap.String("message_id", questionID))
		return threads.Message{}, domain.ErrNotFound
	}
	return s.appendLocked(ctx, threads.RoleAssistant, content, s.deps.now(), persist && !s.guest)
}

func (s *Session) appendUserMessage(ctx context.Context, text string, now time.Time) (threads.Message, []Turn, []string, error) {
	s.mu.Lock()
	from := len(s.messages) - HistoryLimit
	if from < 0 {
		from = 0
	}
	history := make([]Turn, 0, len(s.messages)-from)
	for _, m := range s.messages[from:] {
		history = append(history, Turn{Role: m.Role, Text: m.Content})
	}
	memories := make([]string, 0, len(s.memories))
	for _, m := range s.memories {
		memories = append(memories, m.Content)
	}
	s.mu.Unlock()

	msg, err := s.appendMessage(ctx, threads.RoleUser, text, now)
	if err != nil {
		return threads.Message{}, nil, nil, err
	}
	return msg, history, memories, nil
}

func (s *Session) appendMessage(ctx context.Context, role, content string, ts time.Time) (threads.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(ctx, role, content, ts, !s.guest)
}

func (s *Session) appendLocked(ctx context.Context, role, content string, ts time.Time, persist bool) (threads.Message, error) {
	// keep the log non-decreasing even if the clock steps back
	if n := len(s.messages); n > 0 && ts.Before(s.messages[n-1].Timestamp) {
		ts = s.messages[n-1].Timestamp
	}
	msg := threads.Message{
		ID:        s.deps.newID(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
	if persist {
		if err := s.deps.Messages.InsertMessage(ctx, s.userID, msg); err != nil {
			return threads.Message{}, err
		}
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *Session) ListMemories() []Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Memory, len(s.memories))
	copy(out, s.memories)
	return out
}

// AddMemory stores a note the Responder sees on every question. Newest
// notes come first.
func (s *Session) AddMemory(ctx context.Context, content string) (Memory, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Memory{}, &domain.ValidationError{Message: "memory is empty"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := Memory{ID: uuid.NewString(), Content: content, CreatedAt: s.deps.now()}
	if !s.guest {
		var err error
		if mem, err = s.deps.Memories.CreateMemory(ctx, s.userID, content); err != nil {
			return Memory{}, err
		}
	}
	s.memories = append([]Memory{mem}, s.memories...)
	return mem, nil
}

func (s *Session) DeleteMemory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.memories {
		if m.ID == id {
			idx = i
			break
		}
	}
	if !s.guest {
		if err := s.deps.Memories.DeleteMemory(ctx, s.userID, id); err != nil {
			return err
		}
	} else if idx < 0 {
		return domain.ErrNotFound
	}
	if idx >= 0 {
		s.memories = append(s.memories[:idx:idx], s.memories[idx+1:]...)
	}
	return nil
}

func errorText(err error) string {
	var re *ResponderError
	if errors.As(err, &re) && re.Connectivity {
		return connectErrorText + " Error de conexión. Por favor, verifica tu conexión a internet o la configuración de las claves API."
	}
	detail := err.Error()
	if errors.As(err, &re) && re.Err != nil {
		detail = re.Err.Error()
	}
	return connectErrorText + " Detalle: " + detail
}

func clone(msgs []threads.Message) []threads.Message {
	out := make([]threads.Message, len(msgs))
	copy(out, msgs)
	return out
}
