package controllers

import (
	"context"

	"deenly/deenly/domain"
	"deenly/deenly/services/chat"
	"deenly/deenly/services/threads"
	"deenly/deenly/sources/storage"
)

type ChatController struct {
	sessions *chat.Manager
	exporter *storage.Exporter
}

// NewChatController wires the chat routes. exporter may be nil when no
// object store is configured.
func NewChatController(sessions *chat.Manager, exporter *storage.Exporter) *ChatController {
	return &ChatController{sessions: sessions, exporter: exporter}
}

func (c *ChatController) Threads(ctx context.Context, userID, query string) ([]threads.Thread, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Threads(query), nil
}

func (c *ChatController) Messages(ctx context.Context, userID, threadID string) ([]threads.Message, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Messages(threadID), nil
}

func (c *ChatController) Active(ctx context.Context, userID string) ([]threads.Message, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.Active(), nil
}

func (c *ChatController) Send(ctx context.Context, userID, content string) (chat.SendResult, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return chat.SendResult{}, err
	}
	return s.HandleSend(ctx, content)
}

func (c *ChatController) ApplyToThread(ctx context.Context, userID, threadID string, m chat.Mutation) (chat.ThreadUpdate, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return chat.ThreadUpdate{}, err
	}
	return s.ApplyToThread(ctx, threadID, m)
}

func (c *ChatController) ClearAll(ctx context.Context, userID string) error {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return err
	}
	return s.ClearAll(ctx)
}

// Export uploads the user's whole history and returns the object key.
func (c *ChatController) Export(ctx context.Context, userID string) (string, error) {
	if chat.IsGuest(userID) {
		return "", domain.ErrGuest
	}
	if c.exporter == nil {
		return "", &domain.UnavailableError{Feature: "export"}
	}
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return "", err
	}
	ts, msgs := s.Snapshot()
	return c.exporter.ExportThreads(ctx, userID, ts, msgs)
}

func (c *ChatController) ListMemories(ctx context.Context, userID string) ([]chat.Memory, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ListMemories(), nil
}

func (c *ChatController) AddMemory(ctx context.Context, userID, content string) (chat.Memory, error) {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return chat.Memory{}, err
	}
	return s.AddMemory(ctx, content)
}

func (c *ChatController) DeleteMemory(ctx context.Context, userID, id string) error {
	s, err := c.sessions.Session(ctx, userID)
	if err != nil {
		return err
	}
	return s.DeleteMemory(ctx, id)
}
