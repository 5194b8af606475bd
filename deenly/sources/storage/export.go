package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"time"

	"deenly/deenly/domain"
	"deenly/deenly/services/chat"
	"deenly/deenly/services/threads"
	"deenly/deenly/utils/logging"

	"go.uber.org/zap"
)

// ObjectStore is the part of MinIOClient the exporter needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Snapshot is the exported form of a user's history.
type Snapshot struct {
	UserID     string            `json:"user_id"`
	ExportedAt time.Time         `json:"exported_at"`
	Threads    []threads.Thread  `json:"threads"`
	Messages   []threads.Message `json:"messages"`
}

type Exporter struct {
	store ObjectStore
	now   func() time.Time
}

func NewExporter(store ObjectStore) *Exporter {
	return &Exporter{store: store, now: time.Now}
}

// ExportThreads writes a JSON snapshot under exports/<user>/ and returns
// its object key.
func (e *Exporter) ExportThreads(ctx context.Context, userID string, ts []threads.Thread, msgs []threads.Message) (string, error) {
	if chat.IsGuest(userID) {
		return "", domain.ErrGuest
	}
	dir, err := exportDir(userID)
	if err != nil {
		return "", err
	}
	defer logging.LogDuration(ctx, "export_threads")()

	snap := Snapshot{UserID: userID, ExportedAt: e.now().UTC(), Threads: ts, Messages: msgs}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	key := path.Join(dir, snap.ExportedAt.Format("20060102T150405Z")+".json")
	if err := e.store.Put(ctx, key, data, "application/json"); err != nil {
		return "", fmt.Errorf("upload export: %w", err)
	}
	logging.AppLogger.Info("history exported", zap.String("user_id", userID), zap.String("key", key), zap.Int("messages", len(msgs)))
	return key, nil
}

// exportDir escapes userID into a single key segment under exports/.
// External subjects are arbitrary strings.
func exportDir(userID string) (string, error) {
	seg := url.PathEscape(userID)
	if seg == "" || seg == "." || seg == ".." {
		return "", &domain.ValidationError{Message: fmt.Sprintf("user id %q cannot name an export", userID)}
	}
	return "exports/" + seg, nil
}

func (e *Exporter) LoadExport(ctx context.Context, key string) (Snapshot, error) {
	var snap Snapshot
	data, err := e.store.Get(ctx, key)
	if err != nil {
		return snap, err
	}
	return snap, json.Unmarshal(data, &snap)
}
