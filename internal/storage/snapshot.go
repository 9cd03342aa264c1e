package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/articlehub/articlehub/internal/article"
)

// Uploader is the subset of MinIOStorage the snapshot writer needs.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// Snapshot is the JSON document written for `articlectl snapshot`.
type Snapshot struct {
	TakenAt  time.Time          `json:"takenAt"`
	Count    int                `json:"count"`
	Upvotes  int                `json:"upvotes"`
	Articles []*article.Article `json:"articles"`
}

// SnapshotKey returns the object key for a snapshot taken at t.
func SnapshotKey(t time.Time) string {
	return "articles/" + t.UTC().Format("2006/01/02/150405Z") + ".json"
}

// WriteSnapshot encodes list and uploads it under SnapshotKey(now).
func WriteSnapshot(ctx context.Context, up Uploader, list []*article.Article, now time.Time) (string, error) {
	snap := Snapshot{TakenAt: now.UTC(), Count: len(list), Articles: list}
	if snap.Articles == nil {
		snap.Articles = []*article.Article{}
	}
	for _, a := range list {
		snap.Upvotes += a.Upvotes
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	key := SnapshotKey(now)
	if err := up.UploadFile(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", fmt.Errorf("upload snapshot %s: %w", key, err)
	}
	return key, nil
}
