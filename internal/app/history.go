package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"github.com/hugperez/jhipster-listener/internal/blob"
	"github.com/hugperez/jhipster-listener/pkg/domain"
)

const historyIDMetadata = "entity-history-id"

// HistoryContentKey is the default blob key for a history record's content.
func HistoryContentKey(id domain.ID) string {
	return "entity-histories/" + id.String()
}

// ExportHistoryContent fetches history record id and stores its content under
// key (HistoryContentKey when empty).
func (s *Store) ExportHistoryContent(ctx context.Context, id domain.ID, key string) (blob.Info, error) {
	if s.blobs == nil {
		return blob.Info{}, ErrNoBlobStore
	}
	record, err := s.History.Get(ctx, id)
	if err != nil {
		return blob.Info{}, err
	}
	if !record.HasContent() {
		return blob.Info{}, fmt.Errorf("%w: %d", ErrNoContent, id)
	}
	if key == "" {
		key = HistoryContentKey(id)
	}
	opts := blob.PutOptions{Metadata: map[string]string{historyIDMetadata: strconv.FormatInt(int64(id), 10)}}
	if record.ContentContentType != nil {
		opts.ContentType = *record.ContentContentType
	}
	info, err := s.blobs.Put(ctx, key, bytes.NewReader(record.Content), opts)
	if err != nil {
		return blob.Info{}, fmt.Errorf("export history %d: %w", id, err)
	}
	s.logger.Info("history content exported", zap.Int64("id", int64(id)), zap.String("key", key), zap.Int64("size", info.Size))
	return info, nil
}

// ImportHistoryContent reads the blob at key and patches it into history
// record id as its content and content type.
func (s *Store) ImportHistoryContent(ctx context.Context, id domain.ID, key string) (domain.EntityHistory, error) {
	if s.blobs == nil {
		return domain.EntityHistory{}, ErrNoBlobStore
	}
	info, rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return domain.EntityHistory{}, fmt.Errorf("import history %d: %w", id, err)
	}
	content, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return domain.EntityHistory{}, fmt.Errorf("read blob %s: %w", key, err)
	}
	patch := domain.EntityHistory{ID: &id, Content: content}
	if info.ContentType != "" {
		patch.ContentContentType = domain.Ref(info.ContentType)
	}
	updated, err := s.History.PartialUpdate(ctx, patch)
	if err != nil {
		return domain.EntityHistory{}, err
	}
	s.logger.Info("history content imported", zap.Int64("id", int64(id)), zap.String("key", key), zap.Int("size", len(content)))
	return updated, nil
}
