// Package document keeps users and chats as JSON documents on a
// model.Storage backend (local disk or MinIO).
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dtroode/gophchat-server/internal/model"
)

// load decodes the document at key into v. It reports false when the
// document does not exist yet.
func load(ctx context.Context, storage model.Storage, key string, v any) (bool, error) {
	rc, err := storage.Download(ctx, key)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func save(ctx context.Context, storage model.Storage, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := storage.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
