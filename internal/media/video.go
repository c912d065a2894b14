// Package media manages the homepage video. The current source lives in
// exactly one of two places: embedded data in the large-asset store, or a
// URL in the small-value store.
package media

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"xcar/internal/blobstore"
	"xcar/internal/kvstore"

	"go.uber.org/zap"
)

var (
	ErrAssetTooLarge = errors.New("video exceeds the upload limit")
	ErrEmptySource   = errors.New("video source is empty")
)

const (
	// DefaultVideoURL plays when nothing else is stored.
	DefaultVideoURL = "https://assets.mixkit.co/videos/preview/mixkit-luxury-car-driving-on-a-highway-at-sunset-34531-large.mp4"

	// MaxUploadBytes is the largest accepted upload.
	MaxUploadBytes int64 = 50 << 20

	// BlobKey is the large-asset slot for an uploaded video.
	BlobKey = "homepage_bg"
)

// Origin tells which slot the current video came from.
type Origin string

const (
	OriginDefault Origin = "default"
	OriginURL     Origin = "url"
	OriginUpload  Origin = "upload"
)

type Manager struct {
	blobs  blobstore.Store
	kv     kvstore.Store
	logger *zap.Logger
}

func NewManager(blobs blobstore.Store, kv kvstore.Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{blobs: blobs, kv: kv, logger: logger}
}

// Current resolves the active video. Large-asset store failures count as no
// stored asset.
func (m *Manager) Current(ctx context.Context) (string, Origin) {
	if err := m.blobs.Open(ctx); err != nil {
		m.logger.Warn("Large-asset store unavailable", zap.Error(err))
	} else {
		data, err := m.blobs.Get(ctx, BlobKey)
		switch {
		case err == nil && len(data) > 0:
			return string(data), OriginUpload
		case err != nil && !errors.Is(err, blobstore.ErrNotFound):
			m.logger.Warn("Failed to read stored video", zap.Error(err))
		}
	}

	url, err := m.kv.Get(kvstore.KeyHomeVideo)
	if err == nil && url != "" {
		return url, OriginURL
	}
	if err != nil && !errors.Is(err, kvstore.ErrNotFound) {
		m.logger.Warn("Failed to read video URL", zap.Error(err))
	}
	return DefaultVideoURL, OriginDefault
}

// SetSource makes src the active video. Data URLs go to the large-asset
// store, anything else to the small-value store, and the other slot is
// cleared. Both stores must be writable; on failure neither slot changes.
func (m *Manager) SetSource(ctx context.Context, src string) error {
	src = strings.TrimSpace(src)
	if src == "" {
		return ErrEmptySource
	}

	if strings.HasPrefix(src, "data:") {
		if err := m.replace(ctx, []byte(src), ""); err != nil {
			return err
		}
		m.logger.Info("Homepage video stored", zap.Int("bytes", len(src)))
		return nil
	}

	if err := m.replace(ctx, nil, src); err != nil {
		return err
	}
	m.logger.Info("Homepage video URL set", zap.String("url", src))
	return nil
}

// Upload encodes r as a data URL and makes it the active video. size is the
// declared length, or -1 when unknown; oversized uploads are rejected before
// anything is stored.
func (m *Manager) Upload(ctx context.Context, r io.Reader, size int64, contentType string) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrAssetTooLarge, size, MaxUploadBytes)
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > MaxUploadBytes {
		return fmt.Errorf("%w: limit is %d bytes", ErrAssetTooLarge, MaxUploadBytes)
	}
	if len(data) == 0 {
		return ErrEmptySource
	}

	if contentType == "" {
		contentType = "video/mp4"
	}
	var buf bytes.Buffer
	buf.Grow(len("data:;base64,") + len(contentType) + base64.StdEncoding.EncodedLen(len(data)))
	buf.WriteString("data:")
	buf.WriteString(contentType)
	buf.WriteString(";base64,")
	buf.WriteString(base64.StdEncoding.EncodeToString(data))

	return m.SetSource(ctx, buf.String())
}

// Reset clears both slots so the default video plays.
func (m *Manager) Reset(ctx context.Context) error {
	return m.replace(ctx, nil, "")
}

// replace writes blob to the large-asset slot (deleting it when nil) and url
// to the small-value slot (removing it when empty). The large-asset write goes
// first; if the small-value write then fails the previous blob is put back.
func (m *Manager) replace(ctx context.Context, blob []byte, url string) error {
	if err := m.blobs.Open(ctx); err != nil {
		return fmt.Errorf("open large-asset store: %w", err)
	}
	previous, err := m.blobs.Get(ctx, BlobKey)
	if errors.Is(err, blobstore.ErrNotFound) {
		previous = nil
	} else if err != nil {
		return fmt.Errorf("read stored video: %w", err)
	}

	if blob != nil {
		err = m.blobs.Put(ctx, BlobKey, blob)
	} else {
		err = m.blobs.Delete(ctx, BlobKey)
	}
	if err != nil {
		return fmt.Errorf("store video: %w", err)
	}

	if url != "" {
		err = m.kv.Set(kvstore.KeyHomeVideo, url)
	} else {
		err = m.kv.Remove(kvstore.KeyHomeVideo)
	}
	if err != nil {
		m.restore(ctx, previous)
		return fmt.Errorf("store video URL: %w", err)
	}
	return nil
}

func (m *Manager) restore(ctx context.Context, previous []byte) {
	var err error
	if previous != nil {
		err = m.blobs.Put(ctx, BlobKey, previous)
	} else {
		err = m.blobs.Delete(ctx, BlobKey)
	}
	if err != nil {
		m.logger.Error("Failed to restore stored video", zap.Error(err))
	}
}
