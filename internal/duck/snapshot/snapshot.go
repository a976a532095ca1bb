// Package snapshot exports the full duck collection as a JSON document to
// object storage.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/pikecape/duck-service/internal/duck"
	"github.com/pikecape/duck-service/pkg/logger"
	"github.com/pikecape/duck-service/pkg/metrics"
)

const (
	contentType = "application/json"
	keyLayout   = "20060102T150405Z"
	// ActionExport labels failures of the export itself.
	ActionExport = "export snapshot"
)

// Uploader is the object storage surface an Exporter needs.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Source lists the ducks to export.
type Source interface {
	FindAll(ctx context.Context) ([]duck.Duck, error)
}

// Snapshot describes an uploaded export.
type Snapshot struct {
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Exporter writes snapshots of a Source to an Uploader.
type Exporter struct {
	src    Source
	up     Uploader
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewExporter returns an Exporter storing objects under prefix. A zero ttl
// skips presigning.
func NewExporter(src Source, up Uploader, prefix string, ttl time.Duration) *Exporter {
	return &Exporter{src: src, up: up, prefix: prefix, ttl: ttl, now: time.Now}
}

// Key returns the object key of a snapshot taken at t.
func (e *Exporter) Key(t time.Time) string {
	name := "ducks-" + t.UTC().Format(keyLayout) + ".json"
	if e.prefix == "" {
		return name
	}
	return path.Join(e.prefix, name)
}

// Export reads every duck and uploads them as one JSON array.
func (e *Exporter) Export(ctx context.Context) (*Snapshot, error) {
	list, err := e.src.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(list)
	if err != nil {
		return nil, duck.StoreError(ActionExport, err)
	}

	created := e.now().UTC()
	snap := &Snapshot{Key: e.Key(created), Count: len(list), CreatedAt: created}
	if err := e.up.UploadFile(ctx, snap.Key, bytes.NewReader(body), int64(len(body)), contentType); err != nil {
		return nil, duck.StoreError(ActionExport, err)
	}
	metrics.SnapshotsExported.Inc()
	logger.Infof("exported %d ducks to %s", snap.Count, snap.Key)

	if e.ttl > 0 {
		u, err := e.up.GetPresignedURL(ctx, snap.Key, e.ttl)
		if err != nil {
			// the object is stored; a missing link is not worth failing the export
			logger.Warnf("presign %s: %v", snap.Key, err)
		} else {
			snap.URL = u
		}
	}
	return snap, nil
}

// String implements fmt.Stringer for command line output.
func (s *Snapshot) String() string {
	if s.URL == "" {
		return fmt.Sprintf("%s (%d ducks)", s.Key, s.Count)
	}
	return fmt.Sprintf("%s (%d ducks) %s", s.Key, s.Count, s.URL)
}
