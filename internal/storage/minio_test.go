package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pikecape/duck-service/internal/config"
	"github.com/stretchr/testify/require"
)

// fakeS3 answers the handful of path-style S3 calls the storage wrapper makes.
type fakeS3 struct {
	mu      sync.Mutex
	buckets map[string]bool
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
	bucket, key := parts[0], ""
	if len(parts) == 2 {
		key = parts[1]
	}
	switch {
	case r.Method == http.MethodHead && key == "":
		if !f.buckets[bucket] {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut && key == "":
		f.buckets[bucket] = true
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPut:
		_, _ = io.Copy(io.Discard, r.Body)
		f.types[bucket+"/"+key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotImplemented)
	}
}

func newFake(t *testing.T, buckets ...string) (*fakeS3, config.MinIOConfig) {
	f := &fakeS3{buckets: map[string]bool{}, types: map[string]string{}}
	for _, b := range buckets {
		f.buckets[b] = true
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, config.MinIOConfig{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Region:    "us-east-1",
		Bucket:    "ducks",
	}
}

func TestNewMinIOClient_RequiresEndpointAndBucket(t *testing.T) {
	_, err := NewMinIOClient(config.MinIOConfig{Bucket: "ducks"})
	require.ErrorContains(t, err, "missing endpoint")

	_, err = NewMinIOClient(config.MinIOConfig{Endpoint: "localhost:9000"})
	require.ErrorContains(t, err, "missing bucket")

	mc, err := NewMinIOClient(config.MinIOConfig{Endpoint: "localhost:9000", Bucket: "ducks"})
	require.NoError(t, err)
	require.Equal(t, "localhost:9000", mc.EndpointURL().Host)
}

func TestNewMinIOStorage_CreatesMissingBucket(t *testing.T) {
	f, cfg := newFake(t)

	s, err := NewMinIOStorage(context.Background(), cfg)
	require.NoError(t, err)
	require.True(t, f.buckets["ducks"])
	require.NoError(t, s.Ping(context.Background()))
}

func TestMinIOStorage_UploadAndPresign(t *testing.T) {
	f, cfg := newFake(t, "ducks")
	s, err := NewMinIOStorage(context.Background(), cfg)
	require.NoError(t, err)

	body := `[{"_id":"a","name":"Duey"}]`
	err = s.UploadFile(context.Background(), "snapshots/ducks.json", strings.NewReader(body), int64(len(body)), "application/json")
	require.NoError(t, err)
	require.Equal(t, "application/json", f.types["ducks/snapshots/ducks.json"])

	link, err := s.GetPresignedURL(context.Background(), "snapshots/ducks.json", 15*time.Minute)
	require.NoError(t, err)
	require.Contains(t, link, "/ducks/snapshots/ducks.json")
	require.Contains(t, link, "X-Amz-Signature=")
	require.Contains(t, link, "X-Amz-Expires=900")
}

func TestMinIOStorage_PingUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{Endpoint: endpoint, Bucket: "ducks", Region: "us-east-1"})
	require.ErrorContains(t, err, "minio bucket check")
}
