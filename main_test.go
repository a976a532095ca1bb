package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/pikecape/duck-service/internal/config"
	"github.com/pikecape/duck-service/internal/duck/service"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func memoryConfig(t *testing.T) *config.Config {
	t.Setenv("DUCK_ENV_FILE", "testdata-missing.env")
	v := viper.New()
	config.SetDefaults(v)
	v.Set("DUCK_STORE", config.StoreMemory)
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	return cfg
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_MountsDuckRoutesUnderBasePath(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Server.BasePath = "/api/ducks"
	r := newRouter(cfg, &deps{svc: service.NewMemoryService()})

	w := serve(r, http.MethodPost, "/api/ducks", `{"name":"Duey"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = serve(r, http.MethodGet, "/api/ducks/"+created["_id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Duey")

	w = serve(r, http.MethodGet, "/ducks", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// snapshots are only routed when object storage is configured
	w = serve(r, http.MethodPost, "/admin/snapshots", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AmbientEndpoints(t *testing.T) {
	registerMetrics()
	cfg := memoryConfig(t)
	r := newRouter(cfg, &deps{svc: service.NewMemoryService()})

	w := serve(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", w.Body.String())

	w = serve(r, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"status":"ready"`)

	serve(r, http.MethodGet, "/ducks", "")
	w = serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `duck_store_operations_total{operation="find_all",outcome="ok"}`)

	w = serve(r, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodOptions, "/ducks", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Deleted-Count")
}

func TestRouter_ReadyFailsWhenRedisDown(t *testing.T) {
	m := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = rc.Close() })

	cfg := memoryConfig(t)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.UseRedis = true
	r := newRouter(cfg, &deps{svc: service.NewMemoryService(), redis: rc})

	w := serve(r, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)

	m.Close()
	w = serve(r, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), `"redis":false`)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RPS = 0.01
	cfg.RateLimit.Burst = 2
	r := newRouter(cfg, &deps{svc: service.NewMemoryService()})

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ducks", "").Code)
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ducks", "").Code)
	w := serve(r, http.MethodGet, "/ducks", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, `"Rate limit exceeded"`, w.Body.String())
}

func TestOpenDeps_MemoryStore(t *testing.T) {
	d, err := openDeps(context.Background(), memoryConfig(t))
	require.NoError(t, err)
	defer d.Close()
	require.Nil(t, d.mongo)
	require.Nil(t, d.exporter)

	_, err = d.svc.Create(context.Background(), map[string]interface{}{"name": "Duey"})
	require.NoError(t, err)
}

func TestSnapshotCommand_RequiresObjectStorage(t *testing.T) {
	t.Setenv("DUCK_ENV_FILE", "testdata-missing.env")
	t.Setenv("MINIO_ENDPOINT", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"snapshot", "--store", "memory"})

	err := cmd.Execute()
	require.ErrorContains(t, err, "MINIO_ENDPOINT")
	require.Empty(t, out.String())
}

func TestRootCommand_RejectsUnknownStore(t *testing.T) {
	t.Setenv("DUCK_ENV_FILE", "testdata-missing.env")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--store", "sqlite"})

	err := cmd.Execute()
	require.ErrorContains(t, err, `unknown DUCK_STORE "sqlite"`)
}
