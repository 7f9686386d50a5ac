package arbor_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/element"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/project"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Store.Backend = "memory"
	return cfg
}

// buildScene adds a scene with a light and a rule watching it, returning their ids.
func buildScene(t *testing.T, ws *arbor.Workspace, docID string) (sceneID, lightID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := ws.Manager.Create(ctx, docID, "demo")
	require.NoError(t, err)

	err = ws.Manager.Edit(ctx, docID, func(pf *project.Factory) error {
		sf, err := pf.AddScene("intro")
		if err != nil {
			return err
		}
		light, err := sf.AddElement(element.Light)
		if err != nil {
			return err
		}
		rule, err := sf.AddRule("on click")
		if err != nil {
			return err
		}
		if _, err := sf.AddWhenEvent(rule.ID, light.ID, element.EventOnClick); err != nil {
			return err
		}
		sceneID, lightID = sf.Target().ID, light.ID
		return nil
	})
	require.NoError(t, err)
	return sceneID, lightID
}

func TestWorkspace_MemoryCascade(t *testing.T) {
	ws, err := arbor.New(memoryConfig(), arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer ws.Close()

	ctx := context.Background()
	sceneID, lightID := buildScene(t, ws, "demo")

	err = ws.Manager.Edit(ctx, "demo", func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		_, err = sf.DeleteRecord(domain.TypeElement, lightID)
		return err
	})
	require.NoError(t, err)

	err = ws.Manager.View(ctx, "demo", func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		require.NoError(t, err)
		assert.Empty(t, sf.Records(domain.TypeElement))
		assert.Empty(t, sf.Records(domain.TypeRule), "rule left without events is removed")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(ws.Metrics.Mutations.WithLabelValues("add", "element")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ws.Metrics.Mutations.WithLabelValues("delete", "element")))
}

func TestWorkspace_FileBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.Format = "yaml"

	ws, err := arbor.New(cfg, arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	defer ws.Close()

	buildScene(t, ws, "demo")

	data, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "demo.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "intro")
}

func TestWorkspace_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Default()
	cfg.Store.Backend = "redis"
	cfg.Store.Redis.Addr = mr.Addr()

	ws, err := arbor.New(cfg, arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)

	buildScene(t, ws, "demo")
	assert.True(t, mr.Exists("arbor:document:demo"))

	docs, err := ws.Manager.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"demo"}, docs)
	require.NoError(t, ws.Close())
}

func TestWorkspace_MaxDepthFromConfig(t *testing.T) {
	cfg := memoryConfig()
	cfg.MaxDepth = 1

	ws, err := arbor.New(cfg, arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()
	_, err = ws.Manager.Create(ctx, "demo", "demo")
	require.NoError(t, err)

	b := dsl.New("demo")
	b.Scene("intro").Group("outer").Element("inner", element.Group).Element("leaf", element.Cube)
	var refs dsl.Refs
	require.NoError(t, ws.Manager.Edit(ctx, "demo", func(pf *project.Factory) error {
		refs, err = b.Apply(pf)
		return err
	}))
	sceneID, outerID := refs["intro"], refs["outer"]

	// Copying outer walks two levels below it, one more than configured.
	err = ws.Manager.Edit(ctx, "demo", func(pf *project.Factory) error {
		sf, err := pf.Scene(sceneID)
		if err != nil {
			return err
		}
		_, err = sf.DuplicateRecord(domain.TypeElement, outerID)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrTreeTooDeep)
}

func TestWorkspace_LifecycleHooks(t *testing.T) {
	var ops []string
	hooks := domain.LifecycleHooks{
		OnMutation: func(e *domain.MutationEvent) {
			ops = append(ops, string(e.Op)+":"+string(e.Type))
		},
	}
	ws, err := arbor.New(memoryConfig(), arbor.WithLogger(logging.NewNop()), arbor.WithLifecycleHooks(hooks))
	require.NoError(t, err)

	buildScene(t, ws, "demo")
	assert.Contains(t, ops, "add:scene")
	assert.Contains(t, ops, "add:element")
	assert.Contains(t, ops, "add:when_event")
}

func TestWorkspace_Handler(t *testing.T) {
	ws, err := arbor.New(memoryConfig(), arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	srv := httptest.NewServer(ws.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/info")
	require.NoError(t, err)
	defer resp.Body.Close()
	var info map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, strings.TrimSpace(arbor.Version), info["version"])

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	metrics.Body.Close()
	assert.Equal(t, http.StatusOK, metrics.StatusCode)
}

func TestWorkspace_MetricsDisabled(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTP.Metrics = false
	ws, err := arbor.New(cfg, arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "sqlite"
	_, err := arbor.New(cfg)
	assert.Error(t, err)

	cfg = config.Default()
	cfg.Log.Level = "loud"
	_, err = arbor.New(cfg)
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.NotEmpty(t, strings.TrimSpace(arbor.Version))
}

func TestWorkspace_EncryptedRedactedStore(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Dir = t.TempDir()
	cfg.Store.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
	cfg.Store.Redact = []string{"^firstname"}

	ws, err := arbor.New(cfg, arbor.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	ctx := context.Background()
	_, err = ws.Manager.Create(ctx, "demo", "Secret project")
	require.NoError(t, err)
	require.NoError(t, ws.Manager.Edit(ctx, "demo", func(pf *project.Factory) error {
		v, _ := pf.FindVariable(string(project.FirstnameVar))
		v.Set(domain.PropVarDefault, "Ada")
		return nil
	}))

	data, err := os.ReadFile(filepath.Join(cfg.Store.Dir, "demo.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Secret project")
	assert.Contains(t, string(data), middleware.EnvelopeKey)

	doc, err := ws.Manager.Load(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "Secret project", doc.String(domain.PropName))
	pf, err := project.New(doc)
	require.NoError(t, err)
	v, ok := pf.FindVariable(string(project.FirstnameVar))
	require.True(t, ok)
	assert.Equal(t, middleware.Mask, v.Get(domain.PropVarDefault))
}
