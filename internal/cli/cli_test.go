package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/twsgraph/internal/config"
	"github.com/aretw0/twsgraph/internal/logging"
	"github.com/aretw0/twsgraph/internal/testutils"
	"github.com/aretw0/twsgraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.csv")
	testutils.WriteFile(t, file, "x\n")

	assert.Equal(t, LoadOptions{Dir: "."}, ResolveInputs("", nil))
	assert.Equal(t, LoadOptions{Dir: "exports"}, ResolveInputs("exports", nil))
	assert.Equal(t, LoadOptions{Dir: dir}, ResolveInputs(".", []string{dir}))
	assert.Equal(t, LoadOptions{Paths: []string{file}}, ResolveInputs(".", []string{file}))
	assert.Equal(t, LoadOptions{Paths: []string{file, dir}}, ResolveInputs(".", []string{file, dir}))
}

func TestRunGraph(t *testing.T) {
	ctx := context.Background()
	dir := testutils.WriteSampleNetwork(t)

	decode := func(t *testing.T, out *bytes.Buffer) domain.Graph {
		var g domain.Graph
		require.NoError(t, json.Unmarshal(out.Bytes(), &g))
		return g
	}

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: dir}}, &out))
		g := decode(t, &out)
		assert.Len(t, g.Nodes, 7)
		assert.Len(t, g.Links, 6)
	})

	t.Run("Mermaid With Focus", func(t *testing.T) {
		var out bytes.Buffer
		opts := GraphOptions{LoadOptions: LoadOptions{Dir: dir}, Focus: "ledger/post", Format: "mermaid"}
		require.NoError(t, RunGraph(ctx, opts, &out))
		assert.True(t, strings.HasPrefix(out.String(), "graph LR"))
		assert.Contains(t, out.String(), "class LEDGER_POST focus;")
	})

	t.Run("Build Flags", func(t *testing.T) {
		var out bytes.Buffer
		opts := GraphOptions{
			LoadOptions: LoadOptions{Dir: dir},
			BuildFlags:  BuildFlags{Types: []string{"JOB"}, IncludeUnknown: true, Exclude: []string{"EXPORT"}},
		}
		require.NoError(t, RunGraph(ctx, opts, &out))
		g := decode(t, &out)
		ids := make([]string, len(g.Nodes))
		for i, n := range g.Nodes {
			ids[i] = n.ID
		}
		assert.Equal(t, []string{"LOAD", "PRINT", "ARCHIVE", "LEDGER/POST"}, ids)
	})

	t.Run("Unknown Focus", func(t *testing.T) {
		err := RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: dir}, Focus: "nope"}, io.Discard)
		assert.ErrorIs(t, err, domain.ErrNodeNotFound)
	})

	t.Run("Bad Format", func(t *testing.T) {
		err := RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: dir}, Format: "dot"}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("Bad Mode", func(t *testing.T) {
		err := RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: dir}, BuildFlags: BuildFlags{Mode: "x"}}, io.Discard)
		assert.Error(t, err)
	})

	t.Run("Missing Input", func(t *testing.T) {
		err := RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: t.TempDir()}}, io.Discard)
		assert.ErrorIs(t, err, domain.ErrMissingInput)
	})
}

func TestRunGraph_NetOverride(t *testing.T) {
	ctx := context.Background()
	dir := testutils.WriteSampleNetwork(t)
	require.NoError(t, os.Rename(filepath.Join(dir, testutils.OperationsFile), filepath.Join(dir, "operazioni.csv")))

	err := RunGraph(ctx, GraphOptions{LoadOptions: LoadOptions{Dir: dir}}, io.Discard)
	assert.ErrorIs(t, err, domain.ErrNetNameExtraction)

	var out bytes.Buffer
	opts := GraphOptions{LoadOptions: LoadOptions{Dir: dir}, BuildFlags: BuildFlags{Net: testutils.SampleNet}}
	require.NoError(t, RunGraph(ctx, opts, &out))
	var g domain.Graph
	require.NoError(t, json.Unmarshal(out.Bytes(), &g))
	assert.Len(t, g.Nodes, 7)
}

func TestRunGraph_ExplicitAdditional(t *testing.T) {
	ctx := context.Background()
	dir := testutils.WriteSampleNetwork(t)
	ledger := filepath.Join(t.TempDir(), "NET - LEDGER - Operazioni.csv")
	testutils.WriteFile(t, ledger, "Nome Job;Descrizione\nPOST;Post entries\n")

	var out bytes.Buffer
	opts := GraphOptions{
		LoadOptions: LoadOptions{
			Paths: []string{
				filepath.Join(dir, testutils.OperationsFile),
				filepath.Join(dir, testutils.InternalFile),
				filepath.Join(dir, testutils.PredecessorsFile),
				filepath.Join(dir, testutils.SuccessorsFile),
			},
			Additional: []string{ledger},
		},
	}
	require.NoError(t, RunGraph(ctx, opts, &out))

	var g domain.Graph
	require.NoError(t, json.Unmarshal(out.Bytes(), &g))
	post, ok := g.Node("LEDGER/POST")
	require.True(t, ok)
	assert.True(t, post.HasAdditionalDetails, "rows are tagged with the net named by the file")
}

func TestRunCatalog(t *testing.T) {
	ctx := context.Background()
	dir := testutils.WriteSampleNetwork(t)

	t.Run("Text", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunCatalog(ctx, CatalogOptions{LoadOptions: LoadOptions{Dir: dir}}, &out))
		assert.Contains(t, out.String(), "Network: PAYROLL")
		assert.Contains(t, out.String(), "Types (2): JOB, SCRIPT")
		assert.Contains(t, out.String(), "External networks (3): BANK, HR, LEDGER")
		assert.Contains(t, out.String(), "Auxiliary: 2 rows in 1 files")
	})

	t.Run("JSON", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunCatalog(ctx, CatalogOptions{LoadOptions: LoadOptions{Dir: dir}, JSON: true}, &out))

		var resp struct {
			NetName string   `json:"netName"`
			Jobs    []string `json:"jobs"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
		assert.Equal(t, testutils.SampleNet, resp.NetName)
		assert.Len(t, resp.Jobs, 7)
	})
}

func TestRunInspect(t *testing.T) {
	ctx := context.Background()
	dir := testutils.WriteSampleNetwork(t)

	var out bytes.Buffer
	require.NoError(t, RunInspect(ctx, InspectOptions{LoadOptions: LoadOptions{Dir: dir}, Node: "calc"}, &out))
	assert.True(t, strings.HasPrefix(out.String(), "#"), "raw markdown when not a terminal")
	assert.Contains(t, out.String(), "Rerun from step 2")
	assert.Contains(t, out.String(), "| RATES | BANK | predecessor |")

	err := RunInspect(ctx, InspectOptions{LoadOptions: LoadOptions{Dir: dir}, Node: "GHOST"}, io.Discard)
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestRunServe(t *testing.T) {
	t.Setenv("TWSGRAPH_SERVER_PORT", "0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- RunServe(ctx, ServeOptions{Quiet: true, Ready: func(addr string) { ready <- addr }}, io.Discard)
	}()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("server exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("Memory", func(t *testing.T) {
		cfg := config.Default()
		b, err := createBackend(ctx, &cfg, logger)
		require.NoError(t, err)
		assert.Nil(t, b.locker)
		assert.NoError(t, b.close())
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Server.Redis.Addr = mr.Addr()

		b, err := createBackend(ctx, &cfg, logger)
		require.NoError(t, err)
		defer b.close()
		assert.NotNil(t, b.locker)

		ids, err := b.store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("Redis Encrypted", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Server.Redis.Addr = mr.Addr()
		cfg.Server.Redis.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))

		b, err := createBackend(ctx, &cfg, logger)
		require.NoError(t, err)
		defer b.close()

		ws := &domain.Workspace{ID: "sealed", Dataset: &domain.Dataset{NetName: "PAYROLL"}}
		require.NoError(t, b.store.Save(ctx, ws))

		raw, err := mr.Get(cfg.Server.Redis.Prefix + "sealed")
		require.NoError(t, err)
		assert.NotContains(t, raw, "PAYROLL")

		loaded, err := b.store.Load(ctx, "sealed")
		require.NoError(t, err)
		assert.Equal(t, "PAYROLL", loaded.Dataset.NetName)
	})

	t.Run("Redis Unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := config.Default()
		cfg.Server.Redis.Addr = addr
		_, err := createBackend(ctx, &cfg, logger)
		assert.Error(t, err)
	})
}

func TestCreateEngine_BadPatterns(t *testing.T) {
	cfg := config.Default()
	cfg.Classify.Operations = []string{"[unclosed"}
	_, err := createEngine(&cfg, logging.NewNop(), false)
	assert.Error(t, err)
}
