package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/rpc"
	"shieldedpool/internal/store"
	"shieldedpool/internal/zerocash"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Pool.Depth = 4
	cfg.Storage.DataDir = filepath.Join(dir, "data")
	cfg.Logging.AuditLogPath = ""
	return cfg
}

func TestNodeServesStatusHealthAndMetrics(t *testing.T) {
	cfg := testConfig(t)
	n, err := newNode(cfg, zap.NewNop())
	require.NoError(t, err)
	defer n.db.Close()

	ts := httptest.NewServer(n.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	var status rpc.StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, 4, status.Depth)
	assert.Equal(t, uint64(16), status.Capacity)
	assert.Equal(t, zerocash.DefaultNamespace, status.Namespace)

	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	var health HealthCheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", health.Status)
	require.Len(t, health.Data.Components, 2)
	assert.Equal(t, "store", health.Data.Components[0].Name)
	assert.Equal(t, "tree", health.Data.Components[1].Name)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), "shieldedpool_tree_capacity 16")
	assert.Contains(t, string(body), "shieldedpool_events_subscribers 0")
}

func TestNodeReopensStoredTree(t *testing.T) {
	cfg := testConfig(t)
	n, err := newNode(cfg, zap.NewNop())
	require.NoError(t, err)
	root := n.tree.Root()
	require.NoError(t, n.db.Close())

	// A different depth in the config does not reshape an existing tree.
	cfg.Pool.Depth = 8
	n, err = newNode(cfg, zap.NewNop())
	require.NoError(t, err)
	defer n.db.Close()
	assert.Equal(t, 4, n.tree.Depth())
	assert.Equal(t, root, n.tree.Root())
}

func TestInitStoreImportsGenesisLedger(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	alice, usd := zerocash.DeriveAddress([]byte("alice")), zerocash.DeriveAddress([]byte("usd"))
	genesis := zerocash.NewMemoryLedger()
	require.NoError(t, genesis.Mint(alice, usd, 500))
	cfg.Storage.GenesisLedger = filepath.Join(t.TempDir(), "genesis.json")
	require.NoError(t, genesis.SaveToFile(cfg.Storage.GenesisLedger))

	root, err := initStore(cfg)
	require.NoError(t, err)
	// A second init finds the tree and does not import again.
	again, err := initStore(cfg)
	require.NoError(t, err)
	assert.Equal(t, root, again)

	n, err := newNode(cfg, zap.NewNop())
	require.NoError(t, err)
	b, err := n.state.Balance(ctx, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), b)
	require.NoError(t, n.state.Mint(alice, usd, 1))
	require.NoError(t, n.db.Close())

	db, err := openStore(cfg)
	require.NoError(t, err)
	defer db.Close()
	b, err = store.NewState(db).Balance(ctx, alice, usd)
	require.NoError(t, err)
	assert.Equal(t, uint64(501), b)
}

func TestTreeCheck(t *testing.T) {
	tree, err := merkle.New(merkle.Config{Depth: 4, RootHistorySize: 2}, merkle.PoseidonHasher{})
	require.NoError(t, err)
	check := treeCheck(tree)
	assert.NoError(t, check())

	for i := uint64(1); i <= 15; i++ {
		var leaf [32]byte
		leaf[31] = byte(i)
		_, err := tree.Append(leaf)
		require.NoError(t, err)
	}
	var degraded DegradedError
	assert.True(t, errors.As(check(), &degraded))

	var leaf [32]byte
	leaf[31] = 16
	_, err = tree.Append(leaf)
	require.NoError(t, err)
	assert.ErrorIs(t, check(), merkle.ErrCapacityExceeded)
}

func TestHealthCheckerStatuses(t *testing.T) {
	hc := NewHealthChecker("test")
	hc.RegisterComponent("ok", func() error { return nil })
	assert.Equal(t, Healthy, hc.CheckHealth().OverallStatus)

	hc.RegisterComponent("slow", func() error { return DegradedError{Reason: "slow"} })
	assert.Equal(t, Degraded, hc.CheckHealth().OverallStatus)
	assert.Equal(t, "warning", CreateHealthResponse(hc.CheckHealth()).Status)

	hc.RegisterComponent("down", func() error { return errors.New("down") })
	health := hc.CheckHealth()
	assert.Equal(t, Unhealthy, health.OverallStatus)
	assert.Equal(t, []string{"down", "ok", "slow"}, []string{
		health.Components[0].Name, health.Components[1].Name, health.Components[2].Name,
	})

	rec := httptest.NewRecorder()
	hc.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsObserveTransaction(t *testing.T) {
	m := NewMetrics()
	m.ObserveTransaction("deposit", "ok", 0)
	m.ObserveTransaction("deposit", "double_spend", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `shieldedpool_rpc_transactions_total{outcome="ok",type="deposit"} 1`)
	assert.Contains(t, body, `shieldedpool_rpc_transactions_total{outcome="double_spend",type="deposit"} 1`)
}
