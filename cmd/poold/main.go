// main.go - Shielded pool daemon.
//
// poold verifies and settles deposits, withdrawals and swaps against a
// shielded pool and serves them over HTTP:
//   - POST /tx      submit a transaction envelope
//   - GET  /status  current root, tree fill and fee policy
//   - GET  /events  websocket stream of pool records
//   - GET  /health  component health
//   - GET  /metrics prometheus metrics
//
// Usage:
//   poold init   --config poold.yaml
//   poold serve  --config poold.yaml
//   poold status --config poold.yaml
//   poold mint   --config poold.yaml <account> <asset> <amount>
//   poold export-ledger --config poold.yaml <ledger.json>
//
// Architecture:
//   - The commitment tree, spent nullifiers and devnet balances live in one
//     LevelDB under data_dir; each settlement commits them in a single batch
//   - init imports genesis_ledger (JSON) into a fresh store
//   - Swaps route through a constant product market held on the same ledger
//   - Deposits must be signed by the payer's secp256k1 key

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shieldedpool/internal/merkle"
	"shieldedpool/internal/rpc"
	"shieldedpool/internal/store"
	"shieldedpool/internal/zerocash"
)

var (
	Version = "dev"
	Commit  = "none"
)

// marketAccount holds both sides of the devnet market.
var marketAccount = zerocash.DeriveAddress([]byte("devnet_market"))

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "poold",
		Short: "Shielded pool verifier and settlement daemon",
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "poold.yaml", "path to the YAML config")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}
			cfg := DefaultConfig()
			if err := SaveConfig(cfg, configPath); err != nil {
				return err
			}
			root, err := initStore(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s, tree root %x\n", configPath, root)
			return nil
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool and its RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Query a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			status, err := rpc.NewClient(cfg.RPC.Listen, "poold").Status(ctx)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	mintCmd := &cobra.Command{
		Use:   "mint <account> <asset> <amount>",
		Short: "Credit a devnet ledger balance (daemon must be stopped)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			account, err := parseAccount(args[0])
			if err != nil {
				return err
			}
			asset, err := zerocash.ParsePubkey(args[1])
			if err != nil {
				return fmt.Errorf("asset: %w", err)
			}
			amount, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := store.NewState(db).Mint(account, asset, amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "minted %d of %s to %s\n", amount, asset, account)
			return nil
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export-ledger <ledger.json>",
		Short: "Write the stored balances as a JSON ledger (daemon must be stopped)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			db, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			ledger, err := store.NewState(db).ExportLedger()
			if err != nil {
				return err
			}
			if err := ledger.SaveToFile(args[0]); err != nil {
				return fmt.Errorf("failed to save ledger: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "poold %s (%s)\n", Version, Commit)
		},
	}

	rootCmd.AddCommand(initCmd, serveCmd, statusCmd, mintCmd, exportCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openStore(cfg *Config) (*store.DB, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return store.Open(cfg.Storage.DataDir)
}

// initStore creates the empty commitment tree under the data dir and imports
// the genesis ledger, or returns the root of the tree already there.
func initStore(cfg *Config) ([32]byte, error) {
	db, err := openStore(cfg)
	if err != nil {
		return [32]byte{}, err
	}
	defer db.Close()
	trees := store.NewTreeStore(db)
	_, existing, err := trees.Load()
	if err != nil {
		return [32]byte{}, err
	}
	tree, err := trees.LoadOrCreate(cfg.TreeConfig(), merkle.PoseidonHasher{})
	if err != nil {
		return [32]byte{}, err
	}
	if !existing && cfg.Storage.GenesisLedger != "" {
		genesis, err := zerocash.LoadLedgerFromFile(cfg.Storage.GenesisLedger)
		if err != nil {
			return [32]byte{}, fmt.Errorf("failed to load genesis ledger: %w", err)
		}
		if err := store.NewState(db).ImportLedger(genesis); err != nil {
			return [32]byte{}, err
		}
	}
	return tree.Root(), nil
}

// parseAccount accepts a base58 key or "market" for the devnet market.
func parseAccount(s string) (zerocash.Pubkey, error) {
	if s == "market" {
		return marketAccount, nil
	}
	account, err := zerocash.ParsePubkey(s)
	if err != nil {
		return account, fmt.Errorf("account: %w", err)
	}
	return account, nil
}

func loadVerifier(path string) (*zerocash.Verifier, error) {
	var (
		vk  *zerocash.VerifyingKey
		err error
	)
	if path == "" {
		vk, err = zerocash.DefaultVerifyingKey()
	} else {
		vk, err = zerocash.LoadVerifyingKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load verifying key: %w", err)
	}
	return zerocash.NewVerifier(vk)
}

// node is everything serve wires together.
type node struct {
	db      *store.DB
	tree    *merkle.Tree
	state   *store.State
	pool    *zerocash.Pool
	hub     *rpc.Hub
	server  *rpc.Server
	health  *HealthChecker
	metrics *Metrics
	limiter *ClientRateLimiter
}

func newNode(cfg *Config, logger *zap.Logger) (*node, error) {
	db, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	n := &node{db: db, state: store.NewState(db)}
	fail := func(err error) (*node, error) {
		db.Close()
		return nil, err
	}

	n.tree, err = store.NewTreeStore(db).LoadOrCreate(cfg.TreeConfig(), merkle.PoseidonHasher{})
	if err != nil {
		return fail(err)
	}
	globalConfig, err := zerocash.NewGlobalConfig(cfg.Authority(), cfg.Pool.Bump, cfg.FeePolicy())
	if err != nil {
		return fail(err)
	}
	verifier, err := loadVerifier(cfg.Pool.VerifyingKeyPath)
	if err != nil {
		return fail(err)
	}

	n.hub = rpc.NewHub(logger.Named("events"))
	n.pool, err = zerocash.NewPool(zerocash.PoolParams{
		Tree:       n.tree,
		Config:     globalConfig,
		Verifier:   verifier,
		Registry:   n.state,
		Ledger:     n.state,
		Exchange:   &zerocash.ConstantProductExchange{Account: marketAccount, FeeBps: cfg.Pool.MarketFeeBps},
		Sink:       n.hub,
		Logger:     logger.Named("pool"),
		Checkpoint: n.state.Checkpoint,
		MaxSwapFee: cfg.Pool.MaxSwapFee,
	})
	if err != nil {
		return fail(err)
	}

	opts := rpc.Options{
		Addr:   cfg.RPC.Listen,
		Logger: logger.Named("rpc"),
		Hub:    n.hub,
	}
	if cfg.RPC.RatePerSecond > 0 {
		n.limiter = NewClientRateLimiter(cfg.RPC.RatePerSecond, cfg.RPC.Burst)
		opts.Limiter = n.limiter
	}
	if cfg.Metrics.Enabled {
		n.metrics = NewMetrics()
		n.metrics.TrackTree(n.tree)
		n.metrics.TrackHub(n.hub)
		opts.Observer = n.metrics
	}
	n.server = rpc.NewServer(n.pool, opts)

	n.health = NewHealthChecker(Version)
	n.health.RegisterComponent("store", db.Ping)
	n.health.RegisterComponent("tree", treeCheck(n.tree))
	n.server.Mount("/health", n.health)
	if n.metrics != nil {
		n.server.Mount(cfg.Metrics.Path, n.metrics.Handler())
	}
	return n, nil
}

// treeCheck reports degraded once less than a tenth of the leaves remain and
// unhealthy when the tree is full.
func treeCheck(tree *merkle.Tree) Check {
	return func() error {
		left := tree.Capacity() - tree.NextIndex()
		if left == 0 {
			return merkle.ErrCapacityExceeded
		}
		if left < tree.Capacity()/10 {
			return DegradedError{Reason: fmt.Sprintf("%d leaves left", left)}
		}
		return nil
	}
}

func serve(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, closeLogs, err := NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLogs()

	n, err := newNode(cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer n.db.Close()

	hubDone := make(chan struct{})
	go func() {
		n.hub.Run(ctx)
		close(hubDone)
	}()

	if err := n.server.Start(); err != nil {
		return err
	}
	logger.Info("pool ready",
		zap.String("addr", n.server.Addr()),
		zap.String("root", fmt.Sprintf("%x", n.tree.Root())),
		zap.Uint64("next_index", n.tree.NextIndex()),
		zap.Stringer("signer", n.pool.Signer()),
	)

	if n.limiter != nil {
		go func() {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					n.limiter.Prune(10 * time.Minute)
				}
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown", zap.Error(err))
	}
	<-hubDone
	return nil
}
