// Package main runs the headless processor-network host: it loads the
// configured modules, restores a workspace, and serves the metrics and
// gateway endpoints until interrupted.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arrebarritra/inviwo/config"
	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/gateway"
	"github.com/arrebarritra/inviwo/metric"
	"github.com/arrebarritra/inviwo/module"
	"github.com/arrebarritra/inviwo/natsclient"
	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/workspace"
)

const (
	// Version is the build version
	Version = "0.1.0"
	appName = "inviwo"

	// storeRecordID keys this host's workspace in the KV store
	storeRecordID = "default"

	// appendSpacing separates an appended workspace from the existing
	// network on the canvas
	appendSpacing = 150
)

func main() {
	if err := run(); err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return err
	}
	if cliCfg.Validate {
		logger.Info("configuration is valid")
		return nil
	}

	manager := module.NewManager(logger)
	if err := manager.Add(module.Standard()); err != nil {
		return err
	}
	if err := manager.LoadAll(); err != nil {
		logger.Warn("some modules failed to load", "error", err)
	}

	net := network.New(logger)

	metricRegistry := metric.NewRegistry()
	net.AddObserver(metric.NewObserver(metricRegistry.Core()))

	gatewayServer := gateway.NewServer(cfg.Gateway.Addr, "/ws", logger)
	if cfg.Gateway.Enabled {
		net.AddObserver(gateway.NewObserver(gatewayServer))
	}

	ctx := context.Background()
	var store *workspace.Store
	if cfg.Workspace.UseKV {
		natsClient, err := connectNATS(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer natsClient.Close(ctx)
		store, err = workspace.NewStore(ctx, natsClient)
		if err != nil {
			return err
		}
	}

	switch {
	case cliCfg.WorkspacePath != "":
		if err := loadWorkspace(cliCfg.WorkspacePath, net, manager, logger); err != nil {
			return err
		}
	case store != nil:
		if err := restoreFromStore(ctx, store, net, manager, logger); err != nil {
			return err
		}
	}

	live := config.NewSafeConfig(cfg)
	if cliCfg.AppendPath != "" {
		if err := appendWorkspace(cliCfg.AppendPath, net, manager, live, logger); err != nil {
			return err
		}
	}
	logEvaluationOrder(net, metricRegistry.Core(), logger)

	errCh := make(chan error, 2)
	metricServer := metric.NewServer(cfg.Metrics.Addr, "/metrics", metricRegistry)
	if cfg.Metrics.Enabled {
		go func() {
			if err := metricServer.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		defer metricServer.Stop()
		logger.Info("metrics server started", "addr", cfg.Metrics.Addr)
	}
	if cfg.Gateway.Enabled {
		go func() {
			if err := gatewayServer.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
		defer gatewayServer.Stop()
		logger.Info("gateway started", "addr", cfg.Gateway.Addr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	if cliCfg.WorkspacePath != "" {
		if err := saveWorkspace(cliCfg.WorkspacePath, net, logger); err != nil {
			logger.Error("workspace save failed", "error", err)
		}
	}
	if store != nil {
		if err := syncStore(ctx, store, net, logger); err != nil {
			logger.Error("workspace store sync failed", "error", err)
		}
	}
	return nil
}

func connectNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithClientName(appName),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
	}
	if cfg.NATS.ReconnectWait > 0 {
		opts = append(opts, natsclient.WithReconnectWait(cfg.NATS.ReconnectWait.Std()))
	}
	if cfg.NATS.Timeout > 0 {
		opts = append(opts, natsclient.WithTimeout(cfg.NATS.Timeout.Std()))
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithUserInfo(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, err
	}
	return client, nil
}

func loadWorkspace(path string, net *network.Network, manager *module.Manager, logger *slog.Logger) error {
	doc, err := workspace.LoadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			logger.Info("workspace file absent, starting empty", "path", path)
			return nil
		}
		return err
	}
	if err := workspace.Deserialize(doc, net, manager.Registry(), manager.PropertyFactory()); err != nil {
		// Per-item failures leave a usable partial network behind.
		logger.Warn("workspace loaded with failures", "path", path, "error", err)
	}
	logger.Info("workspace loaded", "path", path, "processors", net.Len())
	return nil
}

func restoreFromStore(ctx context.Context, store *workspace.Store, net *network.Network, manager *module.Manager, logger *slog.Logger) error {
	rec, err := store.Get(ctx, storeRecordID)
	if err != nil {
		if stderrors.Is(err, errors.ErrKeyNotFound) {
			logger.Info("no stored workspace, starting empty", "id", storeRecordID)
			return nil
		}
		return err
	}
	if err := workspace.Deserialize(rec.Document, net, manager.Registry(), manager.PropertyFactory()); err != nil {
		logger.Warn("stored workspace loaded with failures", "id", storeRecordID, "error", err)
	}
	logger.Info("workspace restored from store", "id", storeRecordID, "processors", net.Len())
	return nil
}

// appendWorkspace pastes another workspace file into the running network,
// offset past the current canvas bounds and autolinked under the
// configured link settings
func appendWorkspace(path string, net *network.Network, manager *module.Manager,
	settings network.LinkSettings, logger *slog.Logger) error {

	doc, err := workspace.LoadFile(path)
	if err != nil {
		return err
	}

	var offset processor.Position
	if net.Len() > 0 {
		_, hi := network.BoundingBox(net.Processors())
		offset = processor.Position{X: hi.X + appendSpacing}
	}

	linker := network.NewAutoLinker(net, settings)
	pasted, err := workspace.Paste(doc, net, manager.Registry(), manager.PropertyFactory(), offset, linker)
	if err != nil {
		if len(pasted) == 0 {
			return err
		}
		logger.Warn("workspace appended with failures", "path", path, "error", err)
	}
	logger.Info("workspace appended", "path", path, "processors", len(pasted))
	return nil
}

func syncStore(ctx context.Context, store *workspace.Store, net *network.Network, logger *slog.Logger) error {
	doc, err := workspace.Serialize(net)
	if err != nil {
		return err
	}

	rec, err := store.Get(ctx, storeRecordID)
	if err != nil {
		if !stderrors.Is(err, errors.ErrKeyNotFound) {
			return err
		}
		rec = &workspace.Record{ID: storeRecordID, Name: storeRecordID, Document: doc}
		if err := store.Create(ctx, rec); err != nil {
			return err
		}
	} else {
		rec.Document = doc
		if err := store.Update(ctx, rec); err != nil {
			return err
		}
	}
	logger.Info("workspace stored", "id", storeRecordID, "revision", rec.Revision)
	return nil
}

func logEvaluationOrder(net *network.Network, m *metric.Metrics, logger *slog.Logger) {
	if net.Len() == 0 {
		return
	}
	start := time.Now()
	order := net.TopologicalSort()
	m.RecordSortDuration(time.Since(start))

	ids := make([]string, len(order))
	for i, p := range order {
		ids[i] = p.Identifier()
	}
	logger.Info("evaluation order", "processors", ids)
}

func saveWorkspace(path string, net *network.Network, logger *slog.Logger) error {
	doc, err := workspace.Serialize(net)
	if err != nil {
		return err
	}
	if err := workspace.SaveFile(path, doc); err != nil {
		return err
	}
	logger.Info("workspace saved", "path", path, "processors", net.Len())
	return nil
}
