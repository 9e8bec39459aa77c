package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/linode/cloudmanager/engine/catalog"
	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/infra/monitoring"
	"github.com/linode/cloudmanager/engine/infra/transport"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/engine/store"
	"github.com/linode/cloudmanager/engine/thunk"
	"github.com/linode/cloudmanager/pkg/config"
	"github.com/linode/cloudmanager/pkg/logger"
)

// app wires the catalog, store, transport and thunks for one command run.
type app struct {
	cfg        *config.Config
	tree       *resource.Tree
	store      *store.Store
	monitoring *monitoring.Service
	client     *transport.Client
	thunks     *thunk.Generator
	out        io.Writer
	color      bool
	dumpState  bool
}

func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	tree, err := loadCatalog(cmd)
	if err != nil {
		return nil, err
	}
	mon := monitoring.NewMonitoringServiceWithFallback(ctx, &monitoring.Config{
		Enabled: cfg.Monitoring.Enabled,
		Path:    cfg.Monitoring.Path,
	})
	st := store.New(tree, store.WithRecorder(mon.Sync()))
	client, err := transport.New(transport.Config{
		BaseURL:      cfg.API.BaseURL,
		Token:        cfg.API.Token.Value(),
		UserAgent:    "cloudmanager",
		Timeout:      cfg.API.Timeout,
		RetryCount:   cfg.API.RetryCount,
		RetryWait:    cfg.API.RetryWait,
		RetryMaxWait: cfg.API.RetryMaxWait,
		RateLimit:    cfg.API.RateLimit,
		RatePeriod:   cfg.API.RatePeriod,
	}, transport.WithRecorder(mon.Sync()))
	if err != nil {
		return nil, err
	}
	gen, err := thunk.New(tree, st, client,
		thunk.WithPageSize(cfg.API.PageSize),
		thunk.WithConcurrency(cfg.Fetch.Concurrency),
		thunk.WithMaxRestarts(cfg.Fetch.MaxRestarts),
		thunk.WithPollInterval(cfg.Fetch.PollInterval),
		thunk.WithRecorder(mon.Sync()),
	)
	if err != nil {
		return nil, err
	}
	color := colorEnabled(cmd)
	dump, _ := cmd.Flags().GetBool("dump-state")
	return &app{
		cfg:        cfg,
		tree:       tree,
		store:      st,
		monitoring: mon,
		client:     client,
		thunks:     gen,
		out:        cmd.OutOrStdout(),
		color:      color,
		dumpState:  dump,
	}, nil
}

func loadCatalog(cmd *cobra.Command) (*resource.Tree, error) {
	path, _ := cmd.Flags().GetString("catalog")
	if path == "" {
		return catalog.Load()
	}
	return catalog.LoadFile(path)
}

// bundle resolves a dotted resource path and string ids.
func (a *app) bundle(path string, rawIDs []string) (*thunk.Thunks, []core.ID, error) {
	b, err := a.thunks.Lookup(path)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]core.ID, len(rawIDs))
	for i, raw := range rawIDs {
		ids[i] = core.ID(raw)
	}
	return b, ids, nil
}

func (a *app) print(v any) error {
	return printJSON(a.out, v, a.color)
}

// close prints the state tree when requested and releases resources.
func (a *app) close(ctx context.Context) error {
	var err error
	if a.dumpState {
		var state map[string]*resource.State
		if state, err = a.store.State(ctx); err == nil {
			err = a.print(state)
		}
	}
	if cErr := a.store.Close(); cErr != nil && err == nil {
		err = cErr
	}
	if sErr := a.monitoring.Shutdown(ctx); sErr != nil {
		logger.FromContext(ctx).Debug("Failed to shut down monitoring", "error", sErr)
	}
	return err
}

// run builds the app, calls fn and always closes the app.
func run(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	err = fn(ctx, a)
	if cErr := a.close(ctx); err == nil {
		err = cErr
	}
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return nil
}
