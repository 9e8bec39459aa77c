package cli

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/linode/cloudmanager/engine/core"
	"github.com/linode/cloudmanager/engine/resource"
	"github.com/linode/cloudmanager/engine/thunk"
	"github.com/linode/cloudmanager/pkg/logger"
)

func filterHeader(expr string) http.Header {
	h := http.Header{}
	if expr != "" {
		h.Set(thunk.FilterHeader, expr)
	}
	return h
}

func getCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <resource> [ids...]",
		Short: "Fetch one object, e.g. get linodes.configs 123 456",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				obj, err := b.One(ctx, ids)
				if err != nil {
					return err
				}
				return a.print(obj)
			})
		},
	}
	return cmd
}

func listCmd() *cobra.Command {
	var (
		page   int
		filter string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "list <resource> [parent ids...]",
		Short: "Fetch a page or, by default, every page of a collection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				if page > 0 {
					p, err := b.Page(ctx, thunk.PageRequest{
						Page:   page - 1,
						IDs:    ids,
						Filter: fieldFilter(fields),
						Header: filterHeader(filter),
					})
					if err != nil {
						return err
					}
					return a.print(p)
				}
				objs, err := b.All(ctx, thunk.AllRequest{
					IDs:    ids,
					Filter: fieldFilter(fields),
					Header: filterHeader(filter),
				})
				if err != nil {
					return err
				}
				if objs == nil {
					objs = []core.Object{}
				}
				return a.print(objs)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 0, "Fetch only this 1-indexed page")
	cmd.Flags().StringVar(&filter, "filter", "", "JSON filter sent as the X-Filter header")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "Keep only these fields (gjson paths)")
	return cmd
}

func mutationCmd(use, short string, minArgs int, call func(ctx context.Context, b *thunk.Thunks, body core.Object, ids []core.ID) (core.Object, error)) *cobra.Command {
	var data string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(minArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(data)
			if err != nil {
				return err
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				obj, err := call(ctx, b, body, ids)
				if err != nil {
					return err
				}
				return a.print(obj)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON object body, or @file")
	return cmd
}

func createCmd() *cobra.Command {
	return mutationCmd("create <resource> [parent ids...]", "Create an object with POST", 1,
		func(ctx context.Context, b *thunk.Thunks, body core.Object, ids []core.ID) (core.Object, error) {
			return b.Post(ctx, body, ids...)
		})
}

func updateCmd() *cobra.Command {
	return mutationCmd("update <resource> <ids...>", "Update an object with PUT", 1,
		func(ctx context.Context, b *thunk.Thunks, body core.Object, ids []core.ID) (core.Object, error) {
			return b.Put(ctx, body, ids...)
		})
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <resource> <ids...>",
		Short: "Delete an object",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				if err := b.Delete(ctx, ids...); err != nil {
					return err
				}
				logger.FromContext(ctx).Info("Deleted", "resource", b.Name(), "ids", args[1:])
				return nil
			})
		},
	}
}

func waitCmd() *cobra.Command {
	var (
		field       string
		value       string
		interval    time.Duration
		timeout     time.Duration
		maxAttempts uint64
	)
	cmd := &cobra.Command{
		Use:   "wait <resource> <ids...>",
		Short: "Poll an object until a field has a value, e.g. --field status --value running",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if field == "" {
				return NewCliError("MISSING_FLAG", "required flag 'field' not specified")
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				if timeout > 0 {
					var cancel context.CancelFunc
					ctx, cancel = context.WithTimeout(ctx, timeout)
					defer cancel()
				}
				obj, err := b.Until(ctx, thunk.UntilRequest{
					IDs:         ids,
					Test:        func(obj core.Object) bool { return fieldEquals(obj, field, value) },
					Interval:    interval,
					MaxAttempts: maxAttempts,
				})
				if err != nil {
					return err
				}
				return a.print(obj)
			})
		},
	}
	cmd.Flags().StringVar(&field, "field", "", "gjson path of the field to test")
	cmd.Flags().StringVar(&value, "value", "", "Expected value of the field")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (defaults to poll-interval)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Give up after this long (0 waits forever)")
	cmd.Flags().Uint64Var(&maxAttempts, "max-attempts", 0, "Give up after this many fetches (0 is unbounded)")
	return cmd
}

var (
	nameStyle     = lipgloss.NewStyle().Bold(true)
	endpointStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

func treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the resource catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tree, err := loadCatalog(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return tree.Walk(func(n *resource.Node) error {
				s := n.Schema
				caps := make([]string, 0, len(s.Supports))
				for _, c := range s.Supports {
					if c.Known() {
						caps = append(caps, string(c))
					}
				}
				kind := "collection"
				if !s.Plural() {
					kind = "singleton"
				}
				_, err := fmt.Fprintf(out, "%s%s %s [%s] %s\n",
					strings.Repeat("  ", tree.Depth(n.ID)),
					nameStyle.Render(s.Name),
					kind,
					strings.Join(caps, " "),
					endpointStyle.Render(s.EndpointTemplate),
				)
				return err
			})
		},
	}
}

func metricsCmd() *cobra.Command {
	var (
		serve  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "metrics <resource> [parent ids...]",
		Short: "Sync a whole collection and report the sync metrics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "text" {
				return NewCliError("INVALID_FLAG", "format must be json or text", format)
			}
			return run(cmd, func(ctx context.Context, a *app) error {
				b, ids, err := a.bundle(args[0], args[1:])
				if err != nil {
					return err
				}
				if _, err := b.All(ctx, thunk.AllRequest{IDs: ids}); err != nil {
					return err
				}
				if serve != "" {
					return serveMetrics(ctx, a, serve)
				}
				if format == "text" {
					return a.monitoring.WriteText(a.out)
				}
				samples, err := a.monitoring.Snapshot()
				if err != nil {
					return err
				}
				return a.print(samples)
			})
		},
	}
	cmd.Flags().StringVar(&serve, "serve", "", "Serve the metrics endpoint on this address until interrupted")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json samples or Prometheus text")
	return cmd
}

func serveMetrics(ctx context.Context, a *app, addr string) error {
	mux := http.NewServeMux()
	mux.Handle(a.cfg.Monitoring.Path, a.monitoring.ExporterHandler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.FromContext(ctx).Info("Serving metrics", "addr", addr, "path", a.cfg.Monitoring.Path)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
