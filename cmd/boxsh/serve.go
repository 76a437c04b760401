package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sameehj/boxsh/pkg/gateway"
	"github.com/sameehj/boxsh/pkg/history"
	"github.com/sameehj/boxsh/pkg/sandbox"
	"github.com/sameehj/boxsh/pkg/shell"
	"github.com/sameehj/boxsh/pkg/version"
)

func serveCmd(opts *options) *cobra.Command {
	var addr string
	var maxSessions int
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve shell sessions over TCP, one per connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd, opts)
			if err != nil {
				return err
			}
			resolver, err := sandbox.NewResolver(a.root, a.cfg.EscapePolicy())
			if err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Gateway.Address
			}
			if maxSessions == 0 {
				maxSessions = a.cfg.Gateway.MaxSessions
			}
			factory := func(id string, confirm shell.Confirmer) (*shell.Session, error) {
				return a.newSession(id, confirm, history.New(a.cfg.History.Limit))
			}
			gw := gateway.NewServer(factory, gateway.AllowlistAuthorizer{Allowed: a.cfg.Gateway.AllowedAddrs})
			gw.SetMaxSessions(maxSessions)
			gw.SetBanner(version.Banner())
			gw.SetLogger(a.logger)

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return ignoreCanceled(gw.Serve(gctx, listener))
			})
			if watch || a.cfg.Gateway.Watch {
				watcher := sandbox.NewWatcher(resolver.Root())
				watcher.SetLogger(a.logger)
				g.Go(func() error {
					return ignoreCanceled(watcher.Start(gctx))
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "boxsh gateway listening on %s (root %s)\n", listener.Addr(), resolver.Root())
			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "gateway listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", 0, "maximum concurrent sessions (0 = unlimited)")
	cmd.Flags().BoolVar(&watch, "watch", false, "log changes made under the root by other processes")
	return cmd
}
