package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lotas/autopin/internal/applog"
	"github.com/lotas/autopin/internal/pinner"
	"github.com/lotas/autopin/internal/rules"
	"github.com/lotas/autopin/internal/server"
	"github.com/lotas/autopin/internal/settings"
	"github.com/lotas/autopin/internal/storage"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pinning daemon for the browser extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	st, err := storage.Open(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	repo := rules.NewRepository(nil)
	adapter := settings.NewAdapter(st, repo)
	srv := server.New(a.cfg.Server.Port)
	d := pinner.NewDispatcher(repo, server.NewSurface(srv), adapter, pinner.Config{})
	adapter.OnReorder = d.SetReorder

	if err := adapter.Start(ctx); err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	defer adapter.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 3)
	go func() { errc <- d.Run(ctx) }()
	go func() { errc <- st.Watch(ctx) }()
	go func() { errc <- srv.ListenAndServe(ctx) }()
	go forward(ctx, srv, d)

	fmt.Fprintf(os.Stderr, "autopin listening on 127.0.0.1:%d (%s)\n", a.cfg.Server.Port, plural(repo.Len(), "rule"))

	// The first component to stop takes the others down with it.
	err = <-errc
	cancel()
	for i := 0; i < 2; i++ {
		<-errc
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// forward turns extension messages into dispatcher events.
func forward(ctx context.Context, srv *server.Server, d *pinner.Dispatcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-srv.Messages():
			ev, ok := server.ToEvent(msg)
			if !ok {
				applog.Debug("ws.ignored", "type", msg.Type)
				continue
			}
			if !d.Post(ev) {
				return
			}
		}
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
