package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/zeusync/behave/internal/config"
	"github.com/zeusync/behave/internal/injector"
	"github.com/zeusync/behave/internal/core/observability/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(config.Flags(os.Args[0]), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "behave:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "behave: %+v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	e, cleanup, err := injector.InitEngine(cfg)
	if err != nil {
		return errors.Wrap(err, "init engine")
	}
	defer cleanup()

	if _, err = e.LoadTrees(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers(e) {
		srv := srv
		g.Go(func() error { return serve(gctx, e.Logger, srv) })
	}
	g.Go(func() error { return loop(gctx, e) })

	err = g.Wait()
	if ctx.Err() != nil {
		e.Logger.Info("shutting down")
		return nil
	}
	return err
}

// servers mounts /metrics and /ws, sharing one listener when the addresses match.
func servers(e *injector.Engine) []*http.Server {
	muxes := make(map[string]*http.ServeMux)
	mux := func(addr string) *http.ServeMux {
		if m, ok := muxes[addr]; ok {
			return m
		}
		m := http.NewServeMux()
		muxes[addr] = m
		return m
	}
	if addr := e.Config.Metrics.Addr; addr != "" {
		mux(addr).Handle("/metrics", e.Metrics.Handler())
	}
	if addr := e.Config.Inspector.Addr; addr != "" {
		mux(addr).Handle("/ws", e.Inspector.Handler())
	}

	out := make([]*http.Server, 0, len(muxes))
	for addr, m := range muxes {
		out = append(out, &http.Server{Addr: addr, Handler: m, ReadHeaderTimeout: 5 * time.Second})
	}
	return out
}

func serve(ctx context.Context, logger log.Log, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", log.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrapf(err, "serve %s", srv.Addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", log.String("addr", srv.Addr), log.Error(err))
	}
	return nil
}

// loop ticks every tree once per frame with the measured delta, clamped to
// loop.max_dt when that is set.
func loop(ctx context.Context, e *injector.Engine) error {
	ticker := time.NewTicker(e.Config.Loop.Tick)
	defer ticker.Stop()

	last := time.Now()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			dt := clampDT(now.Sub(last), e.Config.Loop.MaxDT)
			last = now

			if _, err := e.Runner.TickAll(ctx, dt); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return errors.Wrap(err, "tick")
			}

			seq++
			if e.Config.Inspector.Addr == "" || seq%uint64(e.Config.Inspector.Every) != 0 {
				continue
			}
			if e.Inspector.Clients() == 0 {
				continue
			}
			if err := e.Inspector.Broadcast(e.Frame(seq)); err != nil {
				e.Logger.Warn("broadcast frame", log.Uint64("seq", seq), log.Error(err))
			}
		}
	}
}

func clampDT(dt, limit time.Duration) time.Duration {
	if dt < 0 {
		return 0
	}
	if limit > 0 && dt > limit {
		return limit
	}
	return dt
}
