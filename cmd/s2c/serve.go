package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/s2c/internal/api"
	"github.com/example/s2c/internal/store"
)

type serveCmd struct {
	*root
	fs           *flag.FlagSet
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	quiet        bool
}

func (c *serveCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cmd := &serveCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	cfg := r.cfg()
	fs.StringVar(&cmd.addr, "addr", cfg.Serve.Addr, "listen address")
	fs.DurationVar(&cmd.readTimeout, "read-timeout", cfg.Serve.ReadTimeout, "request read timeout")
	fs.DurationVar(&cmd.writeTimeout, "write-timeout", cfg.Serve.WriteTimeout, "response write timeout")
	fs.BoolVar(&cmd.quiet, "quiet", false, "do not log requests")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *serveCmd) Run() error {
	dir, err := c.cfg().ResolveDataDir()
	if err != nil {
		return err
	}
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := api.New(st,
		api.WithTimeouts(c.readTimeout, c.writeTimeout),
		api.WithRequestLog(!c.quiet),
	)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(c.addr) }()
	log.Printf("serving projects from %s on %s", dir, c.addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve %s: %w", c.addr, err)
	case <-ctx.Done():
	}
	log.Printf("shutting down")
	if err := srv.Shutdown(); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("listener: %v", err)
	}
	return nil
}
