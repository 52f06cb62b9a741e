package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/treebridge/internal/config"
	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/bridge"
	"github.com/vango-dev/treebridge/pkg/transport/ws"
)

type connectOptions struct {
	mode        string
	encoding    string
	metricsAddr string
	readTimeout time.Duration
	pretty      bool
	all         bool
}

func connectCmd(g *globals) *cobra.Command {
	var o connectOptions

	cmd := &cobra.Command{
		Use:   "connect [ws-url]",
		Short: "Bridge a live websocket producer",
		Long: `Connect to a websocket producer, reconcile every tree it sends and keep
the rendered view in memory.

The HTTP server on --metrics-addr exposes:
  GET  /metrics             Prometheus metrics
  GET  /healthz             200 while the producer is connected
  GET  /view                the current view as HTML
  POST /fire/{hid}/{event}  fire a bound handler; the body is the JSON event value

Examples:
  treebridge connect ws://localhost:8080/tree
  treebridge connect --mode=frame-sync --encoding=binary ws://localhost:8080/tree`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := g.cfg.Producer.URL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errors.New(errors.CodeInvalidArgument).
					WithDetail("No producer URL given.").
					WithSuggestion("Pass a ws:// URL or set producer.url in treebridge.yaml")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runConnect(ctx, g, url, o, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&o.mode, "mode", "m", "", "Bridge mode: push or frame-sync (default from config)")
	cmd.Flags().StringVarP(&o.encoding, "encoding", "e", "", "Message encoding: json or binary (default from config)")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "Listen address for /metrics, /healthz and /view (default from config, "+config.DefaultMetricsAddr+" suggested)")
	cmd.Flags().DurationVar(&o.readTimeout, "read-timeout", 0, "Disconnect when the producer is silent this long")
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "Indent the HTML output")
	cmd.Flags().BoolVar(&o.all, "all", false, "Print every committed root")

	return cmd
}

func runConnect(ctx context.Context, g *globals, url string, o connectOptions, stdout io.Writer) error {
	mode, err := modeFlag(g, o.mode)
	if err != nil {
		return err
	}
	encName := o.encoding
	if encName == "" {
		encName = g.cfg.Producer.Encoding
	}
	enc, err := ws.ParseEncoding(encName)
	if err != nil {
		return err
	}

	conn, err := ws.Dial(ctx, url,
		ws.WithEncoding(enc),
		ws.WithHandshakeTimeout(g.cfg.HandshakeTimeout()),
		ws.WithReadTimeout(o.readTimeout),
		ws.WithLogger(g.logger),
	)
	if err != nil {
		return err
	}
	defer conn.Close()
	g.logger.Info("connected", "url", url, "encoding", string(enc))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bridge.NewMetrics(reg, g.cfg.Metrics.Namespace)

	v := newViewer(stdout, o.pretty, o.all, g.logger)
	b, err := newBridge(g, conn, v, mode, metrics)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := make(chan error, 1)
	addr := o.metricsAddr
	if addr == "" {
		addr = g.cfg.Metrics.Addr
	}
	if addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           newServer(reg, v, conn),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErr <- errors.New(errors.CodeMetricsServer).Wrap(err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		g.logger.Info("http server listening", "addr", addr)
	}

	runErr := make(chan error, 1)
	go func() { runErr <- b.Run(ctx) }()

	select {
	case err = <-runErr:
	case err = <-serverErr:
		cancel()
		<-runErr
	}
	if err != nil {
		return err
	}

	if !o.all && v.host.Root() != nil {
		return v.print(v.host.Root())
	}
	return nil
}
