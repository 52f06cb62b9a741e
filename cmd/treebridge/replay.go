package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/treebridge/internal/config"
	"github.com/vango-dev/treebridge/internal/errors"
	"github.com/vango-dev/treebridge/pkg/bridge"
	"github.com/vango-dev/treebridge/pkg/transport/replay"
	"github.com/vango-dev/treebridge/pkg/tree"
)

type replayOptions struct {
	mode     string
	events   string
	interval time.Duration
	pretty   bool
	all      bool
}

func replayCmd(g *globals) *cobra.Command {
	var o replayOptions

	cmd := &cobra.Command{
		Use:   "replay <file|s3://bucket/key|->",
		Short: "Replay a recorded tree stream",
		Long: `Replay a JSON-lines tree recording through the bridge and print the
resulting HTML.

Each line of the recording holds one JSON tree, or null for "not yet".
Recordings are read from a file, from standard input ("-") or from S3.

Examples:
  treebridge replay session.jsonl
  treebridge replay --mode=frame-sync --all session.jsonl
  treebridge replay s3://recordings/2026/session.jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), g, args[0], o, cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}

	cmd.Flags().StringVarP(&o.mode, "mode", "m", "", "Bridge mode: push or frame-sync (default from config)")
	cmd.Flags().StringVar(&o.events, "events", "", "Record events sent back to the producer to this file")
	cmd.Flags().DurationVar(&o.interval, "interval", 0, "Delay between trees in push mode")
	cmd.Flags().BoolVar(&o.pretty, "pretty", false, "Indent the HTML output")
	cmd.Flags().BoolVar(&o.all, "all", false, "Print every committed root, not only the last")

	return cmd
}

func runReplay(ctx context.Context, g *globals, source string, o replayOptions, stdout io.Writer, stdin io.Reader) error {
	mode, err := modeFlag(g, o.mode)
	if err != nil {
		return err
	}

	trees, err := loadRecording(ctx, g.cfg, source, stdin)
	if err != nil {
		return err
	}

	popts := []replay.PlayerOption{
		replay.WithInterval(o.interval),
		replay.WithLogger(g.logger),
	}
	if mode == bridge.ModeFrameSync {
		popts = append(popts, replay.WithPlayback(replay.PlaybackFrame))
	}
	if o.events != "" {
		f, err := os.Create(o.events)
		if err != nil {
			return errors.New(errors.CodeRecordingOpen).
				WithDetailf("Could not create %s.", o.events).
				Wrap(err)
		}
		defer f.Close()
		popts = append(popts, replay.WithRecorder(replay.NewRecorder(f)))
	}

	player := replay.NewPlayer(trees, popts...)
	defer player.Close()

	v := newViewer(stdout, o.pretty, o.all, g.logger)
	b, err := newBridge(g, player, v, mode, nil)
	if err != nil {
		return err
	}
	if err := b.Run(ctx); err != nil {
		return err
	}

	if !o.all {
		if err := v.print(v.host.Root()); err != nil {
			return err
		}
	}
	renders, releases := v.host.Stats()
	g.logger.Info("replay finished",
		"trees", len(trees),
		"frames", v.frameCount(),
		"renders", renders,
		"releases", releases)
	return nil
}

func loadRecording(ctx context.Context, cfg *config.Config, source string, stdin io.Reader) ([]tree.Tree, error) {
	if source == "-" {
		return replay.Load(stdin)
	}
	if bucket, key, ok := replay.ParseS3URL(source); ok {
		client, err := replay.NewS3Client(ctx, cfg.S3.Region, cfg.S3.Endpoint)
		if err != nil {
			return nil, err
		}
		return replay.LoadS3(ctx, client, bucket, key)
	}
	return replay.LoadFile(source)
}
