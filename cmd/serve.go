package cmd

import (
	"context"
	"time"

	"github.com/abhisek/medquiz/internal/server"
	"github.com/abhisek/medquiz/internal/tutor"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the chat proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("snapshot-interval")
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		var t *tutor.Service
		if t, err = d.newTutor(ctx); err != nil {
			log.Warn().Err(err).Msg("chat disabled")
			t = nil
		}

		srv := server.New(server.Deps{
			Bank:     d.bank,
			Engine:   d.engine,
			Quiz:     d.quiz,
			Sessions: d.sessions,
			Tutor:    t,
		}, cfg.Server, log)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(ctx)
		})
		if interval > 0 {
			g.Go(func() error {
				autoSnapshot(ctx, d, interval)
				return nil
			})
		}
		return g.Wait()
	},
}

// autoSnapshot saves a snapshot every interval and once more on shutdown.
func autoSnapshot(ctx context.Context, d *deps, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := saveSnapshot(ctx, d, "auto"); err != nil {
				log.Warn().Err(err).Msg("auto snapshot failed")
			}
		case <-ctx.Done():
			if _, err := saveSnapshot(context.Background(), d, "shutdown"); err != nil {
				log.Warn().Err(err).Msg("shutdown snapshot failed")
			}
			return
		}
	}
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MEDQUIZ_SERVER_ADDR)")
	serveCmd.Flags().Duration("snapshot-interval", 30*time.Minute, "Snapshot the archive this often (0 disables)")
}
