package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/worklog/internal/history"
	"github.com/thebtf/worklog/internal/server"
)

func newServeCommand(a *app) *cobra.Command {
	var (
		addr      string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve snapshots and history analysis over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ServerAddr
			}

			var store *history.Store
			if !noHistory {
				s, err := a.openHistory()
				if err != nil {
					log.Warn().Err(err).Msg("History unavailable, /api/history/analysis disabled")
				} else {
					store = s
					defer store.Close()
				}
			}

			srv := server.New(server.Options{
				Version:   a.version,
				Snapshots: a.snapshots(),
				History:   store,
				Renderer:  a.renderer(),
				Threshold: a.cfg.ClusterThreshold,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not open the history database")
	return cmd
}
