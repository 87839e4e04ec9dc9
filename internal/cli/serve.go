package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/resumeanalyzer/internal/config"
	"github.com/muhammadolammi/resumeanalyzer/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			if !cmd.Flags().Changed("addr") {
				addr = e.v.GetString("http_addr")
			}
			maxUpload, err := config.MaxUpload(e.v)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := buildApp(ctx, e)
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.ctl, a.renderer, e.log, server.Options{MaxUpload: maxUpload})
			return srv.Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from http_addr)")
	return cmd
}
