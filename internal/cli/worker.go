package cli

import (
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/resumeanalyzer/internal/config"
	"github.com/muhammadolammi/resumeanalyzer/internal/controller"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/status"
	"github.com/muhammadolammi/resumeanalyzer/internal/storage"
	"github.com/muhammadolammi/resumeanalyzer/internal/worker"
)

func newWorkerCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Analyze resumes queued on RabbitMQ and publish the results",
		Long: `Worker consumes {"analysis_id", "object_key"} jobs from worker.queue,
downloads each resume from R2 and publishes status updates and the final
report to rabbitmq.exchange under analysis.<id> and analysis.<id>.result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			if !cmd.Flags().Changed("concurrency") {
				concurrency = e.v.GetInt("worker.concurrency")
			}
			url := strings.TrimSpace(e.v.GetString("rabbitmq.url"))
			if url == "" {
				return errors.New("worker needs rabbitmq.url (RABBITMQ_URL)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r2, err := storage.NewR2(ctx, config.R2(e.v))
			if err != nil {
				return err
			}
			a, err := buildApp(ctx, e)
			if err != nil {
				return err
			}
			defer a.Close()

			reporter, ok := a.publisher.(status.Reporter)
			if !ok {
				reporter = status.Nop{}
			}

			pool := worker.New(worker.Config{
				URL:         url,
				Queue:       e.v.GetString("worker.queue"),
				Concurrency: concurrency,
				Fetcher:     r2,
				Publisher:   a.publisher,
				Reporter:    reporter,
				NewController: func() *controller.Controller {
					return controller.New(extract.Text, a.client, a.renderer, a.publisher, e.log, a.opts)
				},
				Log: e.log,
			})
			return pool.Run(ctx)
		},
	}

	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "number of consumers (default from worker.concurrency)")
	return cmd
}
