package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/muhammadolammi/resumeanalyzer/internal/config"
	"github.com/muhammadolammi/resumeanalyzer/internal/logging"
)

type ctxKey string

const envKey ctxKey = "env"

// env is what every subcommand gets: resolved config and a logger.
type env struct {
	v   *viper.Viper
	log *logrus.Logger
}

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the Cobra root command and loads configuration
// before any subcommand runs.
func NewRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:           "resumeanalyzer",
		Short:         "Analyze a resume with Gemini and render the insights as HTML",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(v); err != nil {
				return err
			}
			if err := config.Validate(v); err != nil {
				return fmt.Errorf("invalid configuration:\n%w", err)
			}
			log, err := logging.NewWithOutput(cmd.ErrOrStderr(), v.GetString("log.level"), v.GetString("log.format"))
			if err != nil {
				return err
			}
			cmd.SetContext(withEnv(cmd.Context(), &env{v: v, log: log}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default "+config.DefaultConfigPath()+")")

	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newWorkerCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getEnv(cmd *cobra.Command) *env {
	e := envFrom(cmd.Context())
	if e == nil {
		fmt.Fprintln(os.Stderr, "internal error: configuration not loaded")
		os.Exit(1)
	}
	return e
}
