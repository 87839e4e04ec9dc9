package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/resumeanalyzer/internal/config"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			w := cmd.OutOrStdout()
			if f := e.v.ConfigFileUsed(); f != "" {
				fmt.Fprintf(w, "# config file: %s\n\n", f)
			}
			for _, o := range config.GetConfigOptions() {
				val := e.v.Get(o.Key)
				if isSecret(o.Key) && e.v.GetString(o.Key) != "" {
					val = "********"
				}
				fmt.Fprintf(w, "# %s\n", o.Comment)
				if len(o.Env) > 0 {
					fmt.Fprintf(w, "# env: %s\n", strings.Join(o.Env, ", "))
				}
				fmt.Fprintf(w, "%s = %v\n\n", o.Key, val)
			}
			return nil
		},
	}
}

func isSecret(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, "secret_key") || strings.HasSuffix(key, "access_key")
}
