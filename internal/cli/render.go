package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/resumeanalyzer/internal/render"
)

func newRenderCmd() *cobra.Command {
	var (
		engine   string
		sanitize bool
		trace    bool
		out      string
	)

	cmd := &cobra.Command{
		Use:   "render [file|-]",
		Short: "Render a markdown document to HTML",
		Long: `Render converts markdown to the HTML served by the analyzer.

The output is not sanitized unless --sanitize (or render.sanitize) is set;
raw HTML in the input is passed through unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := getEnv(cmd)
			if !cmd.Flags().Changed("engine") {
				engine = e.v.GetString("render.engine")
			}
			if !cmd.Flags().Changed("sanitize") {
				sanitize = e.v.GetBool("render.sanitize")
			}

			src, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			r, err := render.ByName(engine)
			if err != nil {
				return err
			}

			var m render.Markup
			if trace {
				p, ok := r.(render.Pipeline)
				if !ok {
					return errors.New("--trace only works with the pipeline engine")
				}
				m = p.Trace(src, func(name, text string) {
					fmt.Fprintf(cmd.ErrOrStderr(), "== %s\n%s\n", name, text)
				})
			} else {
				m = r.Render(src)
			}
			if sanitize {
				m = render.Sanitize(m)
			}
			return writeOutput(cmd.OutOrStdout(), out, m.String()+"\n")
		},
	}

	cmd.Flags().StringVar(&engine, "engine", render.EnginePipeline, "renderer: pipeline or goldmark")
	cmd.Flags().BoolVar(&sanitize, "sanitize", false, "strip unsafe HTML from the output")
	cmd.Flags().BoolVar(&trace, "trace", false, "print the text after every pipeline pass to stderr")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the HTML to this file instead of stdout")
	return cmd
}

func readSource(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}
