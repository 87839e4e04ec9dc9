package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/resumeanalyzer/internal/config"
	"github.com/muhammadolammi/resumeanalyzer/internal/extract"
	"github.com/muhammadolammi/resumeanalyzer/internal/render"
	"github.com/muhammadolammi/resumeanalyzer/internal/storage"
)

const (
	formatHTML     = "html"
	formatMarkdown = "markdown"
	formatTerm     = "term"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		r2Key  string
		format string
		out    string
		width  int
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze one resume and print the result",
		Example: `  resumeanalyzer analyze cv.pdf
  resumeanalyzer analyze --format term cv.pdf
  resumeanalyzer analyze --r2-key resumes/jane.pdf --out jane.html`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatHTML, formatMarkdown, formatTerm:
			default:
				return fmt.Errorf("unknown format %q (want html, markdown or term)", format)
			}
			if (len(args) == 0) == (r2Key == "") {
				return errors.New("give either a resume file or --r2-key")
			}

			e := getEnv(cmd)
			ctx := cmd.Context()

			a, err := buildApp(ctx, e)
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := loadDocument(ctx, e, args, r2Key)
			if err != nil {
				return err
			}

			res, err := a.ctl.Analyze(ctx, doc)
			if err != nil {
				if res.Err != "" {
					return errors.New(res.Err)
				}
				return err
			}

			var text string
			switch format {
			case formatHTML:
				text = res.HTML.String() + "\n"
			case formatMarkdown:
				text = res.Markdown + "\n"
			case formatTerm:
				if text, err = render.Terminal(res.Markdown, width); err != nil {
					return err
				}
			}
			return writeOutput(cmd.OutOrStdout(), out, text)
		},
	}

	cmd.Flags().StringVar(&r2Key, "r2-key", "", "analyze the object with this key from the configured R2 bucket")
	cmd.Flags().StringVarP(&format, "format", "f", formatHTML, "output format: html, markdown or term")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the result to this file instead of stdout")
	cmd.Flags().IntVar(&width, "width", 80, "word wrap width for --format term")
	return cmd
}

func loadDocument(ctx context.Context, e *env, args []string, r2Key string) (extract.Document, error) {
	if r2Key == "" {
		return storage.ReadFile(args[0])
	}
	r2, err := storage.NewR2(ctx, config.R2(e.v))
	if err != nil {
		return extract.Document{}, err
	}
	e.log.WithField("key", r2Key).Debug("downloading resume from r2")
	return r2.Fetch(ctx, r2Key)
}

func writeOutput(stdout io.Writer, path, text string) error {
	if path == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
