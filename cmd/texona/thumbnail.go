package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dshills/texona/internal/canvas"
)

var errNoThumbnail = errors.New("project has no thumbnail")

func newThumbnailCmd(e *env) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "thumbnail <id>",
		Short: "Write a project's thumbnail image",
		Long: `Thumbnail decodes the stored thumbnail and writes the image to --output,
or to standard output when it is not a terminal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.ThumbnailURL == "" {
				return errNoThumbnail
			}
			data, err := canvas.DecodeDataURL(p.ThumbnailURL)
			if err != nil {
				return err
			}

			if output != "" && output != "-" {
				return os.WriteFile(output, data, 0o644)
			}
			w := cmd.OutOrStdout()
			if isTerminal(w) {
				return errors.New("refusing to write image data to a terminal; use --output")
			}
			_, err = w.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default standard output)")
	return needsStore(cmd)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
