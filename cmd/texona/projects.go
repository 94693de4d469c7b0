package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/dshills/texona/internal/project"
)

func newNewCmd(e *env) *cobra.Command {
	var width, height float64

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a project with a blank workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := e.cfg.Canvas()
			if !cmd.Flags().Changed("width") {
				width = float64(cc.WorkspaceWidth)
			}
			if !cmd.Flags().Changed("height") {
				height = float64(cc.WorkspaceHeight)
			}

			p, err := e.store.Create(cmd.Context(), args[0], width, height)
			if err != nil {
				return err
			}

			// Opening seeds the workspace and saves the first document.
			ed, err := e.openEditor(cmd, p.ID)
			if err != nil {
				return err
			}
			defer ed.Close()
			if err := ed.PersistError(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	cmd.Flags().Float64Var(&width, "width", 0, "Workspace width (default from config)")
	cmd.Flags().Float64Var(&height, "height", 0, "Workspace height (default from config)")
	return needsStore(cmd)
}

func newListCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := e.store.List(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), projects, "No projects found.")
		},
	}
	return needsStore(cmd)
}

func printSummaries(w io.Writer, items []project.Summary, empty string) error {
	if len(items) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTHUMBNAIL\tUPDATED")
	for _, p := range items {
		thumb := "-"
		if p.HasThumbnail {
			thumb = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%gx%g\t%s\t%s\n",
			p.ID, p.Name, p.Width, p.Height, thumb, p.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func newShowCmd(e *env) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project and its document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if p.JSON == "" {
					fmt.Fprintln(out, "{}")
					return nil
				}
				fmt.Fprint(out, gjson.Get(p.JSON, "@pretty").String())
				return nil
			}

			doc := gjson.Parse(p.JSON)
			fmt.Fprintf(out, "ID:         %s\n", p.ID)
			fmt.Fprintf(out, "Name:       %s\n", p.Name)
			if p.IsTemplate {
				fmt.Fprintln(out, "Template:   yes")
			}
			fmt.Fprintf(out, "Workspace:  %gx%g\n", p.Width, p.Height)
			fmt.Fprintf(out, "Objects:    %d\n", doc.Get("objects.#").Int())
			if bg := doc.Get("background"); bg.Exists() {
				fmt.Fprintf(out, "Background: %s\n", bg.String())
			}
			fmt.Fprintf(out, "Thumbnail:  %d bytes\n", len(p.ThumbnailURL))
			fmt.Fprintf(out, "Created:    %s\n", p.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Updated:    %s\n", p.UpdatedAt.Local().Format(time.DateTime))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored canvas document")
	return needsStore(cmd)
}

func newDeleteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete one or more projects",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, id := range args {
				if err := e.store.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing %s: %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d projects not removed", failed, len(args))
			}
			return nil
		},
	}
	return needsStore(cmd)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of texona",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "texona %s (%s, %s)\n", version, commit, date)
		},
	}
}
