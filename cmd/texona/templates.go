package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDuplicateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "duplicate <id>",
		Aliases: []string{"cp"},
		Short:   "Copy a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.store.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p.ID)
			return nil
		},
	}
	return needsStore(cmd)
}

func newTemplateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage project templates",
		Long: `Templates are stored projects that new projects start from. They are listed
separately from regular projects.`,
	}
	cmd.AddCommand(
		newTemplateSaveCmd(e),
		newTemplateListCmd(e),
		newTemplateUseCmd(e),
		newTemplateDeleteCmd(e),
	)
	return cmd
}

func newTemplateSaveCmd(e *env) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <project-id>",
		Short: "Save a project as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := e.store.SaveAsTemplate(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Template name (default the project name)")
	return needsStore(cmd)
}

func newTemplateListCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			templates, err := e.store.Templates(cmd.Context())
			if err != nil {
				return err
			}
			return printSummaries(cmd.OutOrStdout(), templates, "No templates found.")
		},
	}
	return needsStore(cmd)
}

func newTemplateUseCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use <template-id>",
		Short: "Create a project from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := e.store.UseTemplate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// Opening renders the copied document and stores its thumbnail.
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
	return needsStore(cmd)
}

func newTemplateDeleteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <template-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a template",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.store.DeleteTemplate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed template %s\n", args[0])
			return nil
		},
	}
	return needsStore(cmd)
}
