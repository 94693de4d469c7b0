package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/texona/internal/script"
)

func newRunCmd(e *env) *cobra.Command {
	var undo int

	cmd := &cobra.Command{
		Use:   "run <id> <script.lua>",
		Short: "Run a Lua script against a project",
		Long: `Run opens the project, executes the script and saves the resulting canvas
back to the project. Every edit the script makes is recorded in the undo
history; --undo steps back through that history before the final save.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := e.openEditor(cmd, args[0])
			if err != nil {
				return err
			}
			defer ed.Close()

			r := script.New(ed,
				script.WithOutput(cmd.OutOrStdout()),
				script.WithTimeout(e.cfg.Script().Timeout),
				script.WithLogger(e.logger.With("component", "script")),
			)
			if err := r.RunFile(cmd.Context(), args[1]); err != nil {
				return err
			}

			for i := 0; i < undo && ed.CanUndo(); i++ {
				if err := ed.Undo(); err != nil {
					return err
				}
			}

			if err := ed.PersistError(); err != nil {
				return fmt.Errorf("save project: %w", err)
			}
			s := ed.Status()
			e.logger.Info("script applied", "project", args[0], "index", s.Index, "entries", s.Len)
			return nil
		},
	}
	cmd.Flags().IntVar(&undo, "undo", 0, "Undo this many steps after the script finishes")
	return needsStore(cmd)
}
