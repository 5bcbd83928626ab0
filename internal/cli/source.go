package cli

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/ctxerr"
	"github.com/contextkit/contextkit/internal/models"
)

// NewSourceCommand groups the source registration subcommands.
func NewSourceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage registered source roots",
	}
	cmd.AddCommand(newSourceAddCommand(), newSourceListCommand(), newSourceRemoveCommand())
	return cmd
}

func newSourceAddCommand() *cobra.Command {
	var include, exclude []string
	var name string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a new source root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			abs, err := filepath.Abs(args[0])
			if err != nil {
				return ctxerr.Wrap(ctxerr.InvalidUsage, "resolving source path", err)
			}

			id := name
			if id == "" {
				id = uuid.NewString()
			}

			src := models.Source{
				ID:       id,
				RootPath: abs,
				Include:  include,
				Exclude:  append(exclude, a.cfg.DefaultExclude...),
			}
			if err := a.store.UpsertSource(src); err != nil {
				return err
			}
			if !quiet {
				fmt.Printf("Registered source %s -> %s\n", src.ID, src.RootPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "stable name to identify this source (default: a random id)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "glob patterns to include (repeatable)")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "glob patterns to exclude (repeatable)")
	return cmd
}

func newSourceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			sources, err := a.store.ListSources()
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				fmt.Println("No sources registered. Run `contextkit source add <path>`.")
				return nil
			}
			for _, s := range sources {
				fmt.Printf("%s  %s  (last indexed: %s)\n", s.ID, s.RootPath, formatTime(s.LastIndexed))
			}
			return nil
		},
	}
}

func newSourceRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registered source (by the name given to `source add --name`) and its index data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteSource(args[0]); err != nil {
				return err
			}
			if !quiet {
				fmt.Printf("Removed source %s\n", args[0])
			}
			return nil
		},
	}
}
