package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/config"
	"github.com/contextkit/contextkit/internal/ctxerr"
)

// NewInitCommand creates the init command for initializing a project.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a contextkit project in the current directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinitialize even if a project already exists here")
	return cmd
}

func runInit(force bool) error {
	dir, err := os.Getwd()
	if err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "resolving working directory", err)
	}

	if config.Initialized(dir) && !force {
		return ctxerr.New(ctxerr.AlreadyInitialized, fmt.Sprintf("a contextkit project already exists at %s", config.Path(dir))).
			WithSuggestion("pass --force to reinitialize")
	}

	if err := config.Save(dir, config.Defaults()); err != nil {
		return ctxerr.Wrap(ctxerr.DatabaseError, "writing project config", err)
	}

	if !quiet {
		fmt.Printf("Initialized contextkit project at %s\n", config.Path(dir))
	}
	return nil
}
