package cli

import (
	"github.com/spf13/cobra"

	"github.com/contextkit/contextkit/internal/mcpserver"
)

// NewMCPCommand creates the mcp command: serves select and symbol search
// as Model Context Protocol tools over stdio.
func NewMCPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve select and symbol search as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			srv := mcpserver.New(a.store, a.embed, a.tok, a.cfg)
			return srv.Run(cmd.Context())
		},
	}
}
