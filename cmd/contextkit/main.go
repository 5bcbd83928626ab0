// Command contextkit indexes a local source tree and selects the
// smallest relevant set of code chunks for a query within a token
// budget, as a CLI or an MCP server.
package main

import (
	"github.com/contextkit/contextkit/internal/cli"
)

func main() {
	cli.Execute()
}
