// alloc-admin - operator client for the internship allocation service.
//
// One binary, three front ends over the same workflows:
//   - CLI subcommands (default)
//   - alloc-admin gui → desktop dashboard
//   - alloc-admin tui → terminal dashboard
package main

import (
	"os"

	"github.com/pminternship/alloc-admin/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
