// Command phone-agent-launch prepares a workstation for the phone
// automation agent: it activates the project's virtual environment, takes a
// single census of connected Android devices, and prints a readiness report
// ending with the commands to run next.
//
// The launcher reports instead of enforcing. A missing environment or an
// absent adb binary shows up in the report; the exit code stays zero unless
// the report itself cannot be written.
package main

import (
	"context"
	"os"

	"github.com/phone-agent/launcher/internal/cli"
)

func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
