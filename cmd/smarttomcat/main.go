// Command smarttomcat links Java web projects into a Tomcat run profile.
//
// Usage:
//
//	smarttomcat link [dir]           # deploy a project directory
//	smarttomcat relink <web.xml>     # redeploy from a web.xml descriptor
//	smarttomcat resolve [dir]        # print the inferred layout
//	smarttomcat server add <home>    # register a Tomcat installation
//	smarttomcat profile show [name]  # print a run profile
//	smarttomcat serve                # run the HTTP API
//
// Configuration is read from an optional YAML file (--config) and from
// SMARTTOMCAT_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Exit codes.
const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitFlowError       = 3
	ExitHTTPServerError = 4
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return exitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// Command Errors
// =============================================================================

// CommandError carries the exit code of a failed command.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// exitCode maps err to a process exit code. Errors that do not carry one
// are treated as flow failures.
func exitCode(err error) int {
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return ExitFlowError
}
