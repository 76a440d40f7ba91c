// Package chdman shells out to the external chdman tool to extract a
// CHD-compressed disc image back to a raw .cue/.bin or .iso pair, the
// one operation the Rom Verifier needs before it can hash a CHD's
// contents. Compression and the rest of chdman's subcommands are out
// of scope here.
package chdman

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecError reports a chdman invocation that ran but failed, carrying
// whatever error text it printed.
type ExecError struct {
	Subcommand string
	Output     string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("chdman %s failed: %s", e.Subcommand, e.Output)
}

const successMarker = "Extraction complete"

// ExtractCD runs `chdman extractcd` against input, writing the result
// to output. force overwrites an existing output file.
func ExtractCD(ctx context.Context, binary, input, output string, force bool) error {
	args := []string{"extractcd", "-i", input, "-o", output}
	if force {
		args = append(args, "-f")
	}
	return run(ctx, binary, "extractcd", args)
}

func run(ctx context.Context, binary, subcommand string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	combined := stdout.String() + stderr.String()

	if strings.Contains(combined, successMarker) {
		return nil
	}
	if idx := strings.Index(combined, "Error:"); idx != -1 {
		return &ExecError{Subcommand: subcommand, Output: strings.TrimSpace(combined[idx:])}
	}
	if runErr != nil {
		return &ExecError{Subcommand: subcommand, Output: strings.TrimSpace(combined)}
	}
	return nil
}
