package condor

import (
	"fmt"
	"io"
	"path/filepath"
)

// SubmitOptions describes the per-node submit description referenced by a
// DAG. The argument string may use the macros published via VARS, e.g.
// $(index) and $(suffix).
type SubmitOptions struct {
	Executable string
	Arguments  string
	LogDir     string
	LogStem    string // e.g. "job.$(cluster).$(process)"
	InputFiles []string
}

// WriteSubmit writes a vanilla-universe submit description.
func WriteSubmit(w io.Writer, opts SubmitOptions) error {
	stem := opts.LogStem
	if stem == "" {
		stem = "job.$(cluster).$(process)"
	}

	lines := []string{
		"universe = vanilla",
		fmt.Sprintf("executable = %s", opts.Executable),
		fmt.Sprintf("arguments = \"%s\"", opts.Arguments),
		fmt.Sprintf("log = %s", filepath.Join(opts.LogDir, stem+".log")),
		fmt.Sprintf("output = %s", filepath.Join(opts.LogDir, stem+".out")),
		fmt.Sprintf("error = %s", filepath.Join(opts.LogDir, stem+".err")),
		"should_transfer_files = YES",
		"when_to_transfer_output = ON_EXIT",
	}
	if len(opts.InputFiles) > 0 {
		transfer := ""
		for i, f := range opts.InputFiles {
			if i > 0 {
				transfer += ", "
			}
			transfer += f
		}
		lines = append(lines, fmt.Sprintf("transfer_input_files = %s", transfer))
	}
	lines = append(lines, "queue 1")

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
