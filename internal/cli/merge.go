package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkovacev/gridplan/internal/condor"
	"github.com/mkovacev/gridplan/internal/planner/core"
)

func buildMergeCommand() *cobra.Command {
	var inputs []string
	var inputList string
	var output string
	var groupSize int
	var dagDir string
	var doSubmit bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Plan a merge tree over existing outputs",
		Long: `Reduce a list of files to a single artifact through levels of bounded
fan-in merges, written as an HTCondor DAG. Inputs come from --input flags,
an --input-list file (one path per line, # comments allowed), or both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadEnv()
			if err != nil {
				return err
			}

			files := append([]string{}, inputs...)
			if inputList != "" {
				listed, err := readInputList(inputList)
				if err != nil {
					return err
				}
				files = append(files, listed...)
			}

			size := groupSize
			if size <= 0 {
				size = cfg.Submit.GroupSize
			}

			tree, err := core.PlanMerge(files, size)
			if err != nil {
				return err
			}
			if tree.Depth() == 0 {
				logger.Info("Single input, nothing to merge", "result", tree.Result)
				return nil
			}

			graph, err := tree.Graph()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(dagDir, 0o755); err != nil {
				return err
			}

			name := strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
			if err := writeFileWith(filepath.Join(dagDir, "merge.submit"), func(f *os.File) error {
				return condor.WriteSubmit(f, condor.SubmitOptions{
					Executable: cfg.Submit.MergeTool,
					Arguments:  "$(output) $(inputs)",
					LogDir:     cfg.Submit.LogDir,
					LogStem:    "merge.$(cluster).$(process)",
				})
			}); err != nil {
				return err
			}

			dagFile := filepath.Join(dagDir, name+".dag")
			if err := writeFileWith(dagFile, func(f *os.File) error {
				return condor.WriteDAG(f, graph, condor.DAGOptions{
					SubmitFile:     "merge.submit",
					Retries:        cfg.Submit.Retries,
					StatusFile:     name + ".status",
					StatusInterval: cfg.Submit.StatusInterval,
				})
			}); err != nil {
				return err
			}

			logger.Info("Merge DAG written",
				"dag", dagFile,
				"inputs", tree.LeafCount,
				"depth", tree.Depth(),
				"result", tree.Result,
			)

			if doSubmit {
				return submitDAG(logger, dagFile)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "input file to merge (repeatable)")
	cmd.Flags().StringVarP(&inputList, "input-list", "f", "", "file listing inputs, one per line")
	cmd.Flags().StringVarP(&output, "output", "o", "", "name of the final merged artifact")
	cmd.Flags().IntVarP(&groupSize, "size", "s", 0, "inputs per merge (default from config)")
	cmd.Flags().StringVarP(&dagDir, "dag-dir", "d", "dag", "directory the DAG files are written to")
	cmd.Flags().BoolVar(&doSubmit, "submit", false, "run condor_submit_dag on the generated DAG")
	cmd.MarkFlagRequired("output")

	return cmd
}

// readInputList reads one input path per line, ignoring blank lines and
// # comments.
func readInputList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var files []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input list %s: %w", path, err)
	}
	return files, nil
}
