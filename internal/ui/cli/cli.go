// Package cli is the pyuml command tree.
package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const versionString = "1.0.0"

// options holds flags shared by every command.
type options struct {
	configPath     string
	output         string
	exclude        []string
	includePrivate bool
	noRecursive    bool
	entryClass     string
	entryMethod    string
	rootDir        string
	maxDepth       int
	sets           []string
	verbose        bool
	metricsAddr    string

	stdout io.Writer
	stderr io.Writer
}

// Run executes the command tree and returns the process exit code.
func Run(args []string) int {
	root := newRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "pyuml",
		Short: "Generate PlantUML diagrams from Python sources",
		Long: `pyuml statically analyzes Python source trees and writes PlantUML
class, sequence, activity and state diagrams, with an index per kind.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file path (default ./pyuml.toml)")
	pf.StringVarP(&opts.output, "output", "o", "", "output directory (overrides output.dir)")
	pf.StringSliceVar(&opts.exclude, "exclude", nil, "additional path substrings to skip")
	pf.BoolVar(&opts.includePrivate, "include-private", false, "include _private members")
	pf.BoolVar(&opts.noRecursive, "no-recursive", false, "do not descend into subdirectories")
	pf.StringVar(&opts.entryClass, "entry-class", "", "sequence entry class")
	pf.StringVar(&opts.entryMethod, "entry-method", "", "sequence entry method")
	pf.StringVar(&opts.rootDir, "root-dir", "", "sequence scan root (defaults to the source)")
	pf.IntVar(&opts.maxDepth, "max-depth", 0, "sequence call depth limit (1-10)")
	pf.StringArrayVar(&opts.sets, "set", nil, "generator override key=value (repeatable)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")

	root.AddCommand(
		newGenerateCommand(opts),
		newIndexCommand(opts),
		newWatchCommand(opts),
		newHistoryCommand(opts),
		newInitCommand(opts),
		newVersionCommand(opts),
	)
	return root
}

func newVersionCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of pyuml",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "pyuml v%s\n", versionString)
		},
	}
}

// parseSets turns key=value pairs into generator overrides. Booleans and
// integers are typed; everything else stays a string.
func parseSets(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", pair)
		}
		value = strings.TrimSpace(value)
		if b, err := strconv.ParseBool(value); err == nil {
			out[key] = b
			continue
		}
		if n, err := strconv.Atoi(value); err == nil {
			out[key] = n
			continue
		}
		out[key] = value
	}
	return out, nil
}
