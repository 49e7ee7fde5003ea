package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracefold/internal/contraction"
)

// PatternResult is one shape and its realized signatures.
type PatternResult struct {
	Shape      []int    `json:"shape"`
	Signatures []string `json:"signatures"`
}

// EnumerateResult is the enumerate command's output.
type EnumerateResult struct {
	Points   int             `json:"points"`
	Patterns []PatternResult `json:"patterns"`
}

// String renders each shape followed by its indented signatures.
func (r EnumerateResult) String() string {
	var b strings.Builder
	for i, p := range r.Patterns {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(contraction.FormatShape(p.Shape))
		for _, sig := range p.Signatures {
			b.WriteString("\n  ")
			b.WriteString(sig)
		}
	}
	return b.String()
}

// NewEnumerateCommand creates the enumerate command.
func NewEnumerateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enumerate <points>",
		Short: "List the contraction patterns of an even number of points",
		Long: `List every contraction shape of the given even number of points
(at most 10) with its realized, de-duplicated signatures.

Example:
  tracefold enumerate 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runEnumerate(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	n, err := strconv.Atoi(arg)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, ExitCommandError, fmt.Sprintf("invalid point count %q", arg), err)
	}

	patterns, err := contraction.NewEnumerator().Patterns(n)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, ExitCommandError, fmt.Sprintf("cannot enumerate %d points", n), err)
	}

	result := EnumerateResult{Points: n, Patterns: make([]PatternResult, len(patterns))}
	for i, p := range patterns {
		sigs := make([]string, len(p.Signatures))
		for j, s := range p.Signatures {
			sigs[j] = s.String()
		}
		result.Patterns[i] = PatternResult{Shape: p.Shape, Signatures: sigs}
	}
	return formatter.Success(result)
}
