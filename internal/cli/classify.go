package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tokyo-gender/rosterkit/internal/gender"
	"github.com/tokyo-gender/rosterkit/internal/names"
)

var classifyMethod string

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <name>...",
	Short: "Show how names are cleaned, filtered and classified",
	Long: `Classify runs the name filter and the gender rule sets on each
argument and prints the result, with the reason a string is rejected.

Example:
  roster classify 花子 金子太郎 図書館蔵
  roster classify --method modern ヨシ`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		methods, err := parseMethods(classifyMethod)
		if err != nil {
			return err
		}
		return writeClassification(cmd.OutOrStdout(), args, methods)
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyMethod, "method", "both", "gender rule set: legacy, modern or both")
}

// parseMethods turns the --method flag into rule sets in column order
func parseMethods(s string) ([]gender.Method, error) {
	if strings.EqualFold(strings.TrimSpace(s), "both") {
		return gender.Methods, nil
	}
	m, err := gender.ParseMethod(s)
	if err != nil {
		return nil, err
	}
	return []gender.Method{m}, nil
}

func writeClassification(out io.Writer, candidates []string, methods []gender.Method) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := "INPUT\tNAME\tIS_NAME\tREASON"
	for _, m := range methods {
		header += "\t" + strings.ToUpper(string(m))
	}
	fmt.Fprintln(tw, header)

	for _, c := range candidates {
		eval, reason := names.Explain(c)
		row := fmt.Sprintf("%s\t%s\t%t\t%s", c, eval.Name, eval.IsName, reason)
		for _, m := range methods {
			g := ""
			if eval.IsName {
				g = string(gender.Classify(eval.Name, m))
			}
			row += "\t" + dash(g)
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
