package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

// completeFilters completes a severity filter argument.
func completeFilters(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, f := range models.SeverityFilters {
		if strings.HasPrefix(string(f), toComplete) {
			out = append(out, string(f))
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeJSONFiles restricts file completion to .json files.
func completeJSONFiles(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}
