package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/flowpulse/pkg/models"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the synthetic event stream",
	Long: `Persist running=false so that a running dashboard or stream runner stops
synthesizing events until the stream is resumed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		Service.SetRunning(false)
		fmt.Fprintln(cmd.OutOrStdout(), "Stream paused.")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the synthetic event stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		Service.SetRunning(true)
		fmt.Fprintln(cmd.OutOrStdout(), "Stream resumed.")
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the stored event history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		state := Service.Clear()
		fmt.Fprintln(cmd.OutOrStdout(), state.Status)
		return nil
	},
}

var filterCmd = &cobra.Command{
	Use:   "filter [all|info|warn|error]",
	Short: "Show or set the severity filter",
	Long: `Without arguments, print the current severity filter. With an argument,
persist a new filter. The filter limits which events are listed, summarized
and drawn by the dashboard; export always writes the full list.`,
	ValidArgsFunction: completeFilters,
	Args:              cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), Service.State().Filter)
			return nil
		}
		state, err := Service.SetFilter(models.SeverityFilter(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Severity filter set to %s.\n", state.Filter)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(filterCmd)
}
