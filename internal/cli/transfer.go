package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the full event list as JSON",
	Long: `Write every stored event, ignoring the severity filter, to
flowpulse-events.json as pretty-printed JSON. The file lands in --dir, or in
export.dir from .flowpulse.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		_, state, err := Service.Export(resolveExportDir())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), state.Status)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the event list with events from a JSON file",
	Long: `Read a JSON array of events and replace the stored list with it.

Elements that are not valid events are skipped. The import fails, leaving the
stored events untouched, if the file is not JSON, is not an array, or holds a
non-empty array without a single valid event. At most 200 events are kept.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeJSONFiles,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Service == nil {
			return errNotInitialized
		}
		state, err := Service.ImportFile(args[0])
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), state.Status)
		return nil
	},
}

// resolveExportDir picks the --dir flag, then the configured directory.
func resolveExportDir() string {
	if exportDir != "" {
		return exportDir
	}
	if Config != nil && Config.Export.Dir != "" {
		return Config.Export.Dir
	}
	return "."
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "dir", "", "Directory to write flowpulse-events.json into")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}
