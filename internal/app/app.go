package app

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:           "adoflow",
		Short:         "Azure DevOps keywords for test automation",
		Long:          "adoflow updates Azure DevOps work items from test runs and attaches failure screenshots as evidence.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	quiet bool

	initHandler           = handleInit
	updateStateHandler    = handleUpdateState
	attachHandler         = handleAttachIfFailed
	latestHandler         = handleLatestScreenshot
	runHandler            = handleRun
	keywordsHandler       = handleKeywords
	openHandler           = handleOpen
	testConnectionHandler = handleTestConnection
	configShowHandler     = handleConfigShow
	configSetHandler      = handleConfigSet
	configValHandler      = handleConfigValidate
	configPathHandler     = handleConfigPath
)

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Silence request logging")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(updateStateCmd)
	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(latestCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(keywordsCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(testConnectionCmd)
	rootCmd.AddCommand(configCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize adoflow configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return initHandler(cmd.Context())
	},
}

var updateStateJSON bool

var updateStateCmd = &cobra.Command{
	Use:   "update-state <project> <work-item-id> <state> <description> <test-cycle>",
	Short: "Update state, description and test cycle of a work item",
	Args:  cobra.ExactArgs(5),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateStateHandler(cmd.Context(), args[0], args[1], args[2], args[3], args[4], updateStateJSON)
	},
}

var attachJSON bool

var attachCmd = &cobra.Command{
	Use:   "attach-if-failed <project> <work-item-id> <screenshot> <test-status>",
	Short: "Attach a screenshot to a work item comment when the test status is FAIL",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return attachHandler(cmd.Context(), args[0], args[1], args[2], args[3], attachJSON)
	},
}

var latestPattern string

var latestCmd = &cobra.Command{
	Use:   "latest-screenshot [directory]",
	Short: "Print the newest screenshot in a directory",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		return latestHandler(dir, latestPattern, cmd.Flags().Changed("pattern"))
	},
}

var runCmd = &cobra.Command{
	Use:   "run <keyword> [args...]",
	Short: "Run a keyword by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHandler(cmd.Context(), args[0], args[1:])
	},
}

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "List available keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		return keywordsHandler()
	},
}

var openProject string

var openCmd = &cobra.Command{
	Use:   "open <work-item-id>",
	Short: "Open a work item in the browser",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return openHandler(openProject, args[0])
	},
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Test Azure DevOps API connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return testConnectionHandler(cmd.Context())
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowHandler()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return configSetHandler(args[0], args[1])
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configValHandler(cmd.Context())
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configPathHandler()
	},
}

func init() {
	updateStateCmd.Flags().BoolVar(&updateStateJSON, "json", false, "Output the updated work item as JSON")
	attachCmd.Flags().BoolVar(&attachJSON, "json", false, "Output the updated work item as JSON")
	latestCmd.Flags().StringVar(&latestPattern, "pattern", "", "File name prefix; an empty value matches any .png (default from config or selenium-screenshot-)")
	runCmd.Flags().SetInterspersed(false)
	openCmd.Flags().StringVar(&openProject, "project", "", "Project name (default from config)")

	configCmd.AddCommand(configShowCmd, configSetCmd, configValidateCmd, configPathCmd)
}
