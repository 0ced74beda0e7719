package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	a := newApp()
	rootCmd := &cobra.Command{
		Use:   "srcweb",
		Short: "Render source trees as cross-referenced hypertext",
		Long: `srcweb turns source files into HTML pages where every tagged name
links to its definitions, references or symbol occurrences.

Tags come from an indexer as JSONL facts, loaded with 'srcweb load' into
a SQLite database. Pages are written to HTML/S/<file id>.html.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: srcweb.yaml in . or the user config dir)")
	flags.String("db", "", "Tag database path")
	flags.BoolP("verbose", "v", false, "Log debug output")
	flags.BoolP("quiet", "q", false, "Only log errors")
	_ = a.v.BindPFlag("db", flags.Lookup("db"))

	// Tags
	loadCmd := &cobra.Command{
		Use:   "load <facts.jsonl>...",
		Short: "Load indexer facts into the tag database ('-' reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunLoad,
	}
	loadCmd.Flags().Bool("append", false, "Add to the existing tags instead of replacing them")

	// Render
	renderCmd := &cobra.Command{
		Use:   "render <file>...",
		Short: "Render files to their pages",
		Args:  cobra.MinimumNArgs(1),
		RunE:  RunRender,
	}
	renderCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	renderCmd.Flags().Bool("stdout", false, "Write pages to stdout instead of the output directory")
	renderCmd.Flags().Bool("not-source", false, "Render as plain text without links")

	renderTreeCmd := &cobra.Command{
		Use:   "render-tree [path]",
		Short: "Render every changed file of a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunRenderTree,
	}
	renderTreeCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	renderTreeCmd.Flags().Bool("force", false, "Render every file, changed or not")
	renderTreeCmd.Flags().IntP("jobs", "j", 0, "Parallel renderers (default from config)")
	renderTreeCmd.Flags().Bool("all", false, "Also render files of unknown languages as plain text")
	renderTreeCmd.Flags().Bool("json", false, "Print machine-readable run summary")
	_ = a.v.BindPFlag("jobs", renderTreeCmd.Flags().Lookup("jobs"))

	checkCmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Diff the page of a file against a fresh render",
		Args:  cobra.ExactArgs(1),
		RunE:  RunCheck,
	}
	checkCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	checkCmd.Flags().Bool("not-source", false, "Render as plain text without links")

	// Inspect
	statusCmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show tag database stats and what render-tree would render",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunStatus,
	}
	statusCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
	statusCmd.Flags().Bool("all", false, "Include files of unknown languages")
	statusCmd.Flags().Bool("json", false, "Print machine-readable status output")

	doctorCmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Validate srcweb setup and page freshness",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	// Setup
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write srcweb.yaml",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunConfigInit,
	}
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  RunConfigShow,
	}
	configCmd.AddCommand(configInitCmd, configShowCmd)

	installHookCmd := &cobra.Command{
		Use:   "install-hook",
		Short: "Install a git post-commit hook that refreshes pages",
		RunE:  RunInstallHook,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "srcweb %s\n", version)
		},
	}

	rootCmd.AddCommand(
		loadCmd,
		renderCmd,
		renderTreeCmd,
		checkCmd,
		statusCmd,
		doctorCmd,
		configCmd,
		installHookCmd,
		versionCmd,
	)

	return rootCmd
}
