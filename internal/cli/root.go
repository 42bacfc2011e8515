package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danieljhkim/rapidstruct/internal/logging"
)

var (
	// Global flags
	jsonOutput bool
	logLevel   string
	logFormat  string

	// Colors for help output sections
	groupTitleColor   = color.New(color.FgCyan, color.Bold)
	sectionTitleColor = color.New(color.FgBlue, color.Bold)
)

// rootCmd is the root command for rapidstruct.
var rootCmd = &cobra.Command{
	Use:     "rapidstruct",
	Version: "dev",
	Short:   "Derive radiotherapy planning structures from clinician-drawn inputs",
	Long: `rapidstruct derives optimisation and reporting structures for radiotherapy
planning from the structures a clinician has drawn.

A protocol lists the required inputs and an ordered table of margin, union,
intersection and subtraction steps. Runs check every precondition before
changing anything and remove intermediate structures when they finish.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		if logFormat != "text" && logFormat != "json" {
			return fmt.Errorf("unknown log format %q (want text or json)", logFormat)
		}
		logging.Init(level, logFormat, cmd.ErrOrStderr())
		return nil
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// customHelpFunc prints help with colored group titles.
func customHelpFunc(cmd *cobra.Command, args []string) {
	var help strings.Builder

	if cmd.Long != "" {
		help.WriteString(cmd.Long)
		help.WriteString("\n\n")
	}

	help.WriteString(sectionTitleColor.Sprint("Usage:"))
	fmt.Fprintf(&help, "\n  %s\n\n", cmd.UseLine())

	pad := cmd.NamePadding()
	for _, group := range cmd.Groups() {
		writeCommands(&help, groupTitleColor.Sprint(group.Title), commandsIn(cmd, group.ID), pad)
	}
	// subcommands such as "protocol ls" have no groups
	writeCommands(&help, sectionTitleColor.Sprint("Available Commands:"), commandsIn(cmd, ""), pad)

	if cmd.HasAvailableLocalFlags() || cmd.HasAvailableInheritedFlags() {
		help.WriteString(sectionTitleColor.Sprint("Flags:"))
		help.WriteString("\n")
		help.WriteString(cmd.LocalFlags().FlagUsages())
		help.WriteString(cmd.InheritedFlags().FlagUsages())
		help.WriteString("\n")
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(&help, "Use \"%s [command] --help\" for more information about a command.\n", cmd.CommandPath())
	}

	fmt.Fprint(cmd.OutOrStdout(), help.String())
}

// commandsIn returns the visible subcommands of cmd in the given group.
func commandsIn(cmd *cobra.Command, groupID string) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.GroupID != groupID {
			continue
		}
		// the help command is never "available" to cobra
		if c.IsAvailableCommand() || c.Name() == "help" {
			out = append(out, c)
		}
	}
	return out
}

func writeCommands(w *strings.Builder, title string, cmds []*cobra.Command, pad int) {
	if len(cmds) == 0 {
		return
	}
	w.WriteString(title)
	w.WriteString("\n")
	for _, c := range cmds {
		fmt.Fprintf(w, "  %-*s %s\n", pad, c.Name(), c.Short)
	}
	w.WriteString("\n")
}

func init() {
	// Set custom help function to color group titles
	rootCmd.SetHelpFunc(customHelpFunc)

	// Global flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "derivation",
		Title: "Derivation:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "protocols",
		Title: "Protocols & Reports:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "cli-tooling",
		Title: "CLI & Tooling:",
	})

	// CLI & Tooling commands
	versionCmd := &cobra.Command{
		Use:     "version",
		Short:   "Print the rapidstruct CLI version",
		Args:    cobra.NoArgs,
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	// Add help command to CLI & Tooling group
	helpCmd := &cobra.Command{
		Use:     "help [command]",
		Short:   "Help about any command",
		GroupID: "cli-tooling",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Root().Help()
		},
	}
	rootCmd.SetHelpCommand(helpCmd)

	// Add completion command to CLI & Tooling group
	completionCmd := &cobra.Command{
		Use:     "completion",
		Short:   "Generate the autocompletion script for the specified shell",
		GroupID: "cli-tooling",
		Long: `Generate the autocompletion script for rapidstruct for the specified shell.
See each sub-command's help for details on how to use the generated script.`,
	}
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "bash",
		Short:                 "Generate the autocompletion script for bash",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "zsh",
		Short:                 "Generate the autocompletion script for zsh",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "fish",
		Short:                 "Generate the autocompletion script for fish",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:                   "powershell",
		Short:                 "Generate the autocompletion script for powershell",
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		},
	})
	rootCmd.AddCommand(completionCmd)

	// Derivation commands
	runCmd.GroupID = "derivation"
	validateCmd.GroupID = "derivation"
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	restoreCmd.GroupID = "derivation"
	rootCmd.AddCommand(restoreCmd)

	// Protocol and report commands
	protocolCmd.GroupID = "protocols"
	reportCmd.GroupID = "protocols"
	rootCmd.AddCommand(protocolCmd)
	rootCmd.AddCommand(reportCmd)
}

// Execute executes the root command and prints any error it returns.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintln(rootCmd.ErrOrStderr(), formatError(err))
	}
	return err
}
