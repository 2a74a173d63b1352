package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is the application version, set via ldflags.
var version = "dev"

func main() {
	if err := newApp(viper.New()).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// newApp builds the command tree. Every flag is bound to a key of v, so the
// precedence is default < config file < CHARA_* env < flag.
func newApp(v *viper.Viper) *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "chara-fs",
		Short: "chara-fs explores a project directory the way a coding agent needs it.",
		Long: `chara-fs lists, walks, summarises and searches directories while honouring
.gitignore rules, hiding dotfiles and skipping .git, node_modules and .chara.
Results are printed as text for humans or as JSON/YAML for tools, and the same
operations are served to agents over MCP with "chara-fs serve".`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			// Anything that is not a subcommand is a mistyped operation.
			return unknownOperationError(args[0])
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/chara/config.toml)")
	pf.StringP("output", "o", "", "Output format: text, json or yaml (default text on a terminal, json otherwise)")
	pf.BoolP("hidden", "H", false, "Include hidden files and directories")
	pf.Bool("no-ignore", false, "Don't filter entries matched by .gitignore")
	pf.BoolP("clipboard", "c", false, "Copy the formatted result to the clipboard")
	pf.Bool("tokens", false, "Report how many tokens the formatted result costs")
	pf.String("tokenizer", "tiktoken", "Tokenizer to use: tiktoken or huggingface")
	pf.String("model", "", "Model name for tokenizer (e.g., gpt-4o, gpt2)")
	pf.String("tokenizer-file", "", "Path to local tokenizer file")
	pf.Bool("return-errors", false, "Print failures as a structured error result instead of failing")
	pf.Bool("debug", false, "Enable debug logging")
	for key, flag := range map[string]string{
		"output":         "output",
		"hidden":         "hidden",
		"no_ignore":      "no-ignore",
		"clipboard":      "clipboard",
		"tokens":         "tokens",
		"tokenizer":      "tokenizer",
		"model":          "model",
		"tokenizer_file": "tokenizer-file",
		"return_errors":  "return-errors",
		"debug":          "debug",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}
	setLimitDefaults(v)

	rootCmd.AddCommand(
		newListCommand(v),
		newTreeCommand(v),
		newStatsCommand(v),
		newFindCommand(v),
		newServeCommand(v),
	)
	return rootCmd
}

func newListCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list [PATH]",
		Aliases: []string{"ls", "dir"},
		Short:   "List the entries of a single directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := baseRequest(v, "list", args)
			req.IncludeSize, _ = cmd.Flags().GetBool("size")
			return runRequest(cmd, v, req)
		},
	}
	cmd.Flags().BoolP("size", "s", false, "Show file sizes")
	return cmd
}

func newTreeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tree [PATH]",
		Aliases: []string{"walk", "show"},
		Short:   "Print a directory tree",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := baseRequest(v, "tree", args)
			req.IncludeSize, _ = cmd.Flags().GetBool("size")
			req.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
			return runRequest(cmd, v, req)
		},
	}
	cmd.Flags().BoolP("size", "s", false, "Show file sizes")
	cmd.Flags().IntP("max-depth", "d", 0, "Depth of the tree (0 uses default_tree_depth)")
	return cmd
}

func newStatsCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "stats [PATH]",
		Aliases: []string{"du", "info", "count"},
		Short:   "Count files, directories and sizes below a directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, v, baseRequest(v, "stats", args))
		},
	}
}

func newFindCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "find PATTERN [PATH]",
		Aliases: []string{"search", "glob", "locate"},
		Short:   "Find files and directories matching a glob pattern",
		Long: `Find files and directories matching a glob pattern, case-insensitively.
Separate alternatives with '|'. A bare word such as "config" matches every
path containing it.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := baseRequest(v, "find", args[1:])
			req.Pattern = args[0]
			req.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
			return runRequest(cmd, v, req)
		},
	}
	cmd.Flags().StringSliceP("exclude", "e", nil, "Additional patterns to exclude (comma-separated)")
	return cmd
}

func newServeCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the operations over MCP on stdio",
		Long: `Serve list_directory, directory_tree, directory_stats, find_files and the
generic filesystem tool over MCP on stdio.

Expected to be executed via an AI agent, not by a human`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveMCP(cmd.Context(), newExplorerFromViper(v))
		},
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "chara"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("toml")
	}

	v.SetEnvPrefix("CHARA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configErr := v.ReadInConfig()

	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if v.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	if configErr == nil {
		logrus.Debugf("using config file %s", v.ConfigFileUsed())
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(configErr, &notFound) {
		logrus.Debug("no config file found, using defaults and flags")
		return nil
	}
	return fmt.Errorf("error reading config file: %w", configErr)
}

func newExplorerFromViper(v *viper.Viper) *Explorer {
	return NewExplorer(limitsFromViper(v), logrus.NewEntry(logrus.StandardLogger()))
}

func baseRequest(v *viper.Viper, op string, args []string) Request {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	respect := !v.GetBool("no_ignore")
	return Request{
		Operation:        op,
		Path:             path,
		IncludeHidden:    v.GetBool("hidden"),
		RespectGitignore: &respect,
		ReturnErrors:     v.GetBool("return_errors"),
	}
}

// runRequest dispatches req and delivers the result to stdout, and to the
// clipboard when asked.
func runRequest(cmd *cobra.Command, v *viper.Viper, req Request) error {
	res, err := newExplorerFromViper(v).Dispatch(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	format := v.GetString("output")
	if format == "" {
		format = defaultOutputFormat(out)
	}
	if err := writeResult(out, res, format); err != nil {
		return err
	}

	text := formattedText(res)
	if v.GetBool("tokens") {
		reportTokens(cmd.ErrOrStderr(), v, text)
	}
	if v.GetBool("clipboard") {
		if err := clipboard.WriteAll(text); err != nil {
			logrus.WithError(err).Warn("could not write to clipboard")
		} else {
			color.New(color.FgGreen).Fprintln(cmd.ErrOrStderr(), "Output copied to clipboard.")
		}
	}
	return nil
}

// defaultOutputFormat picks text for terminals and json for pipes.
func defaultOutputFormat(w io.Writer) string {
	if f, ok := w.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return "text"
		}
	}
	return "json"
}

func reportTokens(w io.Writer, v *viper.Viper, text string) {
	tk, err := getTokenizer(TokenizerConfig{
		Kind:  v.GetString("tokenizer"),
		Model: v.GetString("model"),
		File:  v.GetString("tokenizer_file"),
	})
	if err != nil {
		logrus.WithError(err).Warn("token counting disabled")
		return
	}
	defer tk.Close()
	fmt.Fprintf(w, "Tokens: %d\n", tk.CountTokens(text))
}

// printError renders err for a terminal, with the suggestion when there is one.
func printError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	if te, ok := AsToolError(err); ok {
		red.Fprintln(w, te.Render())
		return
	}
	red.Fprintf(w, "Error: %v\n", err)
}
