// Package main provides the readcommand CLI.
// readcommand reads shell-style commands from the terminal, continuing across lines
// while a quote is open or a line ends in a backslash, and prints the parsed
// arguments of each command.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"readcommand/internal/catalog"
	"readcommand/internal/config"
	"readcommand/internal/history"
	"readcommand/internal/logger"
	"readcommand/internal/shell"
	"readcommand/internal/version"
)

var (
	cfgFile      string
	envFile      string
	outputFormat string
	committed    []string

	loader *config.Loader
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "readcommand",
	Short: "Read shell-style commands with multi-line continuation and completion",
	Long: `readcommand reads commands the way a shell does: quotes and backslashes are honoured,
an open quote or a trailing backslash continues the command on the next line, the up and
down keys recall earlier commands and Tab completes arguments from a command catalog.`,
	SilenceUsage: true,
	RunE:         runLoop,
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Read commands until end of input and print each one",
	Long:  `Read commands interactively. Press Ctrl+C twice in a row or Ctrl+D to exit.`,
	RunE:  runLoop,
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read a single command and print it",
	RunE:  runRead,
}

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Print how a command string is tokenized",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeOutput(cmd.OutOrStdout(), outputFormat, newParseReport(args[0]))
	},
}

var completeCmd = &cobra.Command{
	Use:   "complete <fragment>",
	Short: "Print completion candidates for a partially typed command",
	Long: `Print the arguments handed to the completion catalog and the rendered candidates.
Pass --committed once per line of a multi-line command that was already entered,
in order. Each value is one physical line and may contain backslashes and quotes as typed.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if outputFormat == formatText {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
			return err
		}
		info, err := version.GetInfo()
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), outputFormat, info)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file [default: $XDG_CONFIG_HOME/readcommand/config.yaml]")
	flags.StringVar(&envFile, "env-file", ".env", "Load READCOMMAND_ variables from this .env file if it exists")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.Bool(config.KeyQuiet, false, "Only log errors")
	flags.String(config.KeyPS1, "", "Prompt for the first line of a command")
	flags.String(config.KeyPS2, "", "Prompt for continuation lines")
	flags.String(config.KeyHistoryFile, "", "File to load and save command history")
	flags.Int(config.KeyHistoryLimit, 0, "Maximum number of history entries")
	flags.String(config.KeyCatalog, "", "YAML completion catalog [default: built-in]")

	for _, key := range []string{
		config.KeyLogLevel, config.KeyLogFile, config.KeyQuiet,
		config.KeyPS1, config.KeyPS2,
		config.KeyHistoryFile, config.KeyHistoryLimit, config.KeyCatalog,
	} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}

	for _, c := range []*cobra.Command{readCmd, parseCmd, completeCmd, versionCmd} {
		c.Flags().StringVarP(&outputFormat, "output", "o", formatText, "Output format (text|json|yaml)")
	}
	completeCmd.Flags().StringArrayVar(&committed, "committed", nil, "A line of the command already entered (repeatable)")

	rootCmd.AddCommand(loopCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(versionCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	loader = config.NewLoader(viper.GetViper(), logger.NewStyledLogger("Config"))

	cfg, err := loader.Load(config.Options{ConfigFile: cfgFile, DotEnvFile: envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Configure(cfg.LogLevel, cfg.LogFile, cfg.Quiet); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
	loader.SetLogger(logger.NewStyledLogger("Config"))
}

// session holds what an interactive read needs.
type session struct {
	reader      *shell.Reader
	source      shell.LineSource
	history     *history.History
	historyFile string
}

// loadCatalog returns the configured completion catalog, or the built-in one.
func loadCatalog(cfg config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Catalog)
}

func newSession() (*session, error) {
	cfg := loader.Current()

	h := history.New(cfg.HistoryLimit)
	if cfg.HistoryFile != "" {
		if err := h.Load(cfg.HistoryFile); err != nil {
			logger.Warn("Could not load history", "file", cfg.HistoryFile, "error", err)
		}
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var promptOut io.Writer = io.Discard
	if term.IsTerminal(int(os.Stderr.Fd())) {
		promptOut = os.Stderr
	}

	source, err := shell.NewSource(os.Stdin, os.Stdout, promptOut, shell.TerminalConfig{
		History:  h,
		Complete: cat.Complete,
		Logger:   logger.NewStyledLogger("Terminal"),
	})
	if err != nil {
		return nil, err
	}

	reader := shell.NewReader(source,
		shell.WithPrompts(cfg.Prompts()),
		shell.WithHistory(h),
		shell.WithLogger(logger.NewStyledLogger("Reader")),
	)

	if loader.Watch(func(updated config.Config) {
		reader.SetPrompts(updated.Prompts())
	}) {
		logger.Debug("Watching config file", "file", loader.ConfigFileUsed())
	}

	return &session{reader: reader, source: source, history: h, historyFile: cfg.HistoryFile}, nil
}

func (s *session) close() {
	if s.historyFile != "" && s.history.Len() > 0 {
		if err := s.history.Save(s.historyFile); err != nil {
			logger.Warn("Could not save history", "file", s.historyFile, "error", err)
		}
	}
	if err := shell.CloseSource(s.source); err != nil {
		logger.Debug("Closing line source failed", "error", err)
	}
}

// output returns the terminal's writer when reading interactively so printed
// commands do not clobber the prompt.
func (s *session) output(fallback io.Writer) io.Writer {
	if t, ok := s.source.(*shell.Terminal); ok {
		return t.Stdout()
	}
	return fallback
}

func runLoop(cmd *cobra.Command, _ []string) error {
	logger.Debug("Starting readcommand", "version", version.GetFormattedVersion())

	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	out := s.output(cmd.OutOrStdout())
	var writeErr error
	interrupts := 0

	err = s.reader.Loop(func(c shell.Command, err error) bool {
		if errors.Is(err, shell.ErrInterrupted) {
			if interrupts == 1 {
				return false
			}
			interrupts++
			_, writeErr = fmt.Fprintln(out, "Press ^C again to exit.")
			return writeErr == nil
		}
		interrupts = 0

		writeErr = writeCommand(out, c)
		return writeErr == nil
	})
	if err != nil {
		return err
	}
	return writeErr
}

func runRead(cmd *cobra.Command, _ []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.close()

	c, err := s.reader.Read()
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	}

	if c.Raw != "" {
		s.history.Add(c.FirstLine())
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, c)
}

func runComplete(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(loader.Current())
	if err != nil {
		return err
	}

	report, err := newCompleteReport(joinCommitted(committed), args[0], cat.Complete)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), outputFormat, report)
}

// joinCommitted builds the committed buffer from physical lines, each followed by a
// newline as the reader accumulates them.
func joinCommitted(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
