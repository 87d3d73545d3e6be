// Package main provides the entry point for the readaloud CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/document"
	"github.com/dgnsrekt/readaloud/tts/engines/factory"
	"github.com/dgnsrekt/readaloud/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	engineName    string
	voice         string
	rate          float64
	width         uint
	mouse         bool
	fromClipboard bool
	headless      bool
	dryRun        bool

	rootCmd = &cobra.Command{
		Use:   "readaloud [FILE|-]",
		Short: "Read documents aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead text, Markdown and EPUB documents aloud, %s.", keyword("following along word by word")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return validateOptions()
		},
		RunE: execute,
	}
)

func validateOptions() error {
	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")

	if fromClipboard && headless {
		return errors.New("cannot read the clipboard in headless mode")
	}
	if !headless && !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Debug("Stdout is not a terminal, reading headless")
		headless = true
	}
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

// loadDocument reads the document named by args. It returns the absolute
// path of the file, or an empty path for stdin and the clipboard.
func loadDocument(args []string, limit int) (*document.Document, string, error) {
	if fromClipboard {
		doc, err := document.FromClipboard(limit)
		return doc, "", err
	}

	// if stdin is a pipe then use stdin for input. note that you can also
	// explicitly use a - to read from stdin.
	pipe, err := stdinIsPipe()
	if err != nil {
		return nil, "", err
	}
	if (len(args) == 1 && args[0] == "-") || (len(args) == 0 && pipe) {
		doc, err := document.FromReader(os.Stdin, limit)
		if err != nil {
			return nil, "", fmt.Errorf("unable to read from stdin: %w", err)
		}
		return doc, "", nil
	}

	if len(args) == 0 {
		return document.New(nil), "", nil
	}

	p, err := filepath.Abs(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("unable to get absolute path: %w", err)
	}
	doc, err := document.Load(p, limit)
	if err != nil {
		return nil, "", fmt.Errorf("unable to open file: %w", err)
	}
	return doc, p, nil
}

func execute(_ *cobra.Command, args []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}

	doc, path, err := loadDocument(args, cfg.MaxDocumentLength)
	if err != nil {
		return err
	}

	opts := factory.Options{}
	if dryRun {
		opts.Output = audio.NewSimulated(nil, audio.Format{SampleRate: cfg.SampleRate, Channels: 1})
	}
	engine, err := factory.New(cfg, opts)
	if err != nil {
		return fmt.Errorf("unable to create speech engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctrl := tts.NewController(engine, doc, cfg.ToControllerConfig(nil))
	defer ctrl.Dispose()

	if headless {
		return runHeadless(ctx, ctrl)
	}
	return runTUI(ctx, ctrl, path, cfg.MaxDocumentLength)
}

// runHeadless reads the whole document once, logging progress.
func runHeadless(ctx context.Context, ctrl *tts.Controller) error {
	if ctrl.Document().IsBlank() {
		return errors.New("nothing to read: pass a file, pipe text or use --clipboard")
	}

	log.SetOutput(os.Stderr)

	done := make(chan struct{})
	var (
		once    sync.Once
		mu      sync.Mutex
		failure error
	)
	ctrl.OnNotify(func(msg tea.Msg) {
		switch msg := msg.(type) {
		case tts.StateChangedMsg:
			log.Info("State changed", "state", msg.State, "reason", msg.Reason)
			if msg.State == tts.StateIdle && msg.PrevState != tts.StateIdle {
				once.Do(func() { close(done) })
			}
		case tts.StatsMsg:
			log.Info("Progress", "elapsed", msg.Stats.Elapsed, "rate", msg.Stats.Rate, "eta", msg.Stats.ETA)
		case tts.NoticeMsg:
			log.Error("Playback problem", "err", msg.Err)
			if !msg.Recoverable {
				mu.Lock()
				failure = msg.Err
				mu.Unlock()
			}
		}
	})

	if err := ctrl.Init(ctx); err != nil {
		return err
	}
	if err := ctrl.Play(0); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		ctrl.Stop()
	}
	mu.Lock()
	defer mu.Unlock()
	return failure
}

func runTUI(ctx context.Context, ctrl *tts.Controller, path string, limit int) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.MaxDocumentLength = limit
	if width > 0 {
		cfg.MaxWidth = width
	}
	cfg.EnableMouse = cfg.EnableMouse || mouse

	// Run Bubble Tea program
	if _, err := ui.NewProgram(ctx, cfg, ctrl).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	loadDotEnv()
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVarP(&engineName, "engine", "e", "", "speech engine (mock, piper, gtts or openai)")
	rootCmd.Flags().StringVar(&voice, "voice", "", "voice to read with")
	rootCmd.Flags().Float64VarP(&rate, "rate", "r", 1.0, "speaking rate multiplier (0.1 to 10)")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "wrap text at width (set to 0 to use the terminal width)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support (click to move the caret)")
	rootCmd.Flags().BoolVarP(&fromClipboard, "clipboard", "c", false, "read the clipboard contents")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "read without the terminal interface")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "time playback without producing sound")

	// Config bindings
	_ = viper.BindPFlag("tts.engine", rootCmd.PersistentFlags().Lookup("engine"))
	_ = viper.BindPFlag("tts.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("tts.rate", rootCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("width", 0)
	viper.SetDefault("mouse", false)
	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd)
}

// loadDotEnv loads engine credentials from a .env file in the working
// directory, if there is one.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("Could not parse .env file", "err", err)
	}
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}

	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
	viper.AutomaticEnv()
	_ = viper.BindEnv("openai_api_key", "OPENAI_API_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "readaloud.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
