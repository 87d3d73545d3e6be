package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# mouse support (click to move the caret)
mouse: false
# wrap text at width (0 uses the terminal width)
width: 0

tts:
  # speech engine: mock, piper, gtts or openai
  engine: "piper"
  # engine used after repeated failures of the main engine (empty disables)
  fallback: "gtts"
  # voice id, see "readaloud voices"
  voice: ""
  # speaking rate (0.1 to 10), pitch (0 to 2) and volume (0 to 1)
  rate: 1.0
  pitch: 1.0
  volume: 1.0

  # quiet period before voice changes restart playback
  debounce_window: "1.5s"
  # how often reading statistics refresh
  stats_interval: "1s"
  # longest document read, in characters
  max_document_length: 10000

  sample_rate: 22050
  # sentences synthesized ahead of playback
  lookahead: 2

  cache:
    enabled: true
    # dir: "~/.cache/readaloud/audio"
    memory_mb: 32
    disk_mb: 256
    # zstd compression level for audio on disk (0 stores it raw)
    level: 3

  piper:
    binary: "piper"
    # model: "~/.local/share/piper/en_US-lessac-medium.onnx"
    # model_dir: "~/.local/share/piper"
    speaker: 0
    timeout: "10s"

  gtts:
    binary: "gtts-cli"
    requests_per_minute: 50
    timeout: "30s"

  openai:
    # api_key is read from OPENAI_API_KEY when unset
    # base_url: "https://api.openai.com/v1"
    model: "tts-1-hd"

  mock:
    words_per_minute: 180
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readaloud config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readaloud config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readaloud config\nreadaloud config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("readaloud", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
