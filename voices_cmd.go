package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/audio"
	"github.com/dgnsrekt/readaloud/tts/engines/factory"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [QUERY]",
	Short:   "List the voices of the speech engine",
	Long:    paragraph(fmt.Sprintf("\n%s the voices the configured engine offers, grouped by language. A query filters them by id, name or language.", keyword("List"))),
	Example: paragraph("readaloud voices\nreadaloud voices --engine openai\nreadaloud voices british"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := tts.LoadConfigFromViper()
		if err != nil {
			return err
		}

		// Listing voices needs no audio device.
		out := audio.NewSimulated(nil, audio.Format{SampleRate: cfg.SampleRate, Channels: 1})
		cfg.Cache.Enabled = false
		engine, err := factory.New(cfg, factory.Options{Output: out})
		if err != nil {
			return fmt.Errorf("unable to create speech engine: %w", err)
		}

		var query string
		if len(args) == 1 {
			query = args[0]
		}
		voices := tts.FilterVoices(engine.Voices(), query)
		if len(voices) == 0 {
			fmt.Fprintln(os.Stderr, "No voices found.")
			return nil
		}

		fmt.Print(voiceList(tts.GroupVoices(voices)))
		return nil
	},
}

// voiceList renders groups as a heading per locale followed by its voices.
func voiceList(groups []tts.VoiceGroup) string {
	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(keyword(g.Name))
		if g.Locale != "" {
			b.WriteString(" " + faint(g.Locale))
		}
		b.WriteString("\n")
		for _, v := range g.Voices {
			fmt.Fprintf(&b, "  %s", v.ID)
			if v.Name != "" && v.Name != v.ID {
				b.WriteString(" " + faint(v.Name))
			}
			if v.Gender != "" {
				b.WriteString(" " + faint("("+v.Gender+")"))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
