package cmd

import (
	"github.com/spf13/cobra"

	"github.com/icco/melodygrid/internal/tui"
)

var (
	exportDirFlag string
	midiOutFlag   string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Edit and play the grid in the terminal",
	Long: `Start the step sequencer with an interactive TUI interface.

Move with the arrow keys or hjkl, toggle notes with space and press p to
play. Press ? for the full list of keys.`,
	RunE: runPlay,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, playCmd} {
		c.Flags().StringVar(&exportDirFlag, "out", "", "directory for exported files (overrides the config file)")
		c.Flags().StringVar(&midiOutFlag, "midi-out", "", "MIDI output port to mirror notes to")
	}
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	sess := newSession()
	defer closeSynth()

	opts := tui.Options{
		ExportDir: cfg.ExportDir,
		MIDIOut:   cfg.MIDIOut,
	}
	if exportDirFlag != "" {
		opts.ExportDir = exportDirFlag
	}
	if midiOutFlag != "" {
		opts.MIDIOut = midiOutFlag
	}
	return tui.Run(sess, opts)
}
