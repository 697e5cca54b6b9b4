package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/icco/melodygrid/internal/apperr"
	"github.com/icco/melodygrid/internal/export"
	"github.com/icco/melodygrid/internal/session"
)

var (
	exportMIDIFlag bool
	exportWAVFlag  bool
	importFlag     string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the saved melody as MIDI and WAV files",
	Long: `Export the saved melody without starting the TUI.

The melody saved with 's' in the editor is loaded, or a MIDI file given with
--from, and written to the output directory as melody.mid and melody.wav.

Example:
  melodygrid export --wav --out ~/Music
`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportMIDIFlag, "midi", false, "write melody.mid")
	exportCmd.Flags().BoolVar(&exportWAVFlag, "wav", false, "write melody.wav")
	exportCmd.Flags().StringVar(&exportDirFlag, "out", "", "output directory (overrides the config file)")
	exportCmd.Flags().StringVar(&importFlag, "from", "", "read the grid from a MIDI file instead of the saved melody")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	sess := newSession()
	if err := loadForExport(sess); err != nil {
		return fmt.Errorf("%s: %w", apperr.Reason(err), err)
	}

	dir := cfg.ExportDir
	if exportDirFlag != "" {
		dir = exportDirFlag
	}
	// Neither flag means both files.
	if !exportMIDIFlag && !exportWAVFlag {
		exportMIDIFlag, exportWAVFlag = true, true
	}

	if exportMIDIFlag {
		data, err := sess.ExportMIDI()
		if err != nil {
			return err
		}
		path, err := export.WriteFile(dir, export.MIDIFileName, data)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
	}
	if exportWAVFlag {
		data, err := sess.ExportWAV(cmd.Context())
		if err != nil {
			return err
		}
		path, err := export.WriteFile(dir, export.WAVFileName, data)
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s\n", path)
	}
	return nil
}

func loadForExport(sess *session.Session) error {
	if importFlag == "" {
		return sess.Load()
	}
	f, err := os.Open(importFlag)
	if err != nil {
		return apperr.Wrap(err, apperr.InvalidSavedData, "The MIDI file could not be opened.")
	}
	defer func() { _ = f.Close() }()
	skipped, err := sess.ImportMIDI(f)
	if err != nil {
		return err
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "%d notes outside the grid were skipped\n", skipped)
	}
	return nil
}
