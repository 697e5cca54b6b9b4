package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/icco/melodygrid/internal/audio"
	"github.com/icco/melodygrid/internal/config"
	"github.com/icco/melodygrid/internal/debug"
	"github.com/icco/melodygrid/internal/sequencer"
	"github.com/icco/melodygrid/internal/session"
	"github.com/icco/melodygrid/internal/store"
)

var (
	configPath string
	debugFlag  bool
	tempoFlag  int

	cfg      *config.Config
	closeLog func()
)

var rootCmd = &cobra.Command{
	Use:   "melodygrid",
	Short: "A terminal step sequencer",
	Long: `melodygrid is a Terminal User Interface (TUI) step sequencer built with Bubbletea.

Toggle notes on an 8x16 grid of a pentatonic scale, play the loop at any tempo
from 40 to 240 BPM, save it, and export it as a WAV or Standard MIDI File.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			closeLog()
		}
	},
	RunE: runPlay,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/melodygrid/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "write a debug log next to the config file")
	rootCmd.PersistentFlags().IntVar(&tempoFlag, "tempo", 0, "initial tempo in BPM (overrides the config file)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if tempoFlag != 0 {
		cfg.Tempo = tempoFlag
	}

	logPath := filepath.Join(cfg.DataDir, "debug.log")
	if dir, err := config.Dir(); err == nil {
		logPath = filepath.Join(dir, "debug.log")
	}
	closeLog, err = debug.Setup(logPath, cfg.Debug || debugFlag)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"command": cmd.Name(),
		"tempo":   cfg.Tempo,
		"data":    cfg.DataDir,
	}).Debug("starting")
	return nil
}

var (
	synthOnce sync.Once
	synth     *audio.Synth
	synthErr  error
)

// openSynth creates the audio output once per process; oto allows a single
// context.
func openSynth() (*audio.Synth, error) {
	synthOnce.Do(func() {
		synth, synthErr = audio.NewSynth(cfg.SynthOptions())
	})
	return synth, synthErr
}

func newSession() *session.Session {
	return session.New(session.Options{
		Tempo: cfg.Tempo,
		Audio: func() (sequencer.Synthesizer, error) {
			s, err := openSynth()
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		Store:    store.NewFileStore(cfg.DataDir),
		Renderer: cfg.Renderer(),
	})
}

func closeSynth() {
	if synth != nil {
		_ = synth.Close()
	}
}
