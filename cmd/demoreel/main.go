// Command demoreel drives the compose pipeline: compose records a
// scenario and renders a video, validate checks a scenario and config
// without driving a browser, and inspect prints a prior render's
// persisted timeline.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/demoreel/internal/cliprint"
	"github.com/ivlev/demoreel/internal/compose"
	"github.com/ivlev/demoreel/internal/config"
	"github.com/ivlev/demoreel/internal/driver"
	"github.com/ivlev/demoreel/internal/logging"
	"github.com/ivlev/demoreel/internal/scenario"
	"github.com/ivlev/demoreel/internal/timeline"
	"github.com/ivlev/demoreel/internal/tts"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "demoreel",
		Short:         "Record a browser scenario into a narrated demo video",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newComposeCmd(), newValidateCmd(), newInspectCmd())
	return root
}

type composeFlags struct {
	configFile  string
	outDir      string
	resolution  string
	noVoiceover bool
	noCursor    bool
	reuseAudio  string
	local       bool
	debug       bool
}

func newComposeCmd() *cobra.Command {
	var f composeFlags
	cmd := &cobra.Command{
		Use:   "compose <scenario>",
		Short: "Record a scenario and render it to a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(cmd.Context(), args[0], f)
		},
	}
	cmd.Flags().StringVar(&f.configFile, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&f.outDir, "out", "", "output directory root (overrides config's output_dir)")
	cmd.Flags().StringVar(&f.resolution, "resolution", "", "WxH, e.g. 1920x1080")
	cmd.Flags().BoolVar(&f.noVoiceover, "no-voiceover", false, "skip narration synthesis and the divergence check")
	cmd.Flags().BoolVar(&f.noCursor, "no-cursor", false, "don't draw the synthetic cursor overlay")
	cmd.Flags().StringVar(&f.reuseAudio, "reuse-audio", "", "reuse a prior version's narration if its script hash matches")
	cmd.Flags().Lookup("reuse-audio").NoOptDefVal = "auto"
	cmd.Flags().BoolVar(&f.local, "local-tts", false, "use the offline TTS bridge instead of the cloud provider")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "verbose structured logging")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Parse a scenario and config without recording anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args[0], configFile)
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to a TOML config file")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <version-dir>",
		Short: "Print a summary of a prior render's persisted timeline.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
	return cmd
}

func runCompose(ctx context.Context, scenarioPath string, f composeFlags) error {
	print := cliprint.Stderr()

	cfg, err := config.Load(f.configFile)
	if err != nil {
		print.Fail("config", err)
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	applyComposeFlags(&cfg, f, scenarioPath)

	if err := cfg.Validate(); err != nil {
		print.Fail("config", err)
		return err
	}

	log, err := logging.New(f.debug)
	if err != nil {
		print.Fail("logging", err)
		return err
	}
	defer log.Sync()

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		print.Fail("scenario", err)
		return err
	}

	var provider tts.Provider
	if !cfg.NoVoiceover {
		provider, err = newProvider(cfg, f.local)
		if err != nil {
			print.Fail("tts", err)
			return err
		}
	}

	var launcher driver.Launcher = driver.RodLauncher{}

	result, err := compose.Run(ctx, cfg, sc, launcher, provider, print, log)
	if err != nil {
		// compose.Run already reported the failing stage via print.Fail.
		return err
	}

	print.Done("wrote %s (version %s)", result.OutputFile, result.VersionDir)
	return nil
}

func applyComposeFlags(cfg *config.Config, f composeFlags, scenarioPath string) {
	cfg.ScenarioFile = scenarioPath
	if f.outDir != "" {
		cfg.OutputDir = f.outDir
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if f.resolution != "" {
		if w, h, ok := parseResolution(f.resolution); ok {
			cfg.Width, cfg.Height = w, h
		}
	}
	cfg.NoVoiceover = cfg.NoVoiceover || f.noVoiceover
	cfg.NoCursor = cfg.NoCursor || f.noCursor
	if f.reuseAudio != "" {
		if f.reuseAudio == "auto" {
			cfg.ReuseAudio = cfg.OutputDir
		} else {
			cfg.ReuseAudio = f.reuseAudio
		}
	}
	if f.local {
		cfg.TTSProvider = "local"
	}
}

func parseResolution(s string) (int, int, bool) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

func newProvider(cfg config.Config, local bool) (tts.Provider, error) {
	if local || cfg.TTSProvider == "local" {
		return tts.NewLocalProvider(tts.LocalConfig{Voice: cfg.TTSVoice}), nil
	}
	return tts.NewCloudProvider(tts.CloudConfig{
		Name:     cfg.TTSProvider,
		Endpoint: os.Getenv("DEMOREEL_TTS_ENDPOINT"),
		APIKey:   cfg.TTSAPIKey,
		Model:    cfg.TTSVoice,
	})
}

func runValidate(scenarioPath, configFile string) error {
	print := cliprint.Stderr()

	cfg, err := config.Load(configFile)
	if err != nil {
		print.Fail("config", err)
		return err
	}
	cfg.ApplyEnv(os.LookupEnv)
	cfg.ScenarioFile = scenarioPath
	if err := cfg.Validate(); err != nil {
		print.Fail("config", err)
		return err
	}

	sc, err := scenario.Load(scenarioPath)
	if err != nil {
		print.Fail("scenario", err)
		return err
	}

	texts := sc.CollectNarration()
	print.Done("scenario %q OK: %d steps, %d narration segments", sc.Name, len(sc.Steps), len(texts))
	return nil
}

func runInspect(versionDir string) error {
	print := cliprint.Stderr()

	data, err := os.ReadFile(filepath.Join(versionDir, "timeline.json"))
	if err != nil {
		print.Fail("inspect", err)
		return err
	}
	tl, err := timeline.Parse(data)
	if err != nil {
		print.Fail("inspect", err)
		return err
	}

	totalFrames := timeline.TotalOutputFrames(tl.Metadata.FrameManifest, tl.Metadata.TransitionMarkers)
	fmt.Printf("scenario:    %s\n", tl.Metadata.ScenarioFile)
	fmt.Printf("viewport:    %dx%d @ %dfps\n", tl.Metadata.Viewport.Width, tl.Metadata.Viewport.Height, tl.Metadata.FPS)
	fmt.Printf("events:      %d\n", len(tl.Events))
	fmt.Printf("manifest:    %d entries\n", len(tl.Metadata.FrameManifest))
	fmt.Printf("transitions: %d\n", len(tl.Metadata.TransitionMarkers))
	fmt.Printf("output frames: %d (%.1fs)\n", totalFrames, float64(totalFrames)/float64(tl.Metadata.FPS))
	return nil
}
