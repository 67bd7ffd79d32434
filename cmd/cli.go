package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/govis/internal/app"
	"github.com/tejashwikalptaru/govis/internal/config"
	"github.com/tejashwikalptaru/govis/internal/domain"
	"github.com/tejashwikalptaru/govis/internal/logger"
	"github.com/tejashwikalptaru/govis/internal/visualizer"
)

// options are the flags shared by every command.
type options struct {
	configPath string
	logLevel   string
	mode       string
	fps        int
	demo       bool
	remote     string

	cfg *config.Config
}

// newRootCommand builds the govis command tree.
func newRootCommand(stdout io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "govis",
		Short:         "Audio-reactive visualizer",
		Version:       app.CurrentBuild().String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetVersionTemplate("GoVis {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML config file (default "+config.DefaultFile+" if present)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVarP(&opts.mode, "mode", "m", "", "Visualization mode (see 'govis modes')")
	flags.IntVar(&opts.fps, "fps", 0, "Frames per second")
	flags.BoolVar(&opts.demo, "demo", false, "Animate synthetic audio data instead of a track")
	flags.StringVar(&opts.remote, "remote", "", "Serve the websocket remote control on this address")

	rootCmd.AddCommand(newRunCommand(opts), newRenderCommand(opts, stdout), newModesCommand(stdout))
	return rootCmd
}

// load reads the config file and applies the flags the user set.
func (o *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("mode") {
		mode, err := domain.ParseMode(o.mode)
		if err != nil {
			return err
		}
		cfg.Settings.Mode = &mode
	}
	if flags.Changed("fps") {
		cfg.Render.FPS = o.fps
	}
	if flags.Changed("demo") {
		cfg.Demo = o.demo
	}
	if flags.Changed("remote") {
		cfg.Remote = config.RemoteConfig{Enabled: true, Address: o.remote}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Open the visualizer window, optionally playing an audio file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.DefaultConfig()
			cfg.Runtime = *opts.cfg
			if len(args) == 1 {
				cfg.OpenFile = args[0]
			}

			application, err := app.NewApplication(cfg)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer func() {
				if err := application.Shutdown(); err != nil {
					fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
				}
			}()

			// Close the window on SIGINT/SIGTERM so Run returns and cleanup runs.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				application.Quit()
			}()

			return application.Run()
		},
	}
}

func newRenderCommand(opts *options, stdout io.Writer) *cobra.Command {
	var (
		render  app.RenderOptions
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render frames to PNG without opening a window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if render.OutDir == "" && outFile == "" {
				return fmt.Errorf("nothing to write: set --out-dir or --output")
			}
			render.Logger = logger.NewLogger(opts.cfg.LoggerConfig())

			switch outFile {
			case "":
			case "-":
				render.Out = stdout
			default:
				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				defer f.Close()
				render.Out = f
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := app.Render(ctx, *opts.cfg, render)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "rendered %d %s frames (%d drawn, %d idle, %d failed)\n",
				res.Stats.Ticks, res.Mode, res.Stats.Drawn, res.Stats.Idle, res.Stats.Failed)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&render.Width, "width", 640, "Frame width in pixels")
	flags.IntVar(&render.Height, "height", 360, "Frame height in pixels")
	flags.IntVarP(&render.Frames, "frames", "n", 60, "Number of frames to render")
	flags.StringVarP(&render.Input, "input", "i", "", "Audio file to analyze (synthetic data when empty)")
	flags.Uint64Var(&render.Seed, "seed", 1, "Seed for synthetic data and particles")
	flags.StringVar(&render.OutDir, "out-dir", "", "Directory receiving one PNG per frame")
	flags.StringVarP(&outFile, "output", "o", "", "File receiving the last frame as PNG ('-' for stdout)")
	return cmd
}

func newModesCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List visualization modes",
		Args:  cobra.NoArgs,
		// Listing needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range visualizer.Modes() {
				fmt.Fprintf(stdout, "%-10s %s\n", m.Mode, m.Name)
			}
		},
	}
}

// execute runs the CLI with args.
func execute(ctx context.Context, args []string, stdout io.Writer) error {
	rootCmd := newRootCommand(stdout)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}
