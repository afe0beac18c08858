package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/csheth/chromaseek/internal/api"
	"github.com/csheth/chromaseek/internal/config"
	"github.com/csheth/chromaseek/internal/controller"
	"github.com/csheth/chromaseek/internal/dropzone"
	"github.com/csheth/chromaseek/internal/prefs"
	"github.com/csheth/chromaseek/internal/telemetry"
	"github.com/csheth/chromaseek/internal/tui"
)

func rootCMD() *cobra.Command {
	var cfgPath string
	var noAltScreen bool
	var exportDir string

	root := &cobra.Command{
		Use:           "chromaseek",
		Short:         "Ask questions about your PDFs from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg, noAltScreen, exportDir)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./chromaseek.*)")
	addSettingFlags(root.PersistentFlags())
	root.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
	root.Flags().StringVar(&exportDir, "export-dir", ".", "directory for exported HTML pages")

	root.AddCommand(snapshotCMD(&cfgPath))
	return root
}

// addSettingFlags declares one flag per config key; config.Load only honours
// the ones set on the command line.
func addSettingFlags(flags *pflag.FlagSet) {
	flags.String("api-base", "", "backend base URL")
	flags.Int("top-k", 0, "initial number of passages to retrieve (1-20)")
	flags.Duration("notify-after", 0, "how long notifications stay visible")
	flags.String("prefs-path", "", "preferences file")
	flags.String("drop-dir", "", "folder watched for PDFs to upload")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("log-file", "", "debug log destination")
}

func newController(cfg config.Config, recorder telemetry.Recorder) *controller.Controller {
	client := api.New(api.Config{BaseURL: cfg.APIBase})
	store := prefs.Open(cfg.PrefsPath)
	log.Printf("[main] backend %s, preferences %s", client.BaseURL(), store.Path())
	return controller.New(controller.Config{
		Backend:     client,
		Prefs:       store,
		Recorder:    recorder,
		NotifyAfter: cfg.NotifyAfter,
	})
}

func runTUI(parent context.Context, cfg config.Config, noAltScreen bool, exportDir string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	if cfg.LogFile != "" {
		logFile, err := tea.LogToFile(cfg.LogFile, "chromaseek")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
	}
	log.Printf("[main] top-k %d, notifications for %s", cfg.TopK, cfg.NotifyAfter)

	var recorder telemetry.Recorder = telemetry.Nop{}
	if cfg.MetricsAddr != "" {
		metrics := telemetry.NewMetrics()
		recorder = metrics
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Printf("[main] metrics server: %v", err)
			}
		}()
	}

	var drops <-chan []string
	if cfg.DropDir != "" {
		watcher, err := dropzone.New(nil, 0)
		if err != nil {
			return fmt.Errorf("create drop watcher: %w", err)
		}
		defer watcher.Stop()
		drops, err = watcher.Watch(ctx, cfg.DropDir)
		if err != nil {
			return fmt.Errorf("watch %s: %w", cfg.DropDir, err)
		}
		log.Printf("[main] watching %s for PDFs", cfg.DropDir)
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Context:    ctx,
			Controller: newController(cfg, recorder),
			TopK:       cfg.TopK,
			Drops:      drops,
			PickerDir:  cfg.DropDir,
			ExportDir:  exportDir,
		}),
		opts...,
	)
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
