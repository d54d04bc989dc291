package cli

import (
	stdErrors "errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/rprtr258/fswatch/internal/config"
	"github.com/rprtr258/fswatch/internal/errors"
	xlog "github.com/rprtr258/fswatch/internal/log"
	"github.com/rprtr258/fswatch/pkg/fswatch"
)

var _cmdWatch = func() *cobra.Command {
	var (
		configPath string
		debug      bool
		maxRetries uint
		interval   time.Duration
	)
	cmd := &cobra.Command{
		Use:           "fswatch [flags] path...",
		Short:         "watch files and directories for changes",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}

			cfg, errConfig := config.Read(afero.NewOsFs(), configPath)
			if errConfig != nil && !stdErrors.Is(errConfig, config.ErrConfigNotExists) {
				return errors.Wrap(errConfig, "config")
			}

			if cmd.Flags().Lookup("debug").Changed {
				cfg.Debug = debug
			}
			if cmd.Flags().Lookup("max-retries").Changed {
				cfg.MaxRetries = maxRetries
			}
			if cmd.Flags().Lookup("interval").Changed {
				cfg.PollInterval = interval
			}

			log.Logger = xlog.New(cfg.Debug)

			w, errWatch := fswatch.New(
				fswatch.WithMaxRetries(cfg.MaxRetries),
				fswatch.WithPollInterval(cfg.PollInterval),
				fswatch.WithLogger(log.Logger),
			)
			if errWatch != nil {
				return errors.Wrap(errWatch, "create watcher")
			}

			w.Subscribe(func(e fswatch.Event) {
				switch e.Type {
				case fswatch.EventChange:
					log.Info().
						Str("path", e.Path).
						Time("mtime", e.Stat.ModTime).
						Bool("dir", e.Stat.IsDir).
						Int64("size", e.Stat.Size).
						Msg("change")
				case fswatch.EventRemoved:
					log.Warn().Str("path", e.Path).Msg("removed")
				case fswatch.EventClose:
					log.Info().Msg("closed")
				}
			})

			w.Add(args...)
			if len(w.Watched()) == 0 {
				_ = w.Close()
				return errors.New("no existing paths to watch")
			}
			for _, path := range w.Watched() {
				log.Info().Str("path", path).Msg("watching")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()

			return w.Close()
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	cmd.Flags().UintVar(&maxRetries, "max-retries", config.Default.MaxRetries, "watch re-establishment attempts")
	cmd.Flags().DurationVar(&interval, "interval", 0, "periodic verification sweep interval, 0 disables")
	return cmd
}()
