package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/zberg/go-adcp/internal/config"
	"github.com/zberg/go-adcp/internal/controller"
	"github.com/zberg/go-adcp/pkg/adcp"
)

var (
	configPath string
	target     adcp.DeviceConfig
	timeout    time.Duration
	logLevel   string
	logger     *slog.Logger

	pictureMemory string
	metricsAddr   string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML file with switch definitions")
	flags.StringVar(&target.Host, "host", "", "Projector address (ignored with --config)")
	flags.IntVar(&target.Port, "port", adcp.DefaultPort, "Projector ADCP port")
	flags.StringVar(&target.Password, "password", "", "ADCP password")
	flags.StringVar(&target.CommandOn, "command-on", adcp.DefaultCommand, "Command template for on")
	flags.StringVar(&target.CommandOff, "command-off", adcp.DefaultCommand, "Command template for off")
	flags.DurationVar(&timeout, "timeout", 5*time.Second, "Connect and per-reply timeout")
	flags.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	onCmd.Flags().StringVar(&pictureMemory, "picture-memory", adcp.DefaultPictureMemory, "Picture memory slot")
	offCmd.Flags().StringVar(&pictureMemory, "picture-memory", adcp.DefaultPictureMemory, "Picture memory slot")
	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(offCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}

func setupLogger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	return nil
}

var onCmd = &cobra.Command{
	Use:   "on [switch]",
	Short: "Switch a projector on",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args, true)
	},
}

var offCmd = &cobra.Command{
	Use:   "off [switch]",
	Short: "Switch a projector off",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch(cmd, args, false)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached state of every switch",
	Long: `Show the cached state of every switch. The state is only learned from
successful on/off commands, so a fresh process reports every switch as unknown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, _, err := loadController()
		if err != nil {
			return err
		}
		for _, state := range ctrl.States() {
			fmt.Fprintln(cmd.OutOrStdout(), state)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report cached switch state on the scan interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, interval, err := loadController()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if metricsAddr != "" {
			registry := prometheus.NewRegistry()
			registry.MustRegister(adcp.MetricsCollectors()...)
			srv := &http.Server{
				Addr:              metricsAddr,
				Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", "addr", metricsAddr, "error", err)
				}
			}()
			defer srv.Close()
			logger.Info("serving metrics", "addr", metricsAddr)
		}

		err = ctrl.Poll(ctx, interval, func(states []controller.SwitchState) {
			for _, state := range states {
				fmt.Fprintln(cmd.OutOrStdout(), state)
			}
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func runSwitch(cmd *cobra.Command, args []string, on bool) error {
	ctrl, _, err := loadController()
	if err != nil {
		return err
	}

	id, err := pickSwitch(ctrl, args)
	if err != nil {
		return err
	}

	params := adcp.CommandParams{PictureMemory: pictureMemory}
	if on {
		err = ctrl.TurnOn(cmd.Context(), id, params)
	} else {
		err = ctrl.TurnOff(cmd.Context(), id, params)
	}
	if err != nil {
		return err
	}

	state, err := ctrl.State(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), state)
	return nil
}

// loadController builds switches from --config, or a single "projector"
// switch from the device flags.
func loadController() (*controller.Controller, time.Duration, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, 0, err
		}
		ctrl, err := controller.FromConfig(cfg, logger)
		return ctrl, cfg.ScanInterval, err
	}

	if target.Host == "" {
		return nil, 0, errors.New("projector address required: use --host or --config")
	}
	link, err := adcp.NewLink(target,
		adcp.WithConnectTimeout(timeout),
		adcp.WithReadTimeout(timeout),
		adcp.WithLogger(logger),
	)
	if err != nil {
		return nil, 0, err
	}
	return controller.New(map[string]controller.Switch{"projector": link}, logger), config.DefaultScanInterval, nil
}

func pickSwitch(ctrl *controller.Controller, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	ids := ctrl.IDs()
	if len(ids) == 1 {
		return ids[0], nil
	}
	return "", fmt.Errorf("switch name required, one of: %s", strings.Join(ids, ", "))
}
