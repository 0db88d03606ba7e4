package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dreamware/shardsim/internal/cluster"
	"github.com/dreamware/shardsim/internal/coordinator"
)

// serveConfig is the configuration of the serve command.
type serveConfig struct {
	Addr            string         `mapstructure:"addr"`
	ShutdownTimeout time.Duration  `mapstructure:"shutdown-timeout"`
	Bounds          cluster.Bounds `mapstructure:"bounds"`
}

func newServeCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the coordinator",
		Long: `Start the HTTP coordinator that hosts simulation sessions.

Configuration is read, in increasing order of precedence, from defaults, an
optional YAML file (--conf), SHARDSIM_* environment variables and flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadServeConfig(v, configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, conf, nil)
		},
	}

	setServeDefaults(v)

	cmd.Flags().StringVarP(&configFile, "conf", "f", "", "Configuration file")
	cmd.Flags().String("addr", v.GetString("addr"), "Listen address")
	cmd.Flags().Duration("shutdown-timeout", v.GetDuration("shutdown-timeout"), "Graceful shutdown timeout")
	cmd.Flags().Int("max-nodes", v.GetInt("bounds.nodes.max"), "Largest accepted node count, 0 for no limit")
	cmd.Flags().Int("max-primaries", v.GetInt("bounds.primaries.max"), "Largest accepted primary count, 0 for no limit")
	cmd.Flags().Int("max-replicas", v.GetInt("bounds.replicas.max"), "Largest accepted replica count, 0 for no limit")
	cmd.Flags().Int("min-nodes", v.GetInt("bounds.nodes.min"), "Smallest accepted node count")

	for key, flag := range map[string]string{
		"addr":                 "addr",
		"shutdown-timeout":     "shutdown-timeout",
		"bounds.nodes.max":     "max-nodes",
		"bounds.primaries.max": "max-primaries",
		"bounds.replicas.max":  "max-replicas",
		"bounds.nodes.min":     "min-nodes",
	} {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
	return cmd
}

func setServeDefaults(v *viper.Viper) {
	bounds := cluster.DefaultBounds()
	v.SetDefault("addr", ":8080")
	v.SetDefault("shutdown-timeout", 5*time.Second)
	v.SetDefault("bounds.nodes.min", bounds.Nodes.Min)
	v.SetDefault("bounds.nodes.max", bounds.Nodes.Max)
	v.SetDefault("bounds.primaries.min", bounds.Primaries.Min)
	v.SetDefault("bounds.primaries.max", bounds.Primaries.Max)
	v.SetDefault("bounds.replicas.min", bounds.Replicas.Min)
	v.SetDefault("bounds.replicas.max", bounds.Replicas.Max)

	v.SetEnvPrefix("shardsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func loadServeConfig(v *viper.Viper, configFile string) (serveConfig, error) {
	conf := serveConfig{}

	if configFile != "" {
		v.SetConfigType("yaml")
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return conf, errors.Wrapf(err, "read config %s", configFile)
		}
	}

	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return conf, errors.Wrap(err, "failed to load serve config")
	}
	return conf, nil
}

// runServe serves the coordinator API until ctx is done. If ready is not nil it
// receives the bound address once the listener is open.
func runServe(ctx context.Context, conf serveConfig, ready func(addr string)) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sim := coordinator.NewSimulator(coordinator.Options{
		Bounds:  conf.Bounds,
		Metrics: coordinator.NewMetrics(reg),
	})
	sim.Health().SetOnTransition(func(t coordinator.HealthTransition) {
		slog.Debug(
			"Health transition",
			slog.String("session", t.Session),
			slog.String("to", string(t.To)),
		)
	})

	listener, err := net.Listen("tcp", conf.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", conf.Addr)
	}

	httpSrv := &http.Server{
		Handler:           coordinator.NewServer(sim, reg).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info(
			"Coordinator listening",
			slog.String("addr", listener.Addr().String()),
			slog.Any("bounds", conf.Bounds),
		)
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if ready != nil {
		ready(listener.Addr().String())
	}

	select {
	case err := <-errCh:
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	slog.Info("Coordinator stopped")
	return nil
}
