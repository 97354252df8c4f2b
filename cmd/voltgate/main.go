package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zen-systems/voltgate/pkg/confidence"
	"github.com/zen-systems/voltgate/pkg/config"
	"github.com/zen-systems/voltgate/pkg/fallback"
	"github.com/zen-systems/voltgate/pkg/job"
	"github.com/zen-systems/voltgate/pkg/policy"
	"github.com/zen-systems/voltgate/pkg/provider"
	"github.com/zen-systems/voltgate/pkg/routing"
	"github.com/zen-systems/voltgate/pkg/server"
)

var configFile string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	rootCmd := &cobra.Command{
		Use:   "voltgate",
		Short: "EV route enhancement gateway with AI provider fallback",
		Long: `Voltgate computes baseline EV routes over a static road network,
scores their confidence, and asks a chain of AI providers for an
improved route when confidence is low. Provider candidates are only
accepted when they measurably beat the baseline.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file")

	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(routeCmd(logger))
	rootCmd.AddCommand(locationsCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile, "")
	}
	return config.Load()
}

// buildProviders assembles the fallback chain in configured order.
// Providers without credentials are still included; the orchestrator
// skips them with attribution instead of failing construction.
func buildProviders(cfg *config.Config) ([]provider.Provider, error) {
	providers := make([]provider.Provider, 0, len(cfg.ProviderChain))
	for _, name := range cfg.ProviderChain {
		switch name {
		case "deepseek":
			providers = append(providers, provider.NewDeepSeek(provider.DeepSeekOptions{
				APIKey:  cfg.DeepSeekAPIKey,
				BaseURL: cfg.DeepSeekAPIURL,
				Timeout: cfg.RequestTimeout,
			}))
		case "groq":
			providers = append(providers, provider.NewGroq(provider.GroqOptions{
				APIKey:  cfg.GroqAPIKey,
				BaseURL: cfg.GroqAPIURL,
				Timeout: cfg.RequestTimeout,
			}))
		case "anthropic":
			providers = append(providers, provider.NewAnthropic(provider.AnthropicOptions{
				APIKey:  cfg.AnthropicAPIKey,
				Timeout: cfg.RequestTimeout,
			}))
		case "openai":
			providers = append(providers, provider.NewOpenAI(provider.OpenAIOptions{
				APIKey:  cfg.OpenAIAPIKey,
				Timeout: cfg.RequestTimeout,
			}))
		case "google":
			providers = append(providers, provider.NewGoogle(provider.GoogleOptions{
				APIKey:  cfg.GoogleAPIKey,
				Timeout: cfg.RequestTimeout,
			}))
		default:
			return nil, fmt.Errorf("unknown provider %q in chain", name)
		}
	}
	return providers, nil
}

// buildCoordinator wires the full pipeline from config.
func buildCoordinator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*job.Coordinator, job.Store, func(), error) {
	providers, err := buildProviders(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var store job.Store
	cleanup := func() {}
	if cfg.PostgresDSN != "" {
		pg, err := job.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect job store: %w", err)
		}
		store = pg
		cleanup = pg.Close
	} else {
		store = job.NewMemoryStore()
	}

	orchestrator := fallback.New(providers, fallback.Options{
		MaxTries:     cfg.MaxTries,
		BaseBackoff:  cfg.BaseBackoff,
		ProviderRate: cfg.ProviderRate,
		Logger:       logger,
	})

	coordinator := job.NewCoordinator(job.CoordinatorOptions{
		Router:              routing.NewStaticRouter(routing.AmsterdamGraph()),
		Estimator:           confidence.New(),
		Enhancer:            orchestrator,
		Policy:              policy.New(policy.WithImprovementThreshold(cfg.ImprovementThreshold)),
		Store:               store,
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Logger:              logger,
	})
	return coordinator, store, cleanup, nil
}

func serveCmd(logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			coordinator, store, cleanup, err := buildCoordinator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			pool := job.NewPool(coordinator, job.PoolOptions{
				Workers: cfg.Workers,
				Logger:  logger,
			})
			srv := server.New(server.Options{
				Pool:   pool,
				Store:  store,
				Graph:  routing.AmsterdamGraph(),
				Logger: logger,
			})

			httpServer := &http.Server{
				Addr:    cfg.HTTPBind,
				Handler: srv.Handler(),
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				err := pool.Run(ctx)
				if err == context.Canceled {
					return nil
				}
				return err
			})
			g.Go(func() error {
				logger.Info().Str("bind", cfg.HTTPBind).Msg("http server listening")
				if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
}

func routeCmd(logger zerolog.Logger) *cobra.Command {
	var batteryCapacity float64
	var currentCharge float64

	cmd := &cobra.Command{
		Use:   "route [origin] [destination]",
		Short: "Run a single enhancement job and print the result",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			coordinator, _, cleanup, err := buildCoordinator(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			constraints := map[string]any{}
			if batteryCapacity > 0 {
				constraints[routing.ConstraintBatteryCapacityKWh] = batteryCapacity
			}
			if currentCharge > 0 {
				constraints[routing.ConstraintCurrentChargeKWh] = currentCharge
			}

			rec := job.NewRecord(args[0], args[1], constraints)
			if err := coordinator.Run(ctx, rec); err != nil {
				return err
			}

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Float64Var(&batteryCapacity, "battery-capacity", 0, "battery capacity in kWh")
	cmd.Flags().Float64Var(&currentCharge, "charge", 0, "current charge in kWh")

	return cmd
}

func locationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locations",
		Short: "List the locations and charging stations on the network",
		RunE: func(cmd *cobra.Command, args []string) error {
			graph := routing.AmsterdamGraph()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LOCATION\tLAT\tLON")

			locations := graph.Locations()
			sort.Slice(locations, func(i, j int) bool { return locations[i].Name < locations[j].Name })
			for _, loc := range locations {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\n", loc.Name, loc.Lat, loc.Lon)
			}

			fmt.Fprintln(w)
			fmt.Fprintln(w, "STATION\tTYPE\tPOWER KW")
			for _, st := range graph.Stations() {
				fmt.Fprintf(w, "%s\t%s\t%.0f\n", st.ID, st.Type, st.PowerKW)
			}

			return w.Flush()
		},
	}
}

// version is set via -ldflags at release time.
var version = "dev"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the voltgate version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("voltgate " + version)
		},
	}
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show the provider chain and credential status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tPROVIDER\tSTATUS")
			for i, name := range cfg.ProviderChain {
				status := "no key"
				if cfg.HasProvider(name) {
					status = "ready"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, name, status)
			}
			return w.Flush()
		},
	}
}
