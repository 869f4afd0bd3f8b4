package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kodewerx/memoria/pkg/backend"
	"github.com/kodewerx/memoria/pkg/config"
	"github.com/kodewerx/memoria/pkg/coordinator"
	"github.com/kodewerx/memoria/pkg/graphindex"
	"github.com/kodewerx/memoria/pkg/log"
	"github.com/kodewerx/memoria/pkg/metrics"
	"github.com/kodewerx/memoria/pkg/routedispatch"
	"github.com/kodewerx/memoria/pkg/scheduler"
	"github.com/kodewerx/memoria/pkg/transport/native"
	transporthttp "github.com/kodewerx/memoria/pkg/transport/http"
	"github.com/kodewerx/memoria/pkg/vectorindex"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "memoriad",
	Short: "memoriad - embedded cognitive memory engine for a personal AI agent",
	Long: `memoriad is the local storage and recall engine behind a personal AI
agent: a tiered bbolt-backed store, hot in-memory vector and graph indexes,
a background task scheduler, and three transports (HTTP, native messaging,
WebRTC data channel) in front of one request/response backend.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"memoriad version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the memory engine, serving whichever transports the config enables",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")

		var cfg *config.Config
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %v", err)
			}
			cfg = loaded
		} else {
			cfg = config.Default()
		}

		scheme := vectorindex.SchemeScalar
		if cfg.QuantizationScheme == "product" {
			scheme = vectorindex.SchemeProduct
		}

		coord, err := coordinator.New(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open coordinator: %v", err)
		}
		metrics.RegisterComponent("storage", true, "ready")
		metrics.RegisterComponent("coordinator", true, "ready")
		fmt.Println("✓ Coordinator opened at", cfg.DataDir)

		vectors := vectorindex.New(scheme, 8)
		graph := graphindex.New()
		fmt.Println("✓ Hot vector and graph indexes initialized")

		sched := scheduler.New(activityLevelFromString(cfg.ActivityLevel))
		sched.Start()
		fmt.Println("✓ Task scheduler started")

		app, err := backend.New(coord, vectors, graph, sched)
		if err != nil {
			return fmt.Errorf("failed to construct backend: %v", err)
		}

		rl := routedispatch.NewRateLimiter(map[string]int{
			"standard":  cfg.RateLimits.Standard,
			"inference": cfg.RateLimits.Inference,
		})
		validTokens := make(map[string]bool, len(cfg.AuthTokens))
		for _, t := range cfg.AuthTokens {
			validTokens[t] = true
		}
		chain := routedispatch.DefaultChain(rl, validTokens)
		dispatcher := routedispatch.NewDispatcher(app, chain)
		routedispatch.RegisterDefaultRoutes(dispatcher)
		fmt.Println("✓ Routes registered")

		metricsCollector := metrics.NewCollector(
			func() metrics.VectorIndexStats { return metrics.VectorIndexStats{Count: int64(vectors.Len())} },
			func() metrics.GraphIndexStats { return metrics.GraphIndexStats{} },
			sched.QueueDepth,
		)
		metricsCollector.Start()
		metrics.SetVersion(Version)
		metrics.RegisterComponent("api", true, "ready")
		fmt.Println("✓ Metrics collector started")

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", metrics.Handler())
		metricsMux.Handle("/health", metrics.HealthHandler())
		metricsMux.Handle("/ready", metrics.ReadyHandler())
		metricsMux.Handle("/live", metrics.LivenessHandler())
		metricsErrCh := make(chan error, 1)
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil {
				metricsErrCh <- fmt.Errorf("metrics server error: %v", err)
			}
		}()
		fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", cfg.MetricsAddr)

		errCh := make(chan error, 2)

		if cfg.HTTP.Enabled {
			httpServer := transporthttp.NewServer(dispatcher)
			go func() {
				if err := httpServer.Start(cfg.HTTP.Addr); err != nil {
					errCh <- fmt.Errorf("http transport error: %v", err)
				}
			}()
			fmt.Printf("✓ HTTP transport listening on %s\n", cfg.HTTP.Addr)
		}

		if cfg.Native.Enabled {
			nativeServer := native.NewServer(dispatcher)
			go func() {
				if err := nativeServer.Serve(os.Stdin, os.Stdout, "stdio", ""); err != nil {
					errCh <- fmt.Errorf("native transport error: %v", err)
				}
			}()
			fmt.Println("✓ Native messaging transport attached to stdio")
		}

		fmt.Println()
		fmt.Println("memoriad is running. Press Ctrl+C to stop.")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			fmt.Println("\nShutting down...")
		case err := <-errCh:
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		case err := <-metricsErrCh:
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}

		sched.Stop()
		metricsCollector.Stop()
		if err := coord.Close(); err != nil {
			return fmt.Errorf("failed to close coordinator: %v", err)
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func activityLevelFromString(s string) scheduler.ActivityLevel {
	switch s {
	case "high":
		return scheduler.HighActivity
	case "sleep":
		return scheduler.SleepMode
	default:
		return scheduler.LowActivity
	}
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML config file (defaults applied for anything it omits)")
}
