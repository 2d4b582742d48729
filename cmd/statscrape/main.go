package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/statscrape/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("run_id", uuid.NewString()).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("run failed")
		stop()
		os.Exit(1)
	}
}

// globals are the flags shared by every subcommand.
type globals struct {
	configPath string
	envFiles   []string
	dataDir    string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "statscrape",
		Short:         "Scrape team statistics, structure page text and serve a stats dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Path to a YAML or JSON config file")
	root.PersistentFlags().StringSliceVar(&g.envFiles, "env-file", []string{".env"}, "Dotenv files to load; later files override earlier ones")
	root.PersistentFlags().StringVar(&g.dataDir, "data-dir", "", "Directory for scraped files (default \"data\")")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Verbose logging")

	root.AddCommand(
		collectCmd(g),
		structureCmd(g),
		loadCmd(g),
		statsCmd(g),
		syncCmd(g),
		serveCmd(g),
		exportCmd(g),
		migrateCmd(g),
		versionCmd(),
	)
	return root
}

// loadConfig resolves defaults, the config file, dotenv files, the
// environment and global flags, in increasing precedence.
func loadConfig(cmd *cobra.Command, g *globals) (app.Config, error) {
	cfg := app.Defaults()
	if g.configPath != "" {
		fc, err := app.LoadConfigFile(g.configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file: %w", err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	if err := app.LoadEnvFiles(g.envFiles...); err != nil {
		return cfg, fmt.Errorf("env file: %w", err)
	}
	if err := app.ApplyEnv(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = g.dataDir
	}
	if flags.Changed("verbose") {
		cfg.Verbose = g.verbose
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}

// runFlow builds the app for flow and hands it to fn.
func runFlow(cmd *cobra.Command, g *globals, flow app.Flow, adjust func(*app.Config), fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return err
	}
	if adjust != nil {
		adjust(&cfg)
	}
	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, flow, app.WithOutput(cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("init %s: %w", flow, err)
	}
	defer a.Close()
	return fn(ctx, a)
}

// robotsFlag registers --respect-robots and returns the config adjustment.
func robotsFlag(cmd *cobra.Command) func(*app.Config) {
	var respect bool
	cmd.Flags().BoolVar(&respect, "respect-robots", false, "Check robots.txt before fetching (default RESPECT_ROBOTS)")
	return func(cfg *app.Config) {
		if cmd.Flags().Changed("respect-robots") {
			cfg.RespectRobots = respect
		}
	}
}

func collectCmd(g *globals) *cobra.Command {
	var url string
	var robots func(*app.Config)
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Fetch the stats page and save its tables, metadata and text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowCollect, robots, func(ctx context.Context, a *app.App) error {
				_, err := a.Collect(ctx, url)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Page to scrape (default STATS_URL)")
	robots = robotsFlag(cmd)
	return cmd
}

func structureCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "structure",
		Short: "Turn the collected page text into records with the chat model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowStructure, nil, func(ctx context.Context, a *app.App) error {
				_, err := a.Structure(ctx)
				return err
			})
		},
	}
}

func loadCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "load",
		Short: "Upsert structured records into the documents table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowLoad, nil, func(ctx context.Context, a *app.App) error {
				_, err := a.Load(ctx)
				return err
			})
		},
	}
}

func statsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Work with the collected stats tables",
	}

	var layout string
	insert := &cobra.Command{
		Use:   "insert",
		Short: "Insert the collected tables into the statistics table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowInsert, nil, func(ctx context.Context, a *app.App) error {
				_, err := a.InsertStats(ctx, layout)
				return err
			})
		},
	}
	insert.Flags().StringVar(&layout, "layout", "", "Row layout: lists or pairs (default STATS_LAYOUT)")

	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the first rows of every collected table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowPreview, nil, func(ctx context.Context, a *app.App) error {
				return a.PreviewStats(ctx)
			})
		},
	}
	cmd.AddCommand(insert, preview)
	return cmd
}

func syncCmd(g *globals) *cobra.Command {
	var url, layout string
	var robots func(*app.Config)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Scrape, insert and print a sample without writing files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowSync, robots, func(ctx context.Context, a *app.App) error {
				_, err := a.Sync(ctx, url, layout)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Page to scrape (default STATS_URL)")
	cmd.Flags().StringVar(&layout, "layout", "", "Row layout: lists or pairs (default STATS_LAYOUT)")
	robots = robotsFlag(cmd)
	return cmd
}

func serveCmd(g *globals) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stats dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			adjust := func(cfg *app.Config) {
				if cmd.Flags().Changed("host") {
					cfg.Host = host
				}
				if cmd.Flags().Changed("port") {
					cfg.Port = port
				}
				if !cfg.Verbose {
					gin.SetMode(gin.ReleaseMode)
				}
			}
			return runFlow(cmd, g, app.FlowServe, adjust, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (default HOST or 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default PORT or 8000)")
	return cmd
}

func exportCmd(g *globals) *cobra.Command {
	var format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the dashboard sections to an XLSX workbook or a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowExport, nil, func(ctx context.Context, a *app.App) error {
				return a.Export(ctx, format, out)
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "xlsx or pdf (default from --out extension)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	return cmd
}

func migrateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the documents and statistics tables in DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, g, app.FlowMigrate, nil, func(ctx context.Context, a *app.App) error {
				return a.Migrate(ctx)
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statscrape %s (commit %s, built %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		},
	}
}
