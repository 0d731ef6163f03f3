package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ust-lookup/internal/bootstrap"
	"github.com/ust-lookup/internal/config"
	"github.com/ust-lookup/internal/dataset"
	"github.com/ust-lookup/internal/db"
	import_pkg "github.com/ust-lookup/internal/import"
	"github.com/ust-lookup/internal/logging"
	"github.com/ust-lookup/internal/lookup"
	"github.com/ust-lookup/internal/render"
	"github.com/ust-lookup/internal/shell"
	"github.com/ust-lookup/internal/web"
)

var (
	// Process settings, loaded before any subcommand runs
	settings *config.Settings
	debug    bool
	flushLog = func() {}
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ustlookup",
		Short: "Underground storage tank facility lookup",
		Long:  `Look up a UST facility by ID, name or address and report its owner, site and active tanks`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.LoadSettings()
			if err != nil {
				return err
			}
			if debug {
				s.Debug = true
			}
			flush, err := logging.Setup(s.LogLevel, s.LogFormat)
			if err != nil {
				return err
			}
			settings, flushLog = s, flush
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Record the join path and per-stage trace")

	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createFacilityCmd())
	rootCmd.AddCommand(createShellCmd())
	rootCmd.AddCommand(createColumnsCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createPingCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	flushLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRuntime loads the dataset described by the settings
func openRuntime(ctx context.Context) (*bootstrap.Runtime, error) {
	return bootstrap.Open(ctx, settings)
}

// createSearchCmd runs a single lookup
func createSearchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Look up a facility by ID, name or address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			in, closeIn, interactive, err := shell.Open("")
			if err != nil {
				return err
			}
			defer closeIn()

			chooser := shell.NewPromptChooser(in, os.Stdout, interactive && !asJSON)
			res, err := rt.Service.Lookup(ctx, strings.Join(args, " "), chooser)
			if err == lookup.ErrNoSelection {
				fmt.Println("No facility selected.")
				return nil
			}
			if err != nil {
				return err
			}
			return printResult(res, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

// createFacilityCmd reports a facility by exact ID
func createFacilityCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "facility [id]",
		Short: "Report a facility by its ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.Service.Facility(ctx, args[0])
			if err != nil {
				return err
			}
			return printResult(res, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func printResult(res *lookup.Result, asJSON bool) error {
	if !asJSON {
		if err := render.Text(os.Stdout, res); err != nil {
			return err
		}
		for _, e := range res.Trace {
			fmt.Printf("debug: %s: %s\n", e.Stage, e.Message)
		}
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(render.NewFacilityView(res))
}

// createShellCmd starts the interactive lookup loop
func createShellCmd() *cobra.Command {
	var history string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Run lookups interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			in, closeIn, interactive, err := shell.Open(history)
			if err != nil {
				return err
			}
			defer closeIn()

			sh := shell.New(rt.Service, in, os.Stdout, interactive, shell.WithReload(func(ctx context.Context) error {
				_, err := rt.Reload(ctx)
				return err
			}))
			return sh.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&history, "history", "", "History file (default ~/.ustlookup_history)")
	return cmd
}

// createColumnsCmd shows each loaded table and the columns chosen per role
func createColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Show loaded tables and detected columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			ds := rt.Holder.Current()
			if err := render.Columns(os.Stdout, render.Reports(ds)); err != nil {
				return err
			}
			for _, w := range ds.Warnings {
				fmt.Printf("warning: %s\n", w)
			}
			return nil
		},
	}
}

// createServeCmd starts the HTTP interface
func createServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lookups over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			webConfig := web.DefaultConfig()
			if configFile != "" {
				c, err := web.LoadConfig(configFile)
				if err != nil {
					return err
				}
				webConfig = c
			}
			webConfig.Server.Port = config.GetEnvInt("USTLOOKUP_WEB_PORT", webConfig.Server.Port)
			webConfig.Server.Host = config.GetEnv("USTLOOKUP_WEB_HOST", webConfig.Server.Host)
			if key := os.Getenv("USTLOOKUP_API_KEY"); key != "" {
				webConfig.Auth.Enabled = true
				webConfig.Auth.APIKey = key
			}
			webConfig.Features.DebugEnabled = webConfig.Features.DebugEnabled || settings.Debug

			rt, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			server, err := web.NewServer(webConfig, web.Deps{
				Service: rt.Service,
				Reload:  rt.Reload,
				Metrics: rt.Metrics.Handler(),
			})
			if err != nil {
				return err
			}

			zap.L().Info("ustlookup: serving",
				zap.Int("port", webConfig.Server.Port),
				zap.Bool("auth", webConfig.Auth.Enabled),
				zap.Bool("reload", webConfig.Features.ReloadEnabled),
				zap.Bool("watch", settings.Watch))
			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "JSON server configuration file")
	return cmd
}

// createImportCmd stages a table file into the configured database so it
// can later be read back through a db: location
func createImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [table] [location]",
		Short: "Copy a CSV, TSV, XLSX or S3 table into the database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name, location := args[0], args[1]

			conn, err := db.Open(ctx, settings.DBDriver, settings.DBDSN)
			if err != nil {
				return err
			}
			defer conn.Close()

			opts := []import_pkg.LoaderOption{import_pkg.WithDB(conn)}
			if strings.HasPrefix(location, import_pkg.S3Scheme) {
				client, err := import_pkg.NewS3Client(ctx, import_pkg.S3Config{
					Region:    settings.S3Region,
					Endpoint:  settings.S3Endpoint,
					PathStyle: settings.S3PathStyle,
				})
				if err != nil {
					return err
				}
				opts = append(opts, import_pkg.WithS3(client))
			}

			t, err := import_pkg.NewLoader(opts...).Load(ctx, name, location)
			if err != nil {
				return err
			}
			n, err := conn.WriteTable(ctx, name, t)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d rows into %s (use %s%s as the location)\n", n, name, import_pkg.DBScheme, name)
			return nil
		},
	}
}

// createPingCmd checks database connectivity and counts any db: tables
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			conn, err := db.Open(ctx, settings.DBDriver, settings.DBDSN)
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Printf("Database connection successful (%s)\n", conn.Driver)

			for _, loc := range databaseLocations(settings.Sources) {
				name := strings.TrimPrefix(loc, import_pkg.DBScheme)
				n, err := conn.CountRows(ctx, name)
				if err != nil {
					zap.L().Warn("ustlookup: count rows", zap.String("table", name), zap.Error(err))
					continue
				}
				fmt.Printf("%s: %d rows\n", name, n)
			}
			return nil
		},
	}
}

func databaseLocations(src dataset.Sources) []string {
	var out []string
	for _, loc := range append([]string{src.Tanks, src.Owners, src.PipeMaterials, src.TankMaterials, src.ReleaseDetection, src.SiteInfo}, src.PipeAlternates...) {
		if strings.HasPrefix(loc, import_pkg.DBScheme) {
			out = append(out, loc)
		}
	}
	return out
}
