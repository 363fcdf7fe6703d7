package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"statusdeck/internal/config"
	"statusdeck/internal/db"
	"statusdeck/internal/domain"
	"statusdeck/internal/migrate"
	"statusdeck/internal/normalize"
	"statusdeck/internal/render"
	"statusdeck/internal/scan"
	"statusdeck/internal/server"
	"statusdeck/internal/status"
	"statusdeck/internal/store"
	"statusdeck/internal/update"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "sd",
	Short: "Statusdeck CLI",
	Long: `Statusdeck reads an application-status JSON payload (pasted, from a file,
or fetched from configured endpoints), classifies the status code against a
small knowledge base, and renders a dashboard: status banner, findings,
timeline, metadata, and a raw JSON inspector. The last-viewed payload is kept
in a workspace snapshot so it survives between runs.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("STATUSDECK")
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(lastCmd())
	rootCmd.AddCommand(clearCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(codesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(checkUpdateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())
}

func viewCmd() *cobra.Command {
	var appIndex int
	var showRaw bool
	var noSave bool
	cmd := &cobra.Command{
		Use:   "view [file]",
		Short: "Parse a payload and render the dashboard",
		Long:  "Reads the status JSON from a file argument or stdin, normalizes it, saves it as the workspace snapshot, and renders the dashboard.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, source, err := readPayload(args)
			if err != nil {
				return err
			}
			apps, err := normalize.Normalize(raw)
			if err != nil {
				return err
			}
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				if !noSave {
					if err := env.Store.Save(ctx, apps); err != nil {
						return err
					}
					if err := env.Store.AppendIngest(ctx, source, len(apps), primaryCode(apps)); err != nil {
						return err
					}
				}
				return renderApps(ctx, env, apps, appIndex, showRaw)
			})
		},
	}
	cmd.Flags().IntVar(&appIndex, "app", -1, "render only the application at this index")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the raw JSON inspector")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the payload as the snapshot")
	return cmd
}

func lastCmd() *cobra.Command {
	var appIndex int
	var showRaw bool
	cmd := &cobra.Command{
		Use:   "last",
		Short: "Render the last saved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				apps, ok, err := env.Store.Load(ctx)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("No snapshot saved. Run 'sd view' or 'sd scan' first.")
					return nil
				}
				if savedAt, ok, _ := env.Store.SavedAt(ctx); ok && !viper.GetBool("json") {
					fmt.Printf("Snapshot saved at %s\n", savedAt)
				}
				return renderApps(ctx, env, apps, appIndex, showRaw)
			})
		},
	}
	cmd.Flags().IntVar(&appIndex, "app", -1, "render only the application at this index")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the raw JSON inspector")
	return cmd
}

func clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the saved snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				if err := env.Store.Clear(ctx); err != nil {
					return err
				}
				fmt.Println("Snapshot cleared.")
				return nil
			})
		},
	}
}

func scanCmd() *cobra.Command {
	var appIndex int
	var showRaw bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Fetch a payload from the configured endpoints",
		Long:  "Tries each scan endpoint from statusdeck.yml strictly in order and renders the first payload that parses. There is no retry beyond the ordered list.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				scanner := scan.New(env.Config.Scan.Endpoints)
				apps, err := scanner.Scan(ctx)
				if err != nil {
					return err
				}
				if err := env.Store.Save(ctx, apps); err != nil {
					return err
				}
				if err := env.Store.AppendIngest(ctx, "scan", len(apps), primaryCode(apps)); err != nil {
					return err
				}
				return renderApps(ctx, env, apps, appIndex, showRaw)
			})
		},
	}
	cmd.Flags().IntVar(&appIndex, "app", -1, "render only the application at this index")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the raw JSON inspector")
	return cmd
}

func codesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codes",
		Short: "List known status codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			catalog := cfg.Catalog()
			if viper.GetBool("json") {
				var items []domain.Classification
				for _, code := range catalog.Codes() {
					items = append(items, catalog.Classify(code))
				}
				return printJSON(items)
			}
			render.Codes(os.Stdout, catalog)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ingests",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				events, err := env.Store.RecentIngests(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				render.History(os.Stdout, events)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	return cmd
}

func checkUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-update",
		Short: "Check the release feed for a newer version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg.Update.Repo == "" {
				fmt.Println("No update repo configured; set update.repo in statusdeck.yml.")
				return nil
			}
			info, err := update.NewChecker(cfg.Update.Repo).Check(cmd.Context(), version)
			if err != nil {
				// Update checks are best-effort; a failed check is not a failed command.
				fmt.Println("Update check failed:", err)
				return nil
			}
			if viper.GetBool("json") {
				return printJSON(info)
			}
			if info.HasUpdate {
				fmt.Printf("Update available: v%s (current v%s)\n%s\n", info.LatestVersion, info.CurrentVersion, info.URL)
			} else {
				fmt.Printf("Up to date (v%s).\n", info.CurrentVersion)
			}
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd.Context(), func(ctx context.Context, env appEnv) error {
				handler, err := server.New(server.Config{
					Store:    env.Store,
					Catalog:  env.Config.Catalog(),
					BasePath: basePath,
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler}
				go func() {
					<-ctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					srv.Shutdown(shutdownCtx)
				}()
				fmt.Printf("Serving Statusdeck API on http://%s%s\n", addr, basePath)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage project config",
	}
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate statusdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a starter statusdeck.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	})
	return cfg
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("sd", version)
			return nil
		},
	}
}

// --- helpers ---

// appEnv bundles the injected collaborators: config, workspace store.
type appEnv struct {
	Config *config.Config
	Store  *store.SQLite
}

func withEnv(ctx context.Context, fn func(context.Context, appEnv) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, appEnv{Config: cfg, Store: store.New(conn)})
}

func readPayload(args []string) ([]byte, string, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", err
		}
		return raw, "file:" + args[0], nil
	}
	raw, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, "", err
	}
	return raw, "stdin", nil
}

func renderApps(ctx context.Context, env appEnv, apps []domain.Application, appIndex int, showRaw bool) error {
	catalog := env.Config.Catalog()
	reports := status.BuildReports(catalog, apps)
	if appIndex >= 0 {
		if appIndex >= len(reports) {
			return fmt.Errorf("application index %d out of range (have %d)", appIndex, len(reports))
		}
		reports = reports[appIndex : appIndex+1]
	}
	if viper.GetBool("json") {
		return printJSON(reports)
	}
	render.Batch(os.Stdout, reports, render.Options{ShowRaw: showRaw})
	return nil
}

func primaryCode(apps []domain.Application) string {
	if len(apps) == 0 {
		return ""
	}
	if rec, _, ok := status.SelectPrimary(apps[0]); ok {
		return rec.StatusCode
	}
	return ""
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
