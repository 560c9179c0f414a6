package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ManuelReschke/Postify/app/controllers"
	"github.com/ManuelReschke/Postify/internal/pkg/cache"
	"github.com/ManuelReschke/Postify/internal/pkg/config"
	"github.com/ManuelReschke/Postify/internal/pkg/env"
	"github.com/ManuelReschke/Postify/internal/pkg/logger"
	"github.com/ManuelReschke/Postify/internal/pkg/oauth"
	"github.com/ManuelReschke/Postify/internal/pkg/postgen"
	"github.com/ManuelReschke/Postify/internal/pkg/router"
	"github.com/ManuelReschke/Postify/internal/pkg/session"
)

func main() {
	Execute()
}

var envFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "postify",
	Short: "Generate LinkedIn posts after signing in with Google or LinkedIn",
	Long: `Postify serves a small web app: users sign in with Google or LinkedIn,
describe what they want to share and get a ready-to-post text back.`,
	SilenceUsage: true,
	RunE:         run,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		versionFlag, _ := cmd.Flags().GetBool("version")
		if versionFlag {
			fmt.Println(config.GetVersionInfo())
			os.Exit(0)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: search ./.env and the project root)")
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")
}

func run(cmd *cobra.Command, args []string) error {
	loadedFrom, err := env.SetupEnvFile(envFile)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	if loadedFrom != "" {
		log.Info("loaded environment file", zap.String("path", loadedFrom))
	}

	cc := cache.New(cfg.Cache, log)
	if cc != nil {
		defer func() { _ = cc.Close() }()
	}

	sessions := session.NewManager(session.NewStorage(cc, cache.DBSessions), !cfg.App.IsDev())
	providers, err := oauth.Setup(cfg, session.NewStorage(cc, cache.DBOAuthSession))
	if err != nil {
		return err
	}

	var searcher postgen.Searcher
	if cfg.Generation.SearchEnabled {
		searcher = postgen.NewDuckDuckGo(cfg.Generation.SearchURL, cfg.Generation.SearchTimeout)
	}
	generator, err := postgen.New(cfg.Generation, searcher, log.Named("postgen"))
	if err != nil {
		return err
	}

	ctrl := controllers.New(sessions, providers, generator, cc, log.Named("http"), cfg.App.IsDev())
	app := router.NewApplication(cfg, ctrl, sessions)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(shutdownCtx)
	}()

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	if cfg.App.InsecureCookieOrigin() {
		log.Warn("secure cookies over a plain http base url will be dropped by browsers, set APP_ENV=dev or an https PUBLIC_DOMAIN",
			zap.String("base_url", cfg.App.BaseURL()))
	}
	log.Info("starting postify", zap.String("addr", addr), zap.String("base_url", cfg.App.BaseURL()), zap.String("env", cfg.App.Env))
	return app.Listen(addr)
}
