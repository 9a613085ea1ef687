package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/db"
	"github.com/ziadkadry99/tradebook/internal/menu"
	"github.com/ziadkadry99/tradebook/internal/pages"
	"github.com/ziadkadry99/tradebook/internal/prefs"
	"github.com/ziadkadry99/tradebook/internal/records"
	"github.com/ziadkadry99/tradebook/internal/server"
	"github.com/ziadkadry99/tradebook/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tradebook web server",
	Long:  `Serves the markdown pages with the navigation sidebar, the sidebar preference endpoints and the settings, brokers and trades API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		client, err := newBackendClient(cfg, logger)
		if err != nil {
			return err
		}

		// Open database.
		dbPath := filepath.Join(cfg.DataDir, "tradebook.db")
		database, err := db.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		srv := server.New(cfg, server.Deps{
			Prefs:      prefs.NewStore(database, menu.ParseTheme(string(cfg.DefaultTheme))),
			Records:    records.NewStore(client, logger),
			Sessions:   session.NewManager(client, cfg.Auth.SessionCookie, cfg.Auth.LoginPath, logger),
			Pages:      pages.NewRenderer(cfg.Pages.Dir, cfg.Pages.Include, cfg.Pages.Exclude),
			MenuClient: &http.Client{Timeout: 10 * time.Second},
		}, logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		logger.Info("tradebook starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Server.Port),
			zap.String("database", dbPath),
			zap.String("menu", cfg.Menu.Source),
			zap.String("backend", cfg.Backend.URL),
		)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
