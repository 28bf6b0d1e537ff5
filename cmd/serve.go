package cmd

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"attendance/config"
	"attendance/db"
	"attendance/faces"
	"attendance/handlers"
	"attendance/models"
	"attendance/presence"

	"github.com/gin-gonic/autotls"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Train the model from the reference images and serve camera clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	b, err := newBackend()
	if err != nil {
		return err
	}
	defer b.close()

	// No model, no serving
	model, err := trainModel(b, nil)
	if errors.Is(err, faces.ErrNoTrainingSamples) {
		log.Error("no valid image to train on", zap.String("images", config.REFERENCE_DIR))
		return err
	}
	if err != nil {
		return err
	}

	conn, err := db.Open(config.MYSQL_DSN, config.SQLITE_FILE, config.DEBUG_MODE)
	if err != nil {
		return err
	}
	if err = models.Init(conn); err != nil {
		return err
	}
	recorder := presence.NewRecorder(conn, log)
	pipeline := faces.NewPipeline(model, b.locator, pipelineConfig(), log)
	router := handlers.NewRouter(handlers.RouterConfig{
		Stream:   handlers.NewStream(pipeline, recorder, log, int64(config.MAX_FRAME_BYTES)),
		Presence: recorder,
		Model:    model,
		Log:      log,
		Debug:    config.DEBUG_MODE,
	})

	if config.TLS_DOMAINS != "" {
		log.Info("serving with TLS", zap.String("domains", config.TLS_DOMAINS))
		return autotls.RunWithContext(ctx, router, strings.Split(config.TLS_DOMAINS, ",")...)
	}
	srv := &http.Server{
		Addr:    config.BIND_ADDRESS,
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info("listening", zap.String("address", config.BIND_ADDRESS), zap.Int("identities", model.Identities()))
	if err = srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server stopped")
	return nil
}
