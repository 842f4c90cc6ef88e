package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/landcover-api/internal/classifier"
	"github.com/Brownie44l1/landcover-api/internal/config"
	"github.com/Brownie44l1/landcover-api/internal/handlers"
	"github.com/Brownie44l1/landcover-api/internal/model"
	"github.com/Brownie44l1/landcover-api/internal/registry"
	"github.com/Brownie44l1/landcover-api/internal/upload"
)

var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "landcover-api",
	Short:         "Land cover classification server for satellite image tiles",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(viper.GetViper(), cfgFile)
		if err != nil {
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config/landcover.yaml or ./landcover.yaml)")
	flags.String("port", "8080", "listen port")
	flags.String("models-dir", "models", "directory holding the ONNX model files")
	flags.String("onnx-library", "", "path to the onnxruntime shared library")
	flags.String("upload-dir", "uploads", "directory for staged uploads")
	flags.String("default-model", registry.RGB.String(), "model used when a request names none")

	for key, name := range map[string]string{
		"server.port":         "port",
		"models.dir":          "models-dir",
		"models.onnx_library": "onnx-library",
		"upload.dir":          "upload-dir",
		"models.default":      "default-model",
	} {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	reg := cfg.Registry()
	models := model.Load(reg, model.LoadOptions{SharedLibraryPath: cfg.OnnxLibrary})
	defer models.Close()

	stager, err := upload.NewStager(cfg.UploadDir)
	if err != nil {
		return err
	}

	c := classifier.New(reg, models)
	h := handlers.NewHandler(c, stager, handlers.Options{
		DefaultModel:   cfg.DefaultModel,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(cfg.AllowedOrigins),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Port)
	for _, v := range c.AvailableVariants() {
		status := "not loaded"
		if v.Loaded {
			status = "loaded"
		}
		log.Printf("Model %s (%s): %s", v.Key, v.Name, status)
	}
	log.Printf("Classes: %v", registry.Classes)
	log.Println("Endpoints:")
	log.Println("  GET  /health               - Health check")
	log.Println("  GET  /models               - Model variants")
	log.Println("  GET  /classes              - Land cover classes")
	log.Println("  POST /predict              - Classify one image")
	log.Println("  POST /compare              - Classify with every model")
	log.Println("  POST /heatmap              - Intensity heatmap overlay")
	log.Println("  POST /analyze-series       - Change detection over an image series")
	log.Println("  POST /analyze-series/chart - Series timeline chart")
	log.Printf("\n💡 Upload test: curl -X POST -F \"image=@tile.png\" -F model=rgb http://localhost:%s/predict\n\n", cfg.Port)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
