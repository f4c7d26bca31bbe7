package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"recpanel/app"
	"recpanel/app/upload"
	"recpanel/client"
	"recpanel/config"
	"recpanel/logger"
	"recpanel/web/controller"
	"recpanel/web/live"
	"recpanel/web/router"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the control panel",
	RunE:  runServe,
}

func newLogger() (*logger.Logger, error) {
	conf := config.GetConfig()
	if conf.LogFolder == "" {
		return logger.NewLogger("", conf.LogLevel)
	}

	logfile := fmt.Sprintf("recpanel_logs_%s.log", time.Now().Format("2006-01-02_15:04:05"))
	return logger.NewLogger(fmt.Sprintf("%s/%s", conf.LogFolder, logfile), conf.LogLevel)
}

func runServe(cmd *cobra.Command, _ []string) error {
	conf := config.GetConfig()

	logman, err := newLogger()

	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), unix.SIGINT, unix.SIGTERM)
	defer stop()

	rec := client.New(conf.RecorderURL, client.Options{Timeout: conf.RequestTimeout, Logger: logman})

	svc := app.NewApp(rec, logman, app.Options{
		StatusInterval: conf.StatusInterval,
		ListInterval:   conf.ListInterval,
		ListRetryDelay: conf.ListRetryDelay,
	})

	opts := controller.Options{SplitDuration: conf.SplitDuration}

	if conf.S3Config.Enabled() {
		uploader, err := upload.NewUploader(logman, rec, func() bool { return svc.State().Recording })

		if err != nil {
			logman.LogError(err, "Error initializing uploader")
		} else {
			opts.Archiver = uploader
			go uploader.UploadLogs(ctx)
		}
	}

	hub := live.NewHub(svc.Panel(), logman)
	ctrl := controller.NewController(svc, rec, hub, logman, opts)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", conf.Port),
		Handler:           router.InitRouter(ctrl, logman),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return svc.Run(gctx) })
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logman.LogInfo("Starting server", "port", conf.Port, "recorder", conf.RecorderURL, "environment", conf.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logman.LogError(err, "Error starting server")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logman.LogInfo("Server stopped")
	return err
}
