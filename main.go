package main

import (
	"context"
	"log"
	"os"

	"todo-list/backend/internal/config"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	app, err := newApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	listenErr := app.Start()
	log.Printf("To-Do List backend started (env=%s, db=%s, cache=%t)",
		cfg.Server.Environment, cfg.Database.Driver, cfg.Cache.Enabled)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"application": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	select {
	case err, ok := <-listenErr:
		if ok && err != nil {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			if stopErr := app.Stop(ctx); stopErr != nil {
				log.Printf("Shutdown after listen failure: %v", stopErr)
			}
			cancel()
			os.Exit(1)
		}
		exitCode := <-wait
		log.Printf("Application exited with code: %d", exitCode)
		os.Exit(exitCode)
	case exitCode := <-wait:
		log.Printf("Application exited with code: %d", exitCode)
		os.Exit(exitCode)
	}
}
