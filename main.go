package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skillconnect/internal/app"
	"skillconnect/internal/commands"
	"skillconnect/internal/config"
	"skillconnect/internal/devserver"
	"skillconnect/internal/http"
	"skillconnect/internal/storage"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const usage = `usage: skillconnect <command> [flags]

commands:
  login -email <email> -password <password>
  logout
  services
  listen      print live notifications until interrupted
  serve       run the dev backend on DEV_ADDR
`

var errUsage = errors.New("invalid usage")

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	cmd, args := args[0], args[1:]
	if cmd == "serve" {
		return serve(ctx, cfg)
	}

	store, err := storage.NewBboltStorage(cfg.TokenDB)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	a := app.New(ctx, app.Config{
		APIURL:           cfg.APIURL,
		WSURL:            cfg.WSURL,
		ToastDuration:    cfg.ToastDuration,
		NotificationsCap: cfg.NotificationsCap,
		ServicesTTL:      cfg.ServicesTTL,
		HTTPTimeout:      cfg.HTTPTimeout,
		Registerer:       reg,
	}, store)
	defer a.Close()

	if err := a.Init(); err != nil {
		return err
	}

	switch cmd {
	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		fs.SetOutput(out)
		email := fs.String("email", "", "Account email")
		password := fs.String("password", "", "Account password")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *email == "" || *password == "" {
			fmt.Fprint(out, usage)
			return errUsage
		}
		return commands.Login(ctx, a, *email, *password, out)
	case "logout":
		return commands.Logout(a, out)
	case "services":
		return commands.Services(ctx, a, out)
	case "listen":
		return listen(ctx, cfg, a, reg, out)
	}

	fmt.Fprint(out, usage)
	return errUsage
}

func listen(ctx context.Context, cfg *config.Config, a *app.App, reg *prometheus.Registry, out io.Writer) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return commands.Listen(gCtx, a, out)
	})

	if cfg.MetricsAddr != "" {
		metricsServer := http.NewMetricsServer(reg, cfg.MetricsAddr)
		g.Go(metricsServer.Start)
		g.Go(func() error {
			<-gCtx.Done()
			return shutdown("metrics", metricsServer.Shutdown)
		})
	}

	return g.Wait()
}

func serve(ctx context.Context, cfg *config.Config) error {
	backend, err := devserver.New(ctx, devserver.Config{})
	if err != nil {
		return err
	}
	apiServer := http.NewAPIServer(backend, cfg.DevAddr)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(apiServer.Start)

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		log.Println("Shutting down dev backend...")
		return shutdown("dev backend", apiServer.Shutdown)
	})

	return g.Wait()
}

func shutdown(name string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("%s shutdown error: %v", name, err)
	}
	return nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatalf("Application error: %v", err)
	}
}
