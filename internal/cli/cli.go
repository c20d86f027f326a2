// Package cli dispatches the briochat commands: the chat TUI (default) and
// the local stub backend used for development.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"briochat/internal/api"
	"briochat/internal/audio"
	"briochat/internal/config"
	"briochat/internal/identity"
	"briochat/internal/stub"
	"briochat/internal/tui"
)

func Run() int {
	if len(os.Args) < 2 {
		return runChat(os.Args[1:])
	}
	cmd := os.Args[1]
	if strings.HasPrefix(cmd, "-") {
		return runChat(os.Args[1:])
	}
	switch cmd {
	case "chat":
		return runChat(os.Args[2:])
	case "stub":
		return runStub(os.Args[2:])
	default:
		usage()
		return 1
	}
}

func usage() {
	fmt.Println("briochat [command] [options]")
	fmt.Println("Commands: chat (default), stub")
}

func runChat(args []string) int {
	fs := flag.NewFlagSet("chat", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to yaml config file")
	apiURL := fs.String("api-url", "", "backend base URL override")
	verbose := fs.Bool("verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return 1
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	store, err := identity.NewFileStore(cfg.StateDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to open identity store:", err)
		return 1
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	client := api.NewClient(cfg.API.BaseURL, logger)
	device := audio.NewMalgoDevice(cfg.Audio.SampleRate, cfg.Audio.Channels, logger)
	recorder := audio.NewRecorder(device, int(cfg.Audio.SampleRate), int(cfg.Audio.Channels), logger)

	if err := tui.Run(logger, store, client, recorder); err != nil {
		logger.Error("tui exited", zap.Error(err))
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

func runStub(args []string) int {
	fs := flag.NewFlagSet("stub", flag.ContinueOnError)
	host := fs.String("host", "127.0.0.1", "listen host")
	port := fs.Int("port", 8080, "listen port")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	server := stub.NewServer(logger)
	addr := fmt.Sprintf("%s:%d", *host, *port)
	if err := server.Start(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("stub backend failed", zap.Error(err))
		return 1
	}
	return 0
}

// newLogger writes to a file under the state directory: the TUI owns the
// terminal.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.OutputPaths = []string{cfg.LogPath()}
	zcfg.ErrorOutputPaths = []string{cfg.LogPath()}
	return zcfg.Build()
}
