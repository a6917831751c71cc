package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Schera-ole/phonemetrics/internal/config"
	"github.com/Schera-ole/phonemetrics/internal/handler"
	"github.com/Schera-ole/phonemetrics/internal/logger"
	"github.com/Schera-ole/phonemetrics/internal/repository"
	"github.com/Schera-ole/phonemetrics/internal/sign"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("phonesim", pflag.ContinueOnError)
	config.SimFlags(fs)
	v := config.NewViper()
	if err := config.BindFlags(v, fs); err != nil {
		return err
	}
	envFile := fs.String("env-file", ".env", "Load PM_* variables from this dotenv file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := config.LoadEnvFile(*envFile); err != nil {
		return err
	}

	simConfig, err := config.NewSimConfig(v)
	if err != nil {
		return err
	}
	log, err := logger.New(simConfig.LogLevel, simConfig.LogFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	storage := repository.NewMemStorage(simConfig.DeviceMark, "0%")
	if err := storage.SetBatteryLevel(context.Background(), simConfig.BatteryLevel); err != nil {
		return err
	}

	server := &http.Server{
		Addr:    simConfig.Address,
		Handler: handler.Router(storage, log, sign.NewSigner(simConfig.Secret), sign.SystemClock{}, simConfig),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Infow("phone simulator listening",
			"address", simConfig.Address,
			"device_mark", simConfig.DeviceMark,
			"max_skew", simConfig.MaxSkew,
		)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
