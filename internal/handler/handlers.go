// Package handler implements the HTTP API of the phone simulator.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/phonemetrics/internal/client"
	"github.com/Schera-ole/phonemetrics/internal/config"
	internalerrors "github.com/Schera-ole/phonemetrics/internal/errors"
	middlewareinternal "github.com/Schera-ole/phonemetrics/internal/middleware"
	models "github.com/Schera-ole/phonemetrics/internal/model"
	"github.com/Schera-ole/phonemetrics/internal/repository"
	"github.com/Schera-ole/phonemetrics/internal/sign"
)

const (
	// PathUpdateBattery changes the simulated battery level.
	PathUpdateBattery = "/battery/update/{level}"

	// PathUpdateConfig replaces the simulated device configuration with the
	// envelope's data.
	PathUpdateConfig = "/config/update"
)

func Router(
	storage repository.DeviceRepository,
	logger *zap.SugaredLogger,
	signer *sign.Signer,
	clock sign.Clock,
	config *config.SimConfig,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingHandler(w, r, storage, logger)
	})
	router.Group(func(r chi.Router) {
		r.Use(middlewareinternal.SignatureMiddleware(signer, clock, config.MaxSkew, logger))
		r.Post(client.PathQueryConfig, func(w http.ResponseWriter, r *http.Request) {
			ConfigQueryHandler(w, r, storage, signer, clock, logger)
		})
		r.Post(client.PathQueryBattery, func(w http.ResponseWriter, r *http.Request) {
			BatteryQueryHandler(w, r, storage, signer, clock, logger)
		})
		r.Post(PathUpdateConfig, func(w http.ResponseWriter, r *http.Request) {
			ConfigUpdateHandler(w, r, storage, signer, clock, logger)
		})
		r.Post(PathUpdateBattery, func(w http.ResponseWriter, r *http.Request) {
			BatteryUpdateHandler(w, r, storage, signer, clock, logger)
		})
	})
	return router
}

func PingHandler(w http.ResponseWriter, r *http.Request, storage repository.DeviceRepository, logger *zap.SugaredLogger) {
	if err := storage.Ping(r.Context()); err != nil {
		logger.Errorw("storage ping failed", "error", err)
		http.Error(w, "storage unavailable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func ConfigQueryHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.DeviceRepository,
	signer *sign.Signer,
	clock sign.Clock,
	logger *zap.SugaredLogger,
) {
	config, err := storage.Config(r.Context())
	if err != nil {
		logger.Errorw("failed to read config", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSigned(w, signer, clock, config, logger)
}

func BatteryQueryHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.DeviceRepository,
	signer *sign.Signer,
	clock sign.Clock,
	logger *zap.SugaredLogger,
) {
	battery, err := storage.Battery(r.Context())
	if err != nil {
		logger.Errorw("failed to read battery", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	WriteSigned(w, signer, clock, battery, logger)
}

// BatteryUpdateHandler sets the battery level from the URL and answers with
// the new battery status.
func BatteryUpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.DeviceRepository,
	signer *sign.Signer,
	clock sign.Clock,
	logger *zap.SugaredLogger,
) {
	level := chi.URLParam(r, "level")
	if err := storage.SetBatteryLevel(r.Context(), level); err != nil {
		if errors.Is(err, internalerrors.ErrInvalidLevel) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Infow("battery level updated", "level", level)
	BatteryQueryHandler(w, r, storage, signer, clock, logger)
}

func ConfigUpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.DeviceRepository,
	signer *sign.Signer,
	clock sign.Clock,
	logger *zap.SugaredLogger,
) {
	var req struct {
		Data *models.DeviceConfig `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Data == nil {
		http.Error(w, "Invalid config payload", http.StatusBadRequest)
		return
	}
	if err := storage.SetConfig(r.Context(), *req.Data); err != nil {
		logger.Errorw("failed to store config", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Infow("device config updated")
	ConfigQueryHandler(w, r, storage, signer, clock, logger)
}
