package activity

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/briangreenhill/mapty/internal/coordinator"
	"github.com/briangreenhill/mapty/internal/workout"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIConfig struct {
	Addr        string
	UIDir       string
	MapboxToken string
}

func NewAPI(logger *slog.Logger, service *Service, cfg APIConfig, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /workouts", handleListWorkouts(logger, service))
	mux.Handle("POST /workouts", handleCreateWorkout(logger, service))
	mux.Handle("DELETE /workouts", handleDeleteAll(logger, service))
	mux.Handle("DELETE /workouts/{id}", handleDeleteWorkout(logger, service))
	mux.Handle("POST /workouts/{id}/locate", handleLocateWorkout(logger, service))
	mux.Handle("POST /map/click", handleMapClick(logger, service))
	mux.Handle("GET /markers", handleMarkers(logger, service))
	mux.Handle("GET /markers.gpx", handleMarkersGPX(logger, service))
	mux.Handle("GET /token", handleToken(logger, cfg.MapboxToken))
	if gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.UIDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(cfg.UIDir)))
	}

	return mux
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding response", slog.Any("error", err))
	}
}

func handleToken(logger *slog.Logger, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token == "" {
			logger.Error("Error getting token", slog.String("error", "MAPBOX_TOKEN not set"))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(logger, w, http.StatusOK, map[string]string{"token": token})
	})
}

func handleListWorkouts(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, service.Coordinator().Workouts())
	})
}

func handleCreateWorkout(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(logger, w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}

		created, err := service.Coordinator().SubmitForm(r.Context(), coordinator.FormInput{
			Type:      r.FormValue("type"),
			Distance:  r.FormValue("distance"),
			Duration:  r.FormValue("duration"),
			Cadence:   r.FormValue("cadence"),
			Elevation: r.FormValue("elevation"),
			Lat:       r.FormValue("lat"),
			Lng:       r.FormValue("lng"),
		})

		var verr *workout.ValidationError
		if errors.As(err, &verr) {
			writeJSON(logger, w, http.StatusBadRequest, map[string]any{"error": verr.Error(), "fields": verr.Fields})
			return
		}
		if created.ID == "" {
			logger.Error("Error creating workout", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if err != nil {
			// the workout exists, only the save failed
			logger.Error("Error saving workout", slog.String("id", created.ID), slog.Any("error", err))
		}
		writeJSON(logger, w, http.StatusCreated, created)
	})
}

func handleDeleteWorkout(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.Coordinator().DeleteWorkout(r.Context(), r.PathValue("id")); err != nil {
			logger.Error("Error deleting workout", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleDeleteAll(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.Coordinator().DeleteAll(r.Context()); err != nil {
			logger.Error("Error deleting workouts", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleLocateWorkout(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := service.Coordinator().LocateWorkout(r.PathValue("id")); err != nil {
			logger.Error("Error locating workout", slog.Any("error", err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleMapClick(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lat, err := strconv.ParseFloat(r.FormValue("lat"), 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, map[string]string{"error": "lat must be a number"})
			return
		}
		lng, err := strconv.ParseFloat(r.FormValue("lng"), 64)
		if err != nil {
			writeJSON(logger, w, http.StatusBadRequest, map[string]string{"error": "lng must be a number"})
			return
		}

		at := workout.Coordinates{Lat: lat, Lng: lng}
		if !at.Valid() {
			writeJSON(logger, w, http.StatusBadRequest, map[string]string{"error": "coordinates out of range"})
			return
		}

		if !service.Layer().Click(at) {
			writeJSON(logger, w, http.StatusConflict, map[string]string{"error": "map not loaded"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func handleMarkers(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(logger, w, http.StatusOK, service.Layer().GeoJSON())
	})
}

func handleMarkersGPX(logger *slog.Logger, service *Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/gpx+xml")
		w.WriteHeader(http.StatusOK)
		if err := service.Layer().WriteGPX(w); err != nil {
			logger.Error("Error writing gpx", slog.Any("error", err))
		}
	})
}
