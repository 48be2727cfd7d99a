package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"chargeampsd/internal/config"
	"chargeampsd/internal/models"
	"chargeampsd/internal/services"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type Server struct {
	Cfg     config.Config
	Handler *services.Handler
	Sensors []services.Sensor
	Log     log.FieldLogger
}

func NewServer(cfg config.Config, handler *services.Handler, sensors []services.Sensor, logger log.FieldLogger) *Server {
	return &Server{Cfg: cfg, Handler: handler, Sensors: sensors, Log: logger}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/v1/chargepoints", s.ListChargePoints)
	r.Get("/v1/chargepoints/{chargePointId}", s.GetChargePoint)
	r.Get("/v1/chargepoints/{chargePointId}/status", s.GetChargePointStatus)
	r.Get("/v1/sensors", s.ListSensors)

	r.Route("/v1/services", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler { return RequireBearer(s.Cfg.APIToken, next) })
		r.Post("/set_max_current", s.SetMaxCurrent)
		r.Post("/enable", s.Enable)
		r.Post("/disable", s.Disable)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return r
}

func (s *Server) ListChargePoints(w http.ResponseWriter, r *http.Request) {
	out := []models.ChargePoint{}
	for _, id := range s.Handler.ChargePointIDs() {
		if cp, ok := s.Handler.Info(id); ok {
			out = append(out, cp)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetChargePoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chargePointId")
	cp, ok := s.Handler.Info(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

func (s *Server) GetChargePointStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chargePointId")
	snap, ok := s.Handler.Status(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     snap.Status,
		"fetchedAt":  snap.FetchedAt,
		"ageSeconds": time.Since(snap.FetchedAt).Seconds(),
	})
}

func (s *Server) ListSensors(w http.ResponseWriter, r *http.Request) {
	out := make([]services.Reading, 0, len(s.Sensors))
	for _, sensor := range s.Sensors {
		out = append(out, sensor.Reading())
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
