package httpapi

import (
	"encoding/json"
	"net/http"

	"chargeampsd/internal/models"
)

// serviceReq is the shared body of the control endpoints. Unset chargepoint
// and connector default to the first discovered charge point and connector 1.
type serviceReq struct {
	ChargePoint string   `json:"chargepoint"`
	Connector   int      `json:"connector"`
	MaxCurrent  *float64 `json:"max_current"`
}

func (s *Server) decodeServiceReq(r *http.Request) (serviceReq, error) {
	var req serviceReq
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
	}
	if req.ChargePoint == "" {
		req.ChargePoint = s.Handler.DefaultChargePointID()
	}
	if req.Connector == 0 {
		req.Connector = s.Handler.DefaultConnectorID()
	}
	return req, nil
}

func (s *Server) SetMaxCurrent(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeServiceReq(r)
	if err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.MaxCurrent == nil {
		http.Error(w, "missing max_current", http.StatusBadRequest)
		return
	}
	if err := s.Handler.SetConnectorMaxCurrent(r.Context(), req.ChargePoint, req.Connector, *req.MaxCurrent); err != nil {
		http.Error(w, "vendor error: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chargepoint": req.ChargePoint,
		"connector":   req.Connector,
		"max_current": *req.MaxCurrent,
	})
}

func (s *Server) Enable(w http.ResponseWriter, r *http.Request) {
	s.setMode(w, r, models.ModeOn)
}

func (s *Server) Disable(w http.ResponseWriter, r *http.Request) {
	s.setMode(w, r, models.ModeOff)
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request, mode string) {
	req, err := s.decodeServiceReq(r)
	if err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := s.Handler.SetConnectorMode(r.Context(), req.ChargePoint, req.Connector, mode); err != nil {
		http.Error(w, "vendor error: "+err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"chargepoint": req.ChargePoint,
		"connector":   req.Connector,
		"mode":        mode,
	})
}
