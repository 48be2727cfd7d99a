package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Reading is the externally visible state of one sensor.
type Reading struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	State      any            `json:"state"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Sensor projects a slice of the cached snapshot into a displayed reading.
// Update asks the handler for a refresh first; inside the throttle window
// that is a no-op and the sensor re-reads the existing snapshot. A missing
// cache entry leaves the previous reading unchanged.
type Sensor interface {
	ID() string
	Update(ctx context.Context)
	Reading() Reading
}

// BuildSensors creates the sensor set for all tracked charge points: one
// total-energy sensor per charge point, one status and one power sensor per
// connector. UpdateInfo must have run first.
func BuildSensors(h *Handler, logger log.FieldLogger) []Sensor {
	var sensors []Sensor
	for _, cpID := range h.ChargePointIDs() {
		info, ok := h.Info(cpID)
		if !ok {
			continue
		}
		sensors = append(sensors, newTotalEnergySensor(h, fmt.Sprintf("%s_%s_total_energy", info.Name, cpID), cpID))
		for _, conn := range info.Connectors {
			sensors = append(sensors,
				newConnectorSensor(h, fmt.Sprintf("%s_%s_%d", info.Name, cpID, conn.ConnectorID), cpID, conn.ConnectorID),
				newPowerSensor(h, fmt.Sprintf("%s %s %d Power", info.Name, cpID, conn.ConnectorID), cpID, conn.ConnectorID),
			)
			logger.WithFields(log.Fields{
				"chargepoint": cpID,
				"connector":   conn.ConnectorID,
			}).Info("adding connector sensors")
		}
	}
	return sensors
}

type baseSensor struct {
	handler       *Handler
	chargePointID string
	connectorID   int

	mu      sync.RWMutex
	reading Reading
}

func (s *baseSensor) ID() string { return s.reading.ID }

func (s *baseSensor) Reading() Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := s.reading
	if s.reading.Attributes != nil {
		r.Attributes = make(map[string]any, len(s.reading.Attributes))
		for k, v := range s.reading.Attributes {
			r.Attributes[k] = v
		}
	}
	return r
}

// ConnectorSensor shows the textual connector status plus cumulative energy.
type ConnectorSensor struct {
	baseSensor
	interviewed bool
}

func newConnectorSensor(h *Handler, name, chargePointID string, connectorID int) *ConnectorSensor {
	return &ConnectorSensor{baseSensor: baseSensor{
		handler:       h,
		chargePointID: chargePointID,
		connectorID:   connectorID,
		reading: Reading{
			ID:         fmt.Sprintf("chargeamps_%s_%d", chargePointID, connectorID),
			Name:       name,
			Attributes: map[string]any{},
		},
	}}
}

func (s *ConnectorSensor) Update(ctx context.Context) {
	s.handler.UpdateData(ctx, s.chargePointID)
	status, ok := s.handler.ConnectorStatus(s.chargePointID, s.connectorID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading.State = status.Status
	s.reading.Attributes["total_consumption_kwh"] = round(status.TotalConsumptionKwh, 3)
	s.reading.UpdatedAt = time.Now().UTC()
	if !s.interviewed {
		s.interview()
	}
}

// interview fills metadata attributes once from the startup info snapshot.
func (s *ConnectorSensor) interview() {
	info, ok := s.handler.Info(s.chargePointID)
	if !ok {
		return
	}
	s.reading.Attributes["chargepoint_type"] = info.Type
	for _, conn := range info.Connectors {
		if conn.ConnectorID == s.connectorID {
			s.reading.Attributes["connector_type"] = conn.Type
		}
	}
	s.interviewed = true
}

// PowerSensor derives instantaneous per-phase power from the measurements.
type PowerSensor struct {
	baseSensor
}

func newPowerSensor(h *Handler, name, chargePointID string, connectorID int) *PowerSensor {
	return &PowerSensor{baseSensor: baseSensor{
		handler:       h,
		chargePointID: chargePointID,
		connectorID:   connectorID,
		reading: Reading{
			ID:         fmt.Sprintf("chargeamps_%s_%d_power", chargePointID, connectorID),
			Name:       name,
			Unit:       "W",
			Attributes: map[string]any{},
		},
	}}
}

func (s *PowerSensor) Update(ctx context.Context) {
	s.handler.UpdateData(ctx, s.chargePointID)
	status, ok := s.handler.ConnectorStatus(s.chargePointID, s.connectorID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(status.Measurements) > 0 {
		var total float64
		var active []string
		for _, m := range status.Measurements {
			total += m.Current * m.Voltage
			if m.Current > 0 {
				active = append(active, m.Phase)
			}
			phase := strings.ToLower(m.Phase)
			s.reading.Attributes[phase+"_power"] = round(m.Current*m.Voltage, 0)
			s.reading.Attributes[phase+"_current"] = round(m.Current, 1)
		}
		s.reading.State = round(total, 0)
		s.reading.Attributes["active_phase"] = strings.Join(active, " ")
	} else {
		s.reading.State = float64(0)
		s.reading.Attributes["active_phase"] = ""
		for phase := 1; phase <= 3; phase++ {
			s.reading.Attributes[fmt.Sprintf("l%d_power", phase)] = float64(0)
			s.reading.Attributes[fmt.Sprintf("l%d_current", phase)] = float64(0)
		}
	}
	s.reading.UpdatedAt = time.Now().UTC()
}

// TotalEnergySensor aggregates energy across all connectors of a charge point.
type TotalEnergySensor struct {
	baseSensor
}

func newTotalEnergySensor(h *Handler, name, chargePointID string) *TotalEnergySensor {
	return &TotalEnergySensor{baseSensor: baseSensor{
		handler:       h,
		chargePointID: chargePointID,
		reading: Reading{
			ID:   fmt.Sprintf("chargeamps_%s_total_energy", chargePointID),
			Name: name,
			Unit: "kWh",
		},
	}}
}

func (s *TotalEnergySensor) Update(ctx context.Context) {
	s.handler.UpdateData(ctx, s.chargePointID)
	if _, ok := s.handler.Status(s.chargePointID); !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading.State = round(s.handler.TotalEnergy(s.chargePointID), 3)
	s.reading.UpdatedAt = time.Now().UTC()
}

func round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
