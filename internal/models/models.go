package models

// Connector modes accepted by the Chargeamps settings endpoint.
const (
	ModeOn  = "On"
	ModeOff = "Off"
)

type ChargePoint struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Type            string      `json:"type"`
	FirmwareVersion string      `json:"firmwareVersion"`
	HardwareVersion string      `json:"hardwareVersion"`
	Connectors      []Connector `json:"connectors"`
}

type Connector struct {
	ChargePointID string `json:"chargePointId"`
	ConnectorID   int    `json:"connectorId"`
	Type          string `json:"type"`
}

type ChargePointStatus struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	ConnectorStatuses []ConnectorStatus `json:"connectorStatuses"`
}

type ConnectorStatus struct {
	ChargePointID       string        `json:"chargePointId"`
	ConnectorID         int           `json:"connectorId"`
	Status              string        `json:"status"`
	TotalConsumptionKwh float64       `json:"totalConsumptionKwh"`
	Measurements        []Measurement `json:"measurements"`
}

// Measurement is one phase reading reported by the charge point.
type Measurement struct {
	Phase   string  `json:"phase"`
	Current float64 `json:"current"`
	Voltage float64 `json:"voltage"`
}

type ConnectorSettings struct {
	ChargePointID string  `json:"chargePointId"`
	ConnectorID   int     `json:"connectorId"`
	Mode          string  `json:"mode"`
	MaxCurrent    float64 `json:"maxCurrent"`
}
