package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chargeampsd/internal/cache"
	"chargeampsd/internal/models"

	log "github.com/sirupsen/logrus"
)

// VendorClient is the contract with the Chargeamps cloud API.
type VendorClient interface {
	GetChargePoints(ctx context.Context) ([]models.ChargePoint, error)
	GetChargePointStatus(ctx context.Context, id string) (*models.ChargePointStatus, error)
	GetConnectorSettings(ctx context.Context, id string, connectorID int) (*models.ConnectorSettings, error)
	SetConnectorSettings(ctx context.Context, settings models.ConnectorSettings) error
}

// HistoryRecorder persists status samples. Recording is best-effort.
type HistoryRecorder interface {
	RecordStatus(ctx context.Context, st models.ChargePointStatus, ts time.Time) error
}

const defaultConnectorID = 1

// Handler is the single point of contact with the vendor API. It owns the
// snapshot cache and throttles live refreshes per charge point.
type Handler struct {
	client   VendorClient
	cache    *cache.Cache
	history  HistoryRecorder
	throttle *keyedThrottle
	log      log.FieldLogger

	chargePointIDs []string
}

func NewHandler(client VendorClient, c *cache.Cache, ids []string, interval time.Duration, logger log.FieldLogger) *Handler {
	return &Handler{
		client:         client,
		cache:          c,
		throttle:       newKeyedThrottle(interval),
		log:            logger,
		chargePointIDs: ids,
	}
}

// SetHistory attaches an optional status recorder.
func (h *Handler) SetHistory(r HistoryRecorder) { h.history = r }

// Discover resolves the set of tracked charge point ids. Explicitly
// configured ids are validated with a status fetch; invalid ones are logged
// and dropped. Without configuration all account charge points are tracked.
// Ending up with zero charge points is fatal.
func Discover(ctx context.Context, client VendorClient, configured []string, logger log.FieldLogger) ([]string, error) {
	var ids []string
	if len(configured) > 0 {
		for _, id := range configured {
			if _, err := client.GetChargePointStatus(ctx, id); err != nil {
				logger.WithError(err).WithField("chargepoint", id).Error("error adding chargepoint")
				continue
			}
			logger.WithField("chargepoint", id).Info("adding chargepoint")
			ids = append(ids, id)
		}
	} else {
		cps, err := client.GetChargePoints(ctx)
		if err != nil {
			return nil, fmt.Errorf("discover chargepoints: %w", err)
		}
		for _, cp := range cps {
			logger.WithField("chargepoint", cp.ID).Info("discovered chargepoint")
			ids = append(ids, cp.ID)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("no chargepoints found")
	}
	return ids, nil
}

func (h *Handler) ChargePointIDs() []string { return h.chargePointIDs }

// DefaultChargePointID is the first discovered charge point. Services that
// omit a target fall back to it.
func (h *Handler) DefaultChargePointID() string { return h.chargePointIDs[0] }

func (h *Handler) DefaultConnectorID() int { return defaultConnectorID }

// UpdateInfo fetches metadata for all tracked charge points. Called once at
// startup; a failure here aborts setup.
func (h *Handler) UpdateInfo(ctx context.Context) error {
	cps, err := h.client.GetChargePoints(ctx)
	if err != nil {
		return fmt.Errorf("update chargepoint info: %w", err)
	}
	for _, cp := range cps {
		if !h.tracked(cp.ID) {
			continue
		}
		h.cache.SetInfo(cp)
		h.log.WithField("chargepoint", cp.ID).Info("updated chargepoint info")
	}
	return nil
}

// UpdateData refreshes the live status of one charge point, at most once per
// throttle interval. Failures are logged and swallowed: the previous
// snapshot stays in place and sensors keep showing last known data.
func (h *Handler) UpdateData(ctx context.Context, chargePointID string) {
	if !h.throttle.Allow(chargePointID) {
		return
	}
	status, err := h.client.GetChargePointStatus(ctx, chargePointID)
	if err != nil {
		h.log.WithError(err).WithField("chargepoint", chargePointID).Error("could not update data")
		return
	}
	now := time.Now().UTC()
	h.cache.SetStatus(chargePointID, *status, now)
	h.log.WithField("chargepoint", chargePointID).Debug("updated chargepoint data")

	if h.history != nil {
		if err := h.history.RecordStatus(ctx, *status, now); err != nil {
			h.log.WithError(err).WithField("chargepoint", chargePointID).Error("could not record history")
		}
	}
}

// SetConnectorMode switches charging on or off for one connector. The
// settings object is fetched, mutated and written back; errors propagate.
func (h *Handler) SetConnectorMode(ctx context.Context, chargePointID string, connectorID int, mode string) error {
	settings, err := h.client.GetConnectorSettings(ctx, chargePointID, connectorID)
	if err != nil {
		return err
	}
	settings.Mode = mode
	h.log.WithFields(log.Fields{
		"chargepoint": chargePointID,
		"connector":   connectorID,
		"mode":        mode,
	}).Info("setting connector mode")
	return h.client.SetConnectorSettings(ctx, *settings)
}

func (h *Handler) SetConnectorMaxCurrent(ctx context.Context, chargePointID string, connectorID int, maxCurrent float64) error {
	settings, err := h.client.GetConnectorSettings(ctx, chargePointID, connectorID)
	if err != nil {
		return err
	}
	settings.MaxCurrent = maxCurrent
	h.log.WithFields(log.Fields{
		"chargepoint": chargePointID,
		"connector":   connectorID,
		"max_current": maxCurrent,
	}).Info("setting connector max current")
	return h.client.SetConnectorSettings(ctx, *settings)
}

// Cache read-through accessors, the only way sensors and the API see state.

func (h *Handler) Info(id string) (models.ChargePoint, bool) { return h.cache.Info(id) }

func (h *Handler) Status(id string) (cache.Snapshot, bool) { return h.cache.Status(id) }

func (h *Handler) ConnectorStatus(id string, connectorID int) (models.ConnectorStatus, bool) {
	return h.cache.ConnectorStatus(id, connectorID)
}

// TotalEnergy sums the cumulative consumption of all connectors of one
// charge point, in kWh.
func (h *Handler) TotalEnergy(id string) float64 {
	snap, ok := h.cache.Status(id)
	if !ok {
		return 0
	}
	var total float64
	for _, cs := range snap.Status.ConnectorStatuses {
		total += cs.TotalConsumptionKwh
	}
	return total
}

func (h *Handler) tracked(id string) bool {
	for _, t := range h.chargePointIDs {
		if t == id {
			return true
		}
	}
	return false
}
