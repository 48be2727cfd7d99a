package repo

import (
	"context"
	"encoding/json"
	"time"

	"chargeampsd/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// HistoryRepo appends connector status samples on every successful refresh
// and keeps the latest state queryable. Tables:
//
//	connector_history(charge_point_id, connector_id, status,
//	                  total_consumption_kwh, measurements, fetched_at)
//	connector_state(charge_point_id, connector_id, status,
//	                total_consumption_kwh, updated_at)
type HistoryRepo struct{ db *pgxpool.Pool }

func NewHistoryRepo(db *pgxpool.Pool) *HistoryRepo { return &HistoryRepo{db: db} }

func (r *HistoryRepo) RecordStatus(ctx context.Context, st models.ChargePointStatus, ts time.Time) error {
	for _, cs := range st.ConnectorStatuses {
		measurements, err := json.Marshal(cs.Measurements)
		if err != nil {
			return err
		}
		if _, err := r.db.Exec(ctx, `
			insert into connector_history (charge_point_id, connector_id, status, total_consumption_kwh, measurements, fetched_at)
			values ($1,$2,$3,$4,$5,$6)
		`, cs.ChargePointID, cs.ConnectorID, cs.Status, cs.TotalConsumptionKwh, measurements, ts); err != nil {
			return err
		}
		if _, err := r.db.Exec(ctx, `
			insert into connector_state (charge_point_id, connector_id, status, total_consumption_kwh, updated_at)
			values ($1,$2,$3,$4,$5)
			on conflict (charge_point_id, connector_id) do update set
			  status=excluded.status,
			  total_consumption_kwh=excluded.total_consumption_kwh,
			  updated_at=excluded.updated_at
		`, cs.ChargePointID, cs.ConnectorID, cs.Status, cs.TotalConsumptionKwh, ts); err != nil {
			return err
		}
	}
	return nil
}

func (r *HistoryRepo) ListConnectorState(ctx context.Context, chargePointID string) ([]models.ConnectorStatus, error) {
	rows, err := r.db.Query(ctx, `
		select charge_point_id, connector_id, status, total_consumption_kwh
		from connector_state where charge_point_id=$1
		order by connector_id asc
	`, chargePointID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConnectorStatus
	for rows.Next() {
		var cs models.ConnectorStatus
		if err := rows.Scan(&cs.ChargePointID, &cs.ConnectorID, &cs.Status, &cs.TotalConsumptionKwh); err != nil {
			return nil, err
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}
