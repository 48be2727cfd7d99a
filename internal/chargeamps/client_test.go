package chargeamps

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"chargeampsd/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI mimics the slice of the Chargeamps cloud API the client touches.
type fakeAPI struct {
	mu         sync.Mutex
	logins     int
	validToken string
	settings   models.ConnectorSettings
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v5/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("apiKey") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["email"] != "user@example.com" || req["password"] != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		f.mu.Lock()
		f.logins++
		f.validToken = "token-" + string(rune('0'+f.logins))
		token := f.validToken
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token, "refreshToken": "refresh"})
	})

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			token := f.validToken
			f.mu.Unlock()
			if r.Header.Get("Authorization") != "Bearer "+token {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/v5/chargepoints/owned", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode([]models.ChargePoint{{
			ID:   "cp1",
			Name: "Garage",
			Connectors: []models.Connector{
				{ChargePointID: "cp1", ConnectorID: 1, Type: "Type2"},
			},
		}})
	}))

	mux.HandleFunc("/api/v5/chargepoints/cp1/status", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = json.NewEncoder(w).Encode(models.ChargePointStatus{
			ID: "cp1",
			ConnectorStatuses: []models.ConnectorStatus{{
				ChargePointID:       "cp1",
				ConnectorID:         1,
				Status:              "Charging",
				TotalConsumptionKwh: 7.5,
				Measurements: []models.Measurement{
					{Phase: "L1", Current: 16, Voltage: 230},
				},
			}},
		})
	}))

	mux.HandleFunc("/api/v5/chargepoints/cp1/connectors/1/settings", authed(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.settings)
		case http.MethodPut:
			_ = json.NewDecoder(r.Body).Decode(&f.settings)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{
		settings: models.ConnectorSettings{ChargePointID: "cp1", ConnectorID: 1, Mode: models.ModeOff, MaxCurrent: 16},
	}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, "user@example.com", "hunter2", "key123"), api
}

func TestLoginAndGetChargePoints(t *testing.T) {
	client, api := newTestClient(t)

	require.NoError(t, client.Login(context.Background()))

	cps, err := client.GetChargePoints(context.Background())
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, "cp1", cps[0].ID)
	assert.Equal(t, "Garage", cps[0].Name)
	assert.Equal(t, 1, api.logins)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	client, _ := newTestClient(t)
	client.password = "wrong"

	assert.Error(t, client.Login(context.Background()))
}

func TestLazyLogin(t *testing.T) {
	client, api := newTestClient(t)

	// No explicit Login; the first call acquires a token itself.
	st, err := client.GetChargePointStatus(context.Background(), "cp1")
	require.NoError(t, err)
	assert.Equal(t, "Charging", st.ConnectorStatuses[0].Status)
	assert.Equal(t, 7.5, st.ConnectorStatuses[0].TotalConsumptionKwh)
	assert.Equal(t, 1, api.logins)
}

func TestReloginAfterExpiredToken(t *testing.T) {
	client, api := newTestClient(t)
	require.NoError(t, client.Login(context.Background()))

	// Invalidate the session server-side; the next call must re-login once
	// and retry.
	api.mu.Lock()
	api.validToken = "expired"
	api.mu.Unlock()

	cps, err := client.GetChargePoints(context.Background())
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.Equal(t, 2, api.logins)
}

func TestSetConnectorSettings(t *testing.T) {
	client, api := newTestClient(t)

	settings, err := client.GetConnectorSettings(context.Background(), "cp1", 1)
	require.NoError(t, err)
	assert.Equal(t, models.ModeOff, settings.Mode)

	settings.Mode = models.ModeOn
	require.NoError(t, client.SetConnectorSettings(context.Background(), *settings))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, models.ModeOn, api.settings.Mode)
	assert.Equal(t, 16.0, api.settings.MaxCurrent)
}
