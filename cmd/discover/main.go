package main

import (
	"context"
	"flag"
	"os"
	"time"

	"chargeampsd/internal/chargeamps"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
)

// discover lists the charge points visible to a Chargeamps account, for
// picking ids to put in CHARGEAMPS_CHARGEPOINTS.
func main() {
	baseURL := flag.String("url", "", "API base URL override")
	email := flag.String("email", os.Getenv("CHARGEAMPS_USERNAME"), "account email")
	password := flag.String("password", os.Getenv("CHARGEAMPS_PASSWORD"), "account password")
	apiKey := flag.String("api-key", os.Getenv("CHARGEAMPS_API_KEY"), "API key")
	withStatus := flag.Bool("status", false, "also fetch live connector status")
	flag.Parse()

	if *email == "" || *password == "" || *apiKey == "" {
		log.Fatal("email, password and api-key are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := chargeamps.New(*baseURL, *email, *password, *apiKey)
	if err := client.Login(ctx); err != nil {
		log.Fatal(err)
	}

	cps, err := client.GetChargePoints(ctx)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Chargepoint", "Name", "Type", "Firmware", "Connector", "Connector Type", "Status", "kWh"})
	for _, cp := range cps {
		statuses := map[int]string{}
		energy := map[int]float64{}
		if *withStatus {
			st, err := client.GetChargePointStatus(ctx, cp.ID)
			if err != nil {
				log.WithError(err).WithField("chargepoint", cp.ID).Error("could not fetch status")
			} else {
				for _, cs := range st.ConnectorStatuses {
					statuses[cs.ConnectorID] = cs.Status
					energy[cs.ConnectorID] = cs.TotalConsumptionKwh
				}
			}
		}
		for _, conn := range cp.Connectors {
			t.AppendRow(table.Row{
				cp.ID, cp.Name, cp.Type, cp.FirmwareVersion,
				conn.ConnectorID, conn.Type,
				statuses[conn.ConnectorID], energy[conn.ConnectorID],
			})
		}
	}
	t.Render()
}
