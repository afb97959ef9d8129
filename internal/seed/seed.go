package seed

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/aerocost/tripcost/internal/trip"
)

const sampleEstimateName = "Sample Trip (PDX-SFO)"

// Config contains the values required by the startup seed.
type Config struct {
	DevUserEmail string
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the dev startup seed in an idempotent way: it ensures the dev
// user exists and owns one sample estimate demonstrating the calculator.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	if cfg.DevUserEmail == "" {
		return Stats{}, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	userID, err := ensureDevUser(tx, cfg.DevUserEmail, &stats)
	if err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureSampleEstimate(tx, userID, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureDevUser(tx *sql.Tx, email string, stats *Stats) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("check dev user existence: %w", err)
	}

	res, err := tx.Exec(`INSERT INTO users (email) VALUES (?)`, email)
	if err != nil {
		return 0, fmt.Errorf("insert dev user: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read dev user id: %w", err)
	}
	stats.Inserts++
	return id, nil
}

func ensureSampleEstimate(tx *sql.Tx, userID int64, stats *Stats) error {
	var exists bool
	err := tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM estimates WHERE user_id = ? AND name = ?)`,
		userID, sampleEstimateName,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check sample estimate existence: %w", err)
	}
	if exists {
		return nil
	}

	estimate := sampleEstimate()
	totals := trip.Recalculate(estimate)

	data, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("marshal sample estimate: %w", err)
	}
	totalsJSON, err := json.Marshal(totals)
	if err != nil {
		return fmt.Errorf("marshal sample totals: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO estimates (id, user_id, name, data_json, totals_json)
		VALUES (?, ?, ?, ?, ?)
	`, "est_"+uuid.NewString(), userID, sampleEstimateName, string(data), string(totalsJSON))
	if err != nil {
		return fmt.Errorf("insert sample estimate: %w", err)
	}
	stats.Inserts++
	return nil
}

func sampleEstimate() *trip.Estimate {
	e := trip.NewEstimate()
	e.Legs = []trip.Leg{
		{From: "PDX", To: "SFO", Time: "1:35", FuelBurnLb: 2400},
		{From: "SFO", To: "PDX", Time: "1:40", FuelBurnLb: 2500},
	}
	e.CrewExpense.TripDays = 2
	e.CrewExpense.HotelRate = 189
	e.CrewExpense.MealsPerDay = 75
	e.Hourly.MaintenanceProgram = 325
	e.Airport.Landing = 450
	e.Airport.Handling = 300
	e.Notes = "Demo estimate created by the dev seed."
	return e
}
