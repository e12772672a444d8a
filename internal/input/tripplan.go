// Package input implements the narrow external-collaborator contracts for
// trip-plan and node-location ingestion. XML plan parsing and geospatial
// file loading proper are out of scope; this package only defines the
// plain CSV contract the core consumes.
package input

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

// Leg is one `(x, y, trav_time)` trip record.
type Leg struct {
	Position geo.Position
	TravTime float64 // seconds from the start of this leg
}

// TripPlan is one person's ordered sequence of legs. The first leg defines
// the initial position; subsequent legs are linear-interpolated moves.
type TripPlan struct {
	PersonID string
	Legs     []Leg
}

// LoadTripPlans reads the trip-plan CSV at path. Expected columns:
// person_id,x,y,trav_time (trav_time as HH:MM:SS).
func LoadTripPlans(path string) ([]TripPlan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.ErrConfig("opening trip plan file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, simerr.ErrConfig("parsing trip plan csv", err)
	}
	if len(records) > 0 && isHeader(records[0]) {
		records = records[1:]
	}

	byPerson := make(map[string]*TripPlan)
	order := make([]string, 0)
	for _, rec := range records {
		if len(rec) < 4 {
			continue
		}
		personID := rec[0]
		x, errX := strconv.ParseFloat(rec[1], 64)
		y, errY := strconv.ParseFloat(rec[2], 64)
		trav, errT := parseHHMMSS(rec[3])
		if errX != nil || errY != nil || errT != nil {
			continue
		}
		plan, ok := byPerson[personID]
		if !ok {
			plan = &TripPlan{PersonID: personID}
			byPerson[personID] = plan
			order = append(order, personID)
		}
		plan.Legs = append(plan.Legs, Leg{Position: geo.Position{X: x, Y: y}, TravTime: trav})
	}

	out := make([]TripPlan, 0, len(order))
	for _, id := range order {
		out = append(out, *byPerson[id])
	}
	return out, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseFloat(rec[0], 64)
	return err != nil
}

func parseHHMMSS(s string) (float64, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM:SS %q: %w", s, err)
	}
	return float64(t.Hour()*3600 + t.Minute()*60 + t.Second()), nil
}
