package input

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/simonhuber95/Fog-Node-Discovery/internal/geo"
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simerr"
)

// NodeLocation is a point feature with an Antennas attribute driving slot
// count.
type NodeLocation struct {
	Position geo.Position
	Antennas int
}

// Slots returns the admission capacity this location grants: ceil(Antennas
// * slotScaler), or math.MaxInt32 when unlimitedBandwidth is set.
func (n NodeLocation) Slots(slotScaler float64, unlimitedBandwidth bool) int {
	if unlimitedBandwidth {
		return math.MaxInt32
	}
	return int(math.Ceil(float64(n.Antennas) * slotScaler))
}

// LoadNodeLocations reads the node-location CSV at path. Expected columns:
// x,y,antennas.
func LoadNodeLocations(path string) ([]NodeLocation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, simerr.ErrConfig("opening node location file", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, simerr.ErrConfig("parsing node location csv", err)
	}
	if len(records) > 0 && isHeader(records[0]) {
		records = records[1:]
	}

	out := make([]NodeLocation, 0, len(records))
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		x, errX := strconv.ParseFloat(rec[0], 64)
		y, errY := strconv.ParseFloat(rec[1], 64)
		antennas, errA := strconv.Atoi(rec[2])
		if errX != nil || errY != nil || errA != nil {
			continue
		}
		out = append(out, NodeLocation{Position: geo.Position{X: x, Y: y}, Antennas: antennas})
	}
	return out, nil
}
