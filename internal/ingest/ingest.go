// Package ingest loads the CSV fixtures described in spec §6: one file of
// drone introduction parameters and, per warehouse, a file whose first row
// is the warehouse and whose remaining rows are its free orders. Malformed
// rows reject the whole run at bootstrap (spec §7 kind 5) — callers are
// expected to treat any error from this package as fatal before any agent
// starts.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/Ptozin/droneswarm/models"
)

// DroneSpec is one row of delivery_drones.csv, already unit-converted.
type DroneSpec struct {
	ID           string
	CapacityKG   int
	AutonomyM    float64
	VelocityMS   float64
	InitialWH    string
}

// WarehouseSpec is one delivery_center{N}.csv file: its warehouse row plus
// every order row that follows it.
type WarehouseSpec struct {
	ID     string
	Lat    float64
	Lon    float64
	Orders []models.Order
}

// LoadDrones parses delivery_drones.csv: {id, capacity("Nkg"), autonomy("NKm"),
// velocity("Nm/s"), initialPos}.
func LoadDrones(path string) ([]DroneSpec, error) {
	rows, err := readSemicolonCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.Errorf("ingest: %s: expected a header and at least one drone row", path)
	}

	header := indexHeader(rows[0])
	want := []string{"id", "capacity", "autonomy", "velocity", "initialPos"}
	for _, col := range want {
		if _, ok := header[col]; !ok {
			return nil, errors.Errorf("ingest: %s: missing column %q", path, col)
		}
	}

	specs := make([]DroneSpec, 0, len(rows)-1)
	for i, row := range rows[1:] {
		lineNo := i + 2
		id := strings.TrimSpace(row[header["id"]])
		if id == "" {
			return nil, errors.Errorf("ingest: %s: line %d: empty id", path, lineNo)
		}

		capacity, err := strconv.Atoi(stripSuffix(row[header["capacity"]], "kg"))
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: %s: line %d: capacity", path, lineNo)
		}
		autonomyKm, err := strconv.Atoi(stripSuffix(row[header["autonomy"]], "Km"))
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: %s: line %d: autonomy", path, lineNo)
		}
		velocity, err := strconv.Atoi(stripSuffix(row[header["velocity"]], "m/s"))
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: %s: line %d: velocity", path, lineNo)
		}
		initialPos := strings.TrimSpace(row[header["initialPos"]])
		if initialPos == "" {
			return nil, errors.Errorf("ingest: %s: line %d: empty initialPos", path, lineNo)
		}

		specs = append(specs, DroneSpec{
			ID:         id,
			CapacityKG: capacity,
			AutonomyM:  float64(autonomyKm) * 1000,
			VelocityMS: float64(velocity),
			InitialWH:  initialPos,
		})
	}
	return specs, nil
}

// LoadWarehouse parses a delivery_center{N}.csv file: {id, latitude,
// longitude} for the warehouse row, then {id, latitude, longitude, weight}
// for every order row.
func LoadWarehouse(path string) (WarehouseSpec, error) {
	rows, err := readSemicolonCSV(path)
	if err != nil {
		return WarehouseSpec{}, err
	}
	if len(rows) < 2 {
		return WarehouseSpec{}, errors.Errorf("ingest: %s: expected a header and a warehouse row", path)
	}

	header := indexHeader(rows[0])
	for _, col := range []string{"id", "latitude", "longitude"} {
		if _, ok := header[col]; !ok {
			return WarehouseSpec{}, errors.Errorf("ingest: %s: missing column %q", path, col)
		}
	}
	weightCol, hasWeight := header["weight"]

	whRow := rows[1]
	whID := strings.TrimSpace(whRow[header["id"]])
	if whID == "" {
		return WarehouseSpec{}, errors.Errorf("ingest: %s: line 2: empty warehouse id", path)
	}
	whLat, err := parseDecimalComma(whRow[header["latitude"]])
	if err != nil {
		return WarehouseSpec{}, errors.Wrapf(err, "ingest: %s: line 2: latitude", path)
	}
	whLon, err := parseDecimalComma(whRow[header["longitude"]])
	if err != nil {
		return WarehouseSpec{}, errors.Wrapf(err, "ingest: %s: line 2: longitude", path)
	}

	spec := WarehouseSpec{ID: whID, Lat: whLat, Lon: whLon}

	for i, row := range rows[2:] {
		lineNo := i + 3
		orderID := strings.TrimSpace(row[header["id"]])
		if orderID == "" {
			return WarehouseSpec{}, errors.Errorf("ingest: %s: line %d: empty order id", path, lineNo)
		}
		lat, err := parseDecimalComma(row[header["latitude"]])
		if err != nil {
			return WarehouseSpec{}, errors.Wrapf(err, "ingest: %s: line %d: latitude", path, lineNo)
		}
		lon, err := parseDecimalComma(row[header["longitude"]])
		if err != nil {
			return WarehouseSpec{}, errors.Wrapf(err, "ingest: %s: line %d: longitude", path, lineNo)
		}
		weight := 0
		if hasWeight {
			weight, err = strconv.Atoi(strings.TrimSpace(row[weightCol]))
			if err != nil {
				return WarehouseSpec{}, errors.Wrapf(err, "ingest: %s: line %d: weight", path, lineNo)
			}
		}

		spec.Orders = append(spec.Orders, models.Order{
			ID:          orderID,
			WarehouseID: whID,
			OriginLat:   whLat,
			OriginLon:   whLon,
			DestLat:     lat,
			DestLon:     lon,
			WeightKG:    weight,
			Status:      models.OrderStatusFree,
		})
	}

	return spec, nil
}

func readSemicolonCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "ingest: %s: malformed row", path)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func indexHeader(row []string) map[string]int {
	idx := make(map[string]int, len(row))
	for i, col := range row {
		idx[strings.TrimSpace(col)] = i
	}
	return idx
}

func stripSuffix(raw, suffix string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), suffix)
}

func parseDecimalComma(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse float %q: %w", raw, err)
	}
	return v, nil
}
