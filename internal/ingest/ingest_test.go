package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadDrones_ParsesUnitsAndStripsSuffixes(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "delivery_drones.csv",
		"id;capacity;autonomy;velocity;initialPos\n"+
			"1;5kg;10Km;8m/s;wh1\n"+
			"2;3kg;4Km;6m/s;wh2\n")

	specs, err := LoadDrones(path)
	if err != nil {
		t.Fatalf("LoadDrones: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 drones, got %d", len(specs))
	}
	if specs[0].CapacityKG != 5 || specs[0].AutonomyM != 10000 || specs[0].VelocityMS != 8 || specs[0].InitialWH != "wh1" {
		t.Fatalf("unexpected first drone spec: %+v", specs[0])
	}
}

func TestLoadDrones_RejectsMalformedRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "delivery_drones.csv",
		"id;capacity;autonomy;velocity;initialPos\n"+
			"1;notanumberkg;10Km;8m/s;wh1\n")

	if _, err := LoadDrones(path); err == nil {
		t.Fatalf("expected error for malformed capacity")
	}
}

func TestLoadWarehouse_FirstRowIsWarehouseRestAreOrders(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "delivery_center1.csv",
		"id;latitude;longitude;weight\n"+
			"wh1;40,5;-8,2;\n"+
			"o1;40,6;-8,3;2\n"+
			"o2;40,7;-8,4;3\n")

	spec, err := LoadWarehouse(path)
	if err != nil {
		t.Fatalf("LoadWarehouse: %v", err)
	}
	if spec.ID != "wh1" || spec.Lat != 40.5 || spec.Lon != -8.2 {
		t.Fatalf("unexpected warehouse spec: %+v", spec)
	}
	if len(spec.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(spec.Orders))
	}
	if spec.Orders[0].WarehouseID != "wh1" || spec.Orders[0].OriginLat != 40.5 {
		t.Fatalf("expected order origin to be warehouse position, got %+v", spec.Orders[0])
	}
	if spec.Orders[1].WeightKG != 3 {
		t.Fatalf("expected second order weight 3, got %d", spec.Orders[1].WeightKG)
	}
}

func TestLoad_DiscoversAllDeliveryCenters(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivery_drones.csv", "id;capacity;autonomy;velocity;initialPos\n1;5kg;10Km;8m/s;wh1\n")
	writeFile(t, dir, "delivery_center1.csv", "id;latitude;longitude;weight\nwh1;0,0;0,0;\no1;0,1;0,1;1\n")
	writeFile(t, dir, "delivery_center2.csv", "id;latitude;longitude;weight\nwh2;1,0;1,0;\n")

	ds, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ds.Drones) != 1 || len(ds.Warehouses) != 2 {
		t.Fatalf("unexpected dataset shape: %+v", ds)
	}
	if ds.Warehouses[0].ID != "wh1" || ds.Warehouses[1].ID != "wh2" {
		t.Fatalf("expected warehouses in ascending filename order, got %+v", ds.Warehouses)
	}
}

func TestLoad_MissingDeliveryCentersFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivery_drones.csv", "id;capacity;autonomy;velocity;initialPos\n1;5kg;10Km;8m/s;wh1\n")

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected error when no delivery_center files are present")
	}
}
