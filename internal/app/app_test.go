// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package app

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"geoagent/platform/internal/config"
	"geoagent/platform/internal/kernel"
	"geoagent/platform/internal/registry"
	"geoagent/platform/internal/sqlrunner"
)

type fakeTileServer struct {
	index   []registry.IndexEntry
	details map[string]registry.TableDetail
}

func (f *fakeTileServer) FetchIndex(context.Context) ([]registry.IndexEntry, error) {
	return f.index, nil
}

func (f *fakeTileServer) FetchDetail(_ context.Context, detailURL string) (registry.TableDetail, error) {
	return f.details[detailURL], nil
}

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	d, _ := newTestDepsWithMock(t)
	return d
}

func newTestDepsWithMock(t *testing.T) (*Deps, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ts := &fakeTileServer{
		index: []registry.IndexEntry{{Name: "public.parcels", DetailURL: "/detail/parcels"}},
		details: map[string]registry.TableDetail{
			"/detail/parcels": {
				Columns: []string{"bldgarea", "lotarea", "geometry"},
				TileURL: "https://tiles.example.com/parcels/{z}/{x}/{y}.pbf",
				Bounds:  registry.BoundingBox{West: -1, South: -1, East: 1, North: 1},
			},
		},
	}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ST_GeometryType`).
		WillReturnRows(sqlmock.NewRows([]string{"geometry_type"}).AddRow("ST_MultiPolygon"))
	mock.ExpectCommit()

	runner := sqlrunner.NewRunner("../sqlrunner/templates", 0)
	reg := registry.New(ts, runner, db, "geometry", nil)
	if err := reg.Discover(context.Background()); err != nil {
		t.Fatalf("Discover: %v", err)
	}

	cfg := &config.Config{
		Database: config.DatabaseConfig{BaseSchemaName: "public"},
		Map:      config.MapConfig{DefaultSRID: 3857, GeometryColumn: "geometry"},
	}

	return NewDeps(cfg, db, runner, reg, nil, nil, nil), mock
}

func TestBuildSystemMessage_IncludesRegisteredTableAndLayer(t *testing.T) {
	d := newTestDeps(t)
	a := kernel.New("s1", nil, nil)

	msg, err := d.buildSystemMessage(context.Background(), a, "hello")
	if err != nil {
		t.Fatalf("buildSystemMessage: %v", err)
	}
	if !strings.Contains(msg, "public.parcels") {
		t.Errorf("expected system message to mention the registered table, got:\n%s", msg)
	}
	if !strings.Contains(msg, "No tables are currently registered") {
		if !strings.Contains(msg, "Available tables") {
			t.Errorf("expected an 'Available tables' section, got:\n%s", msg)
		}
	}
	if !strings.Contains(msg, "no layers") {
		t.Errorf("expected the empty-map sentence when no layers are added, got:\n%s", msg)
	}
}

func TestAddMapLayer_UnknownTableReturnsError(t *testing.T) {
	d := newTestDeps(t)
	a := kernel.New("s1", nil, nil)

	_, err := d.addMapLayer(context.Background(), a, json.RawMessage(`{"table":"does_not_exist","layer_id":"l1"}`))
	if err == nil {
		t.Fatal("expected an error for an unregistered table")
	}
}

func TestAddMapLayer_ThenRemoveMapLayer_ThenResetMap(t *testing.T) {
	d := newTestDeps(t)
	a := kernel.New("s1", nil, nil)

	if _, err := d.addMapLayer(context.Background(), a, json.RawMessage(`{"table":"public.parcels","layer_id":"l1","color":"#ff0000","style":"fill"}`)); err != nil {
		t.Fatalf("addMapLayer: %v", err)
	}
	if got := len(a.Map.Status()); got != 1 {
		t.Fatalf("expected 1 layer after add, got %d", got)
	}

	if _, err := d.removeMapLayer(context.Background(), a, json.RawMessage(`{"layer_id":"l1"}`)); err != nil {
		t.Fatalf("removeMapLayer: %v", err)
	}
	if got := len(a.Map.Status()); got != 0 {
		t.Fatalf("expected 0 layers after remove, got %d", got)
	}

	if _, err := d.addMapLayer(context.Background(), a, json.RawMessage(`{"table":"public.parcels","layer_id":"l2"}`)); err != nil {
		t.Fatalf("addMapLayer: %v", err)
	}
	if _, err := d.resetMap(context.Background(), a, nil); err != nil {
		t.Fatalf("resetMap: %v", err)
	}
	if got := len(a.Map.Status()); got != 0 {
		t.Fatalf("expected 0 layers after reset, got %d", got)
	}
}

func TestListTables_ReturnsRegisteredDescriptor(t *testing.T) {
	d := newTestDeps(t)
	a := kernel.New("s1", nil, nil)

	result, err := d.listTables(context.Background(), a, nil)
	if err != nil {
		t.Fatalf("listTables: %v", err)
	}
	rows, ok := result.([]map[string]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 table row, got %+v", result)
	}
	if rows[0]["name"] != "public.parcels" {
		t.Errorf("unexpected table name: %+v", rows[0])
	}
}

func TestQueryAtPoint_NoActiveLayerReturnsError(t *testing.T) {
	d := newTestDeps(t)
	a := kernel.New("s1", nil, nil)

	_, err := d.queryAtPoint(context.Background(), a, json.RawMessage(`{"lat":40.7,"lon":-74.0}`))
	if err == nil {
		t.Fatal("expected an error with no active map layer")
	}
}

func TestQueryAtPoint_QueriesActiveLayerTable(t *testing.T) {
	d, mock := newTestDepsWithMock(t)
	a := kernel.New("s1", nil, nil)

	if _, err := d.addMapLayer(context.Background(), a, json.RawMessage(`{"table":"public.parcels","layer_id":"l1"}`)); err != nil {
		t.Fatalf("addMapLayer: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "public"\."parcels"`).
		WillReturnRows(sqlmock.NewRows([]string{"bldgarea", "geometry"}).AddRow(1200, "0101..."))
	mock.ExpectCommit()

	result, err := d.queryAtPoint(context.Background(), a, json.RawMessage(`{"lat":40.7,"lon":-74.0}`))
	if err != nil {
		t.Fatalf("queryAtPoint: %v", err)
	}
	rows, ok := result.([]map[string]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("expected 1 row, got %+v", result)
	}
	if _, hasGeometry := rows[0]["geometry"]; hasGeometry {
		t.Errorf("expected the geometry column to be stripped, got %+v", rows[0])
	}
	if rows[0]["bldgarea"] != int64(1200) {
		t.Errorf("expected bldgarea column to survive, got %+v", rows[0])
	}
}

func TestBuildPlanSchema_OffersRegisteredTableAndItsColumnsAsKnown(t *testing.T) {
	d := newTestDeps(t)

	schema, err := d.buildPlanSchema()
	if err != nil {
		t.Fatalf("buildPlanSchema: %v", err)
	}
	if !schema.KnownTable("public.parcels") {
		t.Errorf("expected public.parcels to be a known table")
	}
	if !schema.KnownField("bldgarea") {
		t.Errorf("expected bldgarea to be a known field")
	}
	if schema.KnownField("nonexistent_column") {
		t.Errorf("did not expect an unregistered column to be known")
	}
}
