// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package registry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"geoagent/platform/internal/model"
	"geoagent/platform/internal/sqlrunner"
)

type fakeTileServer struct {
	index   []IndexEntry
	details map[string]TableDetail
	err     map[string]error
}

func (f *fakeTileServer) FetchIndex(_ context.Context) ([]IndexEntry, error) {
	return f.index, nil
}

func (f *fakeTileServer) FetchDetail(_ context.Context, detailURL string) (TableDetail, error) {
	if err, ok := f.err[detailURL]; ok {
		return TableDetail{}, err
	}
	return f.details[detailURL], nil
}

func newTestRunner(t *testing.T) *sqlrunner.Runner {
	t.Helper()
	return sqlrunner.NewRunner("../sqlrunner/templates", 0)
}

func TestDiscover_PopulatesRegistryAndSkipsFailingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	ts := &fakeTileServer{
		index: []IndexEntry{
			{Name: "public.parcels", DetailURL: "/detail/parcels"},
			{Name: "public.broken", DetailURL: "/detail/broken"},
		},
		details: map[string]TableDetail{
			"/detail/parcels": {
				Columns: []string{"id", "geometry"},
				TileURL: "https://tiles.example.com/parcels/{z}/{x}/{y}.pbf",
				Bounds:  BoundingBox{West: -1, South: -1, East: 1, North: 1},
			},
		},
		err: map[string]error{"/detail/broken": context.DeadlineExceeded},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT ST_GeometryType\("geometry"\) AS geometry_type`).
		WillReturnRows(sqlmock.NewRows([]string{"geometry_type"}).AddRow("ST_Polygon"))
	mock.ExpectCommit()

	r := New(ts, newTestRunner(t), db, "geometry", nil)
	if err := r.Discover(context.Background()); err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}

	tables := r.Query()
	if len(tables) != 1 {
		t.Fatalf("expected the broken table to be skipped, got %+v", tables)
	}
	if tables[0].Geometry != model.GeometryPolygon {
		t.Errorf("expected geometry Polygon, got %v", tables[0].Geometry)
	}
	if tables[0].Name != "parcels" || tables[0].Schema != "public" {
		t.Errorf("unexpected descriptor: %+v", tables[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func seedRegistry() *Registry {
	r := New(nil, nil, nil, "geometry", nil)
	r.tables = map[string]model.TableDescriptor{
		"public.parcels": {Schema: "public", Name: "parcels", Columns: []string{"BldgArea", "LotArea", "geometry"}},
		"public.zoning":  {Schema: "public", Name: "zoning", Columns: []string{"ZoneType", "geometry"}},
		"analysis_1.out": {Schema: "analysis_1", Name: "out", Columns: []string{"geometry"}, Temporary: true},
	}
	return r
}

func TestQuery_BySchemaThenFields(t *testing.T) {
	r := seedRegistry()
	results := r.Query(BySchema("public"), ByFields([]string{"bldgarea"}))
	if len(results) != 1 || results[0].Name != "parcels" {
		t.Fatalf("expected only parcels to survive, got %+v", results)
	}
	if len(results[0].Columns) != 1 || results[0].Columns[0] != "BldgArea" {
		t.Errorf("expected canonical-case projected column, got %+v", results[0].Columns)
	}
}

func TestQuery_FieldsDropsTablesWithNoMatchingColumns(t *testing.T) {
	r := seedRegistry()
	results := r.Query(ByFields([]string{"nonexistent_field"}))
	if len(results) != 0 {
		t.Fatalf("expected zero tables to survive, got %+v", results)
	}
}

func TestVerifyFields_CaseInsensitiveCanonicalCase(t *testing.T) {
	r := seedRegistry()
	out := r.VerifyFields([]string{"bldgarea", "zonetype", "does_not_exist"})
	if len(out) != 2 {
		t.Fatalf("expected 2 verified fields, got %+v", out)
	}
	names := map[string]bool{out[0].Name: true, out[1].Name: true}
	if !names["BldgArea"] || !names["ZoneType"] {
		t.Errorf("expected canonical case names, got %+v", out)
	}
}

func TestCleanup_DropsOnlyTemporaryTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "analysis_1"."out" CASCADE;`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	r := seedRegistry()
	r.runner = newTestRunner(t)
	r.db = db

	if err := r.Cleanup(context.Background()); err != nil {
		t.Fatalf("Cleanup returned error: %v", err)
	}

	tables := r.Query()
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables to remain, got %+v", tables)
	}
	for _, tbl := range tables {
		if tbl.Temporary {
			t.Errorf("temporary table survived cleanup: %+v", tbl)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet sqlmock expectations: %v", err)
	}
}

func TestUnregister_RemovesFromRegistryAndDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP TABLE IF EXISTS "public"."zoning" CASCADE;`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	r := seedRegistry()
	r.runner = newTestRunner(t)
	r.db = db

	if err := r.Unregister(context.Background(), "zoning"); err != nil {
		t.Fatalf("Unregister returned error: %v", err)
	}
	if len(r.Query(ByTable("zoning"))) != 0 {
		t.Errorf("expected zoning to be gone from the registry")
	}
}

func TestUnregister_UnknownTableReturnsNotFound(t *testing.T) {
	r := seedRegistry()
	err := r.Unregister(context.Background(), "does_not_exist")
	if _, ok := err.(*ErrTableNotFound); !ok {
		t.Fatalf("expected *ErrTableNotFound, got %v", err)
	}
}

func TestDropSchema_RemovesEveryTableUnderSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DROP SCHEMA IF EXISTS "analysis_1" CASCADE;`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	r := seedRegistry()
	r.runner = newTestRunner(t)
	r.db = db

	if err := r.DropSchema(context.Background(), "analysis_1"); err != nil {
		t.Fatalf("DropSchema returned error: %v", err)
	}
	if len(r.Query(BySchema("analysis_1"))) != 0 {
		t.Errorf("expected analysis_1 tables to be gone")
	}
}
