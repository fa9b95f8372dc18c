package store

import (
	"strings"
	"testing"

	"github.com/mwort/grass/internal/model"
)

func TestValidateIdent(t *testing.T) {
	valid := []string{"tempmean_climate_raster_register", "a", "x1_y2"}
	for _, name := range valid {
		if err := ValidateIdent(name); err != nil {
			t.Errorf("ValidateIdent(%q): %v", name, err)
		}
	}
	invalid := []string{"", "1abc", "Drop", "a-b", "a b", "a;drop table maps", "a.b", strings.Repeat("x", 129)}
	for _, name := range invalid {
		if err := ValidateIdent(name); err == nil {
			t.Errorf("ValidateIdent(%q): want error", name)
		}
	}
}

func TestSanitizeIdent(t *testing.T) {
	cases := map[string]string{
		"tempmean@climate":  "tempmean_climate",
		"Temp Mean--2020":   "temp_mean_2020",
		"__already_clean__": "already_clean",
		"a..b":              "a_b",
	}
	for in, want := range cases {
		if got := sanitizeIdent(in); got != want {
			t.Errorf("sanitizeIdent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDatasetRegisterName(t *testing.T) {
	d := &model.Dataset{ID: "tempmean", Mapset: "climate", Kind: model.KindSTVDS}
	name, err := DatasetRegisterName(d)
	if err != nil {
		t.Fatalf("DatasetRegisterName: %v", err)
	}
	if name != "tempmean_climate_vector_register" {
		t.Fatalf("name = %q", name)
	}
}

func TestMapRegisterName(t *testing.T) {
	name, err := MapRegisterName(model.KindSTRDS)
	if err != nil {
		t.Fatalf("MapRegisterName: %v", err)
	}
	if !strings.HasPrefix(name, "map_") || !strings.HasSuffix(name, "_strds_register") {
		t.Fatalf("name = %q", name)
	}
	other, err := MapRegisterName(model.KindSTRDS)
	if err != nil {
		t.Fatalf("MapRegisterName: %v", err)
	}
	if name == other {
		t.Fatalf("generated names collide: %q", name)
	}
}

func TestOrderClause(t *testing.T) {
	got, err := OrderClause(model.TemporalAbsolute, "")
	if err != nil || got != "start_time ASC" {
		t.Fatalf("default order: %q err=%v", got, err)
	}
	got, err = OrderClause(model.TemporalRelative, model.OrderEndDesc)
	if err != nil || got != "end_offset DESC" {
		t.Fatalf("relative end desc: %q err=%v", got, err)
	}
	if _, err := OrderClause(model.TemporalAbsolute, "start; DROP TABLE maps"); err == nil {
		t.Fatalf("hostile order accepted")
	}
}

func TestRegisterTableDDL(t *testing.T) {
	ddl, err := RegisterTableDDL("tempmean_climate_raster_register", model.TemporalAbsolute, "TIMESTAMPTZ")
	if err != nil {
		t.Fatalf("absolute DDL: %v", err)
	}
	for _, want := range []string{"id TEXT PRIMARY KEY", "TIMESTAMPTZ", "timezone TEXT"} {
		if !strings.Contains(ddl, want) {
			t.Errorf("absolute DDL missing %q:\n%s", want, ddl)
		}
	}

	ddl, err = RegisterTableDDL("sim_register", model.TemporalRelative, "TIMESTAMPTZ")
	if err != nil {
		t.Fatalf("relative DDL: %v", err)
	}
	if !strings.Contains(ddl, "BIGINT") || strings.Contains(ddl, "timezone") {
		t.Errorf("relative DDL wrong columns:\n%s", ddl)
	}

	if _, err := RegisterTableDDL("bad name", model.TemporalAbsolute, "TIMESTAMP"); err == nil {
		t.Fatalf("hostile table name accepted")
	}
}
