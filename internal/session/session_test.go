package session

import (
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"shapeview/internal/shapefile"
	"shapeview/internal/table"
)

func loadedResult(pops ...int64) shapefile.Result {
	tbl := &table.FeatureTable{
		Fields: []table.Field{
			{Name: "NAME", Type: 'C'},
			{Name: "POP", Type: 'N'},
		},
		CRS: "EPSG:4326",
	}
	for i, pop := range pops {
		x := float64(i * 2)
		tbl.Rows = append(tbl.Rows, table.Row{
			Geometry: orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 1}, {x, 0}}},
			Values:   []any{"f", pop},
		})
	}
	return shapefile.Result{Table: tbl, Message: "shapefile loaded successfully"}
}

func TestSession_InitialReadouts(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	if !strings.Contains(s.FeatureSummary(), "No valid shapefile uploaded") {
		t.Fatalf("got %q", s.FeatureSummary())
	}
	if s.LoadMessage() != "no files uploaded" {
		t.Fatalf("got %q", s.LoadMessage())
	}
	if s.GeometryInfo() != "No geometry information available." {
		t.Fatalf("got %q", s.GeometryInfo())
	}
	if cols := s.NumericColumns(); len(cols) != 0 {
		t.Fatalf("got %v want none", cols)
	}
}

func TestSession_LoadPopulatesReadouts(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	s.SetLoadResult(loadedResult(1, 2, 3))

	if got := s.FeatureSummary(); got != "Shapefile loaded: 3 features" {
		t.Fatalf("got %q", got)
	}
	gi := s.GeometryInfo()
	for _, want := range []string{"Geometry bounds:", "CRS: EPSG:4326", "Polygon: 3"} {
		if !strings.Contains(gi, want) {
			t.Fatalf("geometry info %q missing %q", gi, want)
		}
	}
	cols := s.NumericColumns()
	if len(cols) != 1 || cols[0] != "POP" {
		t.Fatalf("got %v", cols)
	}
}

func TestSession_ReuploadReplacesState(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	s.SetLoadResult(loadedResult(1, 2, 3))
	s.SetLoadResult(loadedResult(5))

	if got := s.FeatureSummary(); got != "Shapefile loaded: 1 features" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(s.GeometryInfo(), "Polygon: 1") {
		t.Fatalf("got %q", s.GeometryInfo())
	}
}

func TestSession_FailedLoadClearsTable(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	s.SetLoadResult(loadedResult(1))
	s.SetLoadResult(shapefile.Result{Message: "no .shp file found in the uploaded files"})

	if s.HasTable() {
		t.Fatal("table should be absent after failed load")
	}
	if s.LoadMessage() != "no .shp file found in the uploaded files" {
		t.Fatalf("got %q", s.LoadMessage())
	}
	if !strings.Contains(s.FeatureSummary(), "No valid shapefile uploaded") {
		t.Fatalf("got %q", s.FeatureSummary())
	}
}

func TestSession_EffectiveAttribute(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	if s.EffectiveAttribute() != "" {
		t.Fatal("no table, want empty attribute")
	}
	s.SetLoadResult(loadedResult(1, 2))
	if got := s.EffectiveAttribute(); got != "POP" {
		t.Fatalf("got %q want POP (first numeric)", got)
	}
	s.Select("POP")
	if got := s.EffectiveAttribute(); got != "POP" {
		t.Fatalf("got %q", got)
	}
	s.Select("GONE")
	if got := s.EffectiveAttribute(); got != "POP" {
		t.Fatalf("stale selection should fall back, got %q", got)
	}
}

func TestSession_RenderMap(t *testing.T) {
	s := newSession("s1", 4, time.Now())
	if _, err := s.RenderMap("POP"); err == nil {
		t.Fatal("render without table must fail")
	}

	s.SetLoadResult(loadedResult(1, 9))
	html1, err := s.RenderMap("POP")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(html1, "L.geoJSON") {
		t.Fatal("markup missing map payload")
	}

	// memoized: identical markup for the same table + attribute
	html2, err := s.RenderMap("POP")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if html1 != html2 {
		t.Fatal("memoized render differs")
	}

	// stale attribute is a handled error, table untouched
	if _, err := s.RenderMap("DENSITY"); err == nil {
		t.Fatal("stale attribute must error")
	}
	if !s.HasTable() {
		t.Fatal("failed render must not clear the table")
	}
}

func TestStore_LookupCreateExpiry(t *testing.T) {
	st := NewStore(time.Minute, 4)
	clock := time.Unix(1000, 0)
	st.now = func() time.Time { return clock }

	if st.Lookup("nope") != nil {
		t.Fatal("unknown id must miss")
	}

	s := st.Create()
	if st.Lookup(s.ID) != s {
		t.Fatal("created session must be found")
	}

	clock = clock.Add(2 * time.Minute)
	if st.Lookup(s.ID) != nil {
		t.Fatal("expired session must miss")
	}
	if st.Len() != 0 {
		t.Fatalf("expired session still stored, len=%d", st.Len())
	}
}

func TestStore_Sweep(t *testing.T) {
	st := NewStore(time.Minute, 4)
	clock := time.Unix(1000, 0)
	st.now = func() time.Time { return clock }

	st.Create()
	st.Create()
	fresh := st.Create()

	clock = clock.Add(90 * time.Second)
	fresh.lastSeen = clock // keep one alive

	if n := st.Sweep(); n != 2 {
		t.Fatalf("swept %d want 2", n)
	}
	if st.Len() != 1 {
		t.Fatalf("len=%d want 1", st.Len())
	}
}
