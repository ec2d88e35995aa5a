// Package session owns the per-user state of the viewer: the current
// geometry table, the latest load message, the attribute selection, and
// memoized derived readouts. All derived values are pure functions of the
// table and the selection; the map markup is memoized in a small LRU keyed
// by table fingerprint and attribute.
package session

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"shapeview/internal/observability"
	"shapeview/internal/shapefile"
	"shapeview/internal/table"
	"shapeview/internal/viewmap"
)

const (
	promptNoTable   = "No valid shapefile uploaded yet. Please upload a .zip file or all necessary shapefile components (.shp, .shx, .dbf, etc.)."
	promptNoGeom    = "No geometry information available."
	initialLoadMsg  = "no files uploaded"
	defaultMemoSize = 8
)

type Session struct {
	ID string

	mu          sync.Mutex
	tbl         *table.FeatureTable
	fingerprint uint64
	loadMsg     string
	selected    string

	featureSummary string
	geomInfo       string

	renders  *lru.Cache[string, string]
	lastSeen time.Time
}

func newSession(id string, memoSize int, now time.Time) *Session {
	if memoSize <= 0 {
		memoSize = defaultMemoSize
	}
	c, _ := lru.New[string, string](memoSize)
	return &Session{
		ID:       id,
		loadMsg:  initialLoadMsg,
		renders:  c,
		lastSeen: now,
	}
}

// SetLoadResult replaces the table and every derived value atomically.
// An absent table in the result clears the previous one; the selection is
// kept so that a stale pick surfaces as a handled render error.
func (s *Session) SetLoadResult(res shapefile.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tbl = res.Table
	s.loadMsg = res.Message
	s.renders.Purge()

	if s.tbl == nil {
		s.fingerprint = 0
		s.featureSummary = promptNoTable
		s.geomInfo = promptNoGeom
		return
	}

	s.fingerprint = s.tbl.Fingerprint()
	s.featureSummary = fmt.Sprintf("Shapefile loaded: %d features", s.tbl.Len())
	s.geomInfo = geometryInfo(s.tbl)
}

func geometryInfo(t *table.FeatureTable) string {
	b, ok := t.Bounds()
	if !ok {
		return promptNoGeom
	}
	return fmt.Sprintf("Geometry bounds: [%g %g %g %g]\nCRS: %s\nGeometry types: %s",
		b.Min[0], b.Min[1], b.Max[0], b.Max[1], t.CRS, t.GeometryTypeSummary())
}

func (s *Session) Select(attr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = attr
}

func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// EffectiveAttribute is the selection if it is a numeric column of the
// current table, otherwise the first numeric column, otherwise "".
func (s *Session) EffectiveAttribute() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := s.tbl.NumericColumns()
	for _, c := range cols {
		if c == s.selected {
			return s.selected
		}
	}
	if len(cols) > 0 {
		return cols[0]
	}
	return ""
}

func (s *Session) HasTable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tbl != nil
}

func (s *Session) NumericColumns() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tbl.NumericColumns()
}

func (s *Session) FeatureSummary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tbl == nil {
		return promptNoTable
	}
	return s.featureSummary
}

func (s *Session) LoadMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMsg
}

func (s *Session) GeometryInfo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tbl == nil {
		return promptNoGeom
	}
	return s.geomInfo
}

// RenderMap returns the memoized map markup for attr, rendering on miss.
func (s *Session) RenderMap(attr string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tbl == nil {
		observability.ObserveRender("no_table")
		return "", fmt.Errorf("no shapefile loaded")
	}

	key := fmt.Sprintf("%016x:%s", s.fingerprint, attr)
	if html, ok := s.renders.Get(key); ok {
		observability.IncRenderCacheHit()
		observability.ObserveRender("ok")
		return html, nil
	}
	observability.IncRenderCacheMiss()

	html, err := viewmap.Render(s.tbl, attr)
	if err != nil {
		observability.ObserveRender("error")
		return "", err
	}
	s.renders.Add(key, html)
	observability.ObserveRender("ok")
	return html, nil
}
