package geo

import (
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// ErrEmptyPolygon indicates a boundary without any usable ring.
var ErrEmptyPolygon = errors.New("empty polygon")

// Polygon is a city boundary: one or more outer rings with optional holes,
// stored as an XY (lon, lat) go-geom geometry.
type Polygon struct {
	polys []*geom.Polygon
}

// NewPolygon builds a single-part polygon from an outer ring and optional
// holes. Rings may be open or closed.
func NewPolygon(outer []Coordinate, holes ...[]Coordinate) (*Polygon, error) {
	p := geom.NewPolygon(geom.XY)
	for _, ring := range append([][]Coordinate{outer}, holes...) {
		if len(ring) < 3 {
			return nil, fmt.Errorf("%w: ring needs at least 3 points, got %d", ErrEmptyPolygon, len(ring))
		}
		if err := p.Push(geom.NewLinearRingFlat(geom.XY, closedFlatCoords(ring))); err != nil {
			return nil, fmt.Errorf("building ring: %w", err)
		}
	}
	return &Polygon{polys: []*geom.Polygon{p}}, nil
}

// FromGeom adapts a decoded Polygon or MultiPolygon geometry.
func FromGeom(g geom.T) (*Polygon, error) {
	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		if t.NumLinearRings() > 0 {
			polys = append(polys, t)
		}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if p := t.Polygon(i); p.NumLinearRings() > 0 {
				polys = append(polys, p)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported boundary geometry %T", g)
	}

	if len(polys) == 0 {
		return nil, ErrEmptyPolygon
	}
	return &Polygon{polys: polys}, nil
}

// Geom returns the boundary as a go-geom geometry, a MultiPolygon when it
// has more than one part.
func (p *Polygon) Geom() geom.T {
	if len(p.polys) == 1 {
		return p.polys[0]
	}
	mp := geom.NewMultiPolygon(geom.XY)
	for _, poly := range p.polys {
		// parts come from valid polygons of the same layout
		_ = mp.Push(poly)
	}
	return mp
}

// IsEmpty reports whether the polygon has no parts.
func (p *Polygon) IsEmpty() bool {
	return p == nil || len(p.polys) == 0
}

// Bounds returns the bounding box of all parts.
func (p *Polygon) Bounds() BoundingBox {
	if p.IsEmpty() {
		return BoundingBox{}
	}
	b := geom.NewBounds(geom.XY)
	for _, poly := range p.polys {
		b.Extend(poly)
	}
	return BoundingBox{
		MinLon: b.Min(0),
		MinLat: b.Min(1),
		MaxLon: b.Max(0),
		MaxLat: b.Max(1),
	}
}

// Contains reports whether c is inside any part and outside its holes.
func (p *Polygon) Contains(c Coordinate) bool {
	if p.IsEmpty() {
		return false
	}
	pt := geom.Coord{c.Lon, c.Lat}
	for _, poly := range p.polys {
		if !xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for i := 1; i < poly.NumLinearRings(); i++ {
			if xy.IsPointInRing(geom.XY, pt, poly.LinearRing(i).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

func closedFlatCoords(ring []Coordinate) []float64 {
	flat := make([]float64, 0, (len(ring)+1)*2)
	for _, c := range ring {
		flat = append(flat, c.Lon, c.Lat)
	}
	first, last := ring[0], ring[len(ring)-1]
	if first != last {
		flat = append(flat, first.Lon, first.Lat)
	}
	return flat
}
