// Package source turns map files into a format-agnostic stream of points and ways.
package source

// Point is a raw map point as read from the input
type Point struct {
	ID   int64
	Lon  float64
	Lat  float64
	Tags map[string]string
}

// Way is a raw ordered list of external point ids
type Way struct {
	ID   int64
	Refs []int64
	Tags map[string]string
}

// Element holds exactly one of Point or Way
type Element struct {
	Point *Point
	Way   *Way
}

// Source is an iterator over map elements. Points must precede the ways
// that reference them, which both OSM PBF and XML guarantee.
type Source interface {
	// Scan advances to the next element, returning false at the end or on error
	Scan() bool
	// Element returns the current element
	Element() Element
	// Err returns the first error encountered, nil at a clean end of stream
	Err() error
	Close() error
}

// sliceSource serves elements from memory
type sliceSource struct {
	elems []Element
	pos   int
}

// FromElements returns a Source over the given elements
func FromElements(elems ...Element) Source {
	return &sliceSource{elems: elems, pos: -1}
}

func (s *sliceSource) Scan() bool {
	if s.pos+1 >= len(s.elems) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Element() Element { return s.elems[s.pos] }
func (s *sliceSource) Err() error       { return nil }
func (s *sliceSource) Close() error     { return nil }

// P is shorthand for a point element
func P(id int64, lon, lat float64, tags map[string]string) Element {
	return Element{Point: &Point{ID: id, Lon: lon, Lat: lat, Tags: tags}}
}

// W is shorthand for a way element
func W(id int64, refs ...int64) Element {
	return Element{Way: &Way{ID: id, Refs: refs}}
}
