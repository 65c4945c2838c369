package ir

import "sort"

// Marker flags.
const (
	FlagDefinition = '*'
	FlagReference  = ' '
)

// Marker is one cross-reference location.
type Marker struct {
	At   Location
	Flag rune
}

// XRef tracks definition and reference locations of a named entity.
// By convention the first marker is where the entity was defined.
type XRef struct {
	markers []Marker
}

// NewXRef creates an empty tracker.
func NewXRef() *XRef {
	return &XRef{}
}

// Define appends a definition marker.
func (x *XRef) Define(at Location) {
	x.markers = append(x.markers, Marker{At: at, Flag: FlagDefinition})
}

// Reference appends a reference marker.
func (x *XRef) Reference(at Location) {
	x.markers = append(x.markers, Marker{At: at, Flag: FlagReference})
}

// Undefine removes the first marker. It is a no-op on an empty tracker.
func (x *XRef) Undefine() {
	if len(x.markers) == 0 {
		return
	}
	x.markers = x.markers[1:]
}

// Markers returns the markers in the order they were recorded.
func (x *XRef) Markers() []Marker {
	out := make([]Marker, len(x.markers))
	copy(out, x.markers)
	return out
}

// Len returns the number of markers.
func (x *XRef) Len() int {
	return len(x.markers)
}

// Sorted returns the markers ordered by source then line, for listings.
func (x *XRef) Sorted() []Marker {
	out := x.Markers()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].At.Source != out[j].At.Source {
			return out[i].At.Source < out[j].At.Source
		}
		return out[i].At.Line < out[j].At.Line
	})
	return out
}
