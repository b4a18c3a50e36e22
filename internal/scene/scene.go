// Package scene holds the set of plotted surfaces, keyed by equation source text.
package scene

import (
	"fmt"
	"sort"

	"github.com/Faultbox/grapher/internal/equation"
	"github.com/Faultbox/grapher/internal/expression"
	"github.com/Faultbox/grapher/internal/mesh"
)

// Object is one plotted equation.
type Object struct {
	Source string
	Expr   *expression.Expression
	Mesh   *mesh.Mesh
}

// Animated reports whether the object depends on time.
func (o *Object) Animated() bool {
	return o.Expr != nil && o.Expr.Uses(expression.VarT)
}

// LineError is a failure for one line of a snapshot.
type LineError struct {
	Line   int // zero-based line number in the snapshot
	Source string
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line+1, e.Source, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Report summarizes one Apply.
type Report struct {
	Seq    uint64
	Built  int
	Errors []*LineError
}

// Scene maps equation source lines to built objects.
type Scene struct {
	objects    map[string]*Object
	generation uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{objects: make(map[string]*Object)}
}

// Apply replaces the scene with the equations in snap. Lines that fail to
// parse or build are reported and skipped; the rest are still applied. The
// previous contents stay in place until every line has been processed.
func (s *Scene) Apply(snap equation.Snapshot, p mesh.Params) Report {
	r := Report{Seq: snap.Seq}
	next := make(map[string]*Object, len(snap.Lines))

	for i, line := range snap.Lines {
		e, err := expression.Parse(line)
		if err != nil {
			r.Errors = append(r.Errors, &LineError{Line: i, Source: line, Err: err})
			continue
		}
		m, err := mesh.Build(e, p)
		if err != nil {
			r.Errors = append(r.Errors, &LineError{Line: i, Source: line, Err: err})
			continue
		}
		next[line] = &Object{Source: line, Expr: e, Mesh: m}
	}

	s.objects = next
	s.generation++
	r.Built = len(next)
	return r
}

// Animate rebuilds every time-dependent object at p.Time. Objects whose
// rebuild fails are removed and reported.
func (s *Scene) Animate(p mesh.Params) []*LineError {
	var errs []*LineError
	changed := false

	for key, obj := range s.objects {
		if !obj.Animated() {
			continue
		}
		m, err := mesh.Build(obj.Expr, p)
		if err != nil {
			errs = append(errs, &LineError{Line: -1, Source: key, Err: err})
			delete(s.objects, key)
			changed = true
			continue
		}
		s.objects[key] = &Object{Source: obj.Source, Expr: obj.Expr, Mesh: m}
		changed = true
	}

	if changed {
		s.generation++
	}
	return errs
}

// HasAnimated reports whether any object depends on time.
func (s *Scene) HasAnimated() bool {
	for _, obj := range s.objects {
		if obj.Animated() {
			return true
		}
	}
	return false
}

// Clear removes every object.
func (s *Scene) Clear() {
	if len(s.objects) == 0 {
		return
	}
	s.objects = make(map[string]*Object)
	s.generation++
}

// Len returns the number of objects.
func (s *Scene) Len() int {
	return len(s.objects)
}

// Get returns the object for a source line.
func (s *Scene) Get(source string) (*Object, bool) {
	obj, ok := s.objects[source]
	return obj, ok
}

// Keys returns the source lines in sorted order.
func (s *Scene) Keys() []string {
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Each calls fn for every object in key order.
func (s *Scene) Each(fn func(key string, obj *Object)) {
	for _, k := range s.Keys() {
		fn(k, s.objects[k])
	}
}

// Meshes returns the current meshes keyed by source line.
func (s *Scene) Meshes() map[string]*mesh.Mesh {
	out := make(map[string]*mesh.Mesh, len(s.objects))
	for k, obj := range s.objects {
		out[k] = obj.Mesh
	}
	return out
}

// Generation increases every time the set of objects or any mesh changes.
func (s *Scene) Generation() uint64 {
	return s.generation
}
