// Package scenario replays graph edits written down in YAML. The commands and
// the tests use it to build graphs by name instead of by vertex handle.
//
//	vertices:
//	  - name: a
//	    kind: data
//	  - name: b
//	edges:
//	  - [a, b]
//	remove:
//	  - [a, b]
//	dirty: [a]
//
// Vertices default to kind compute. Edges are added in order, then the edges
// under remove are removed, then the dirty vertices are marked.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/delaneyj/ripple/graph"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("scenario: invalid")

type VertexSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind,omitempty"`
}

type Scenario struct {
	Vertices []VertexSpec `yaml:"vertices"`
	Edges    [][2]string  `yaml:"edges,omitempty"`
	Remove   [][2]string  `yaml:"remove,omitempty"`
	Dirty    []string     `yaml:"dirty,omitempty"`
}

// Decode reads one scenario. Unknown fields are an error.
func Decode(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &Scenario{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("scenario: decode: %w", err)
	}
	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	return Decode(bytes.NewReader(data))
}

func Load(path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

func (s *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Replayed is a graph built from a scenario together with the name of every
// vertex.
type Replayed struct {
	Graph *graph.Graph
	IDs   map[string]graph.Vertex
	Names map[graph.Vertex]string
}

// Replay builds a new graph from s. opts are passed to graph.New; the labeler
// is always set to the scenario names.
func (s *Scenario) Replay(opts ...graph.Option) (*Replayed, error) {
	r := &Replayed{
		IDs:   map[string]graph.Vertex{},
		Names: map[graph.Vertex]string{},
	}
	r.Graph = graph.New(opts...)
	r.Graph.SetLabeler(r.Label)

	for _, vs := range s.Vertices {
		if vs.Name == "" {
			return nil, fmt.Errorf("%w: vertex without a name", ErrInvalid)
		}
		if _, dup := r.IDs[vs.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate vertex %q", ErrInvalid, vs.Name)
		}
		kind, err := parseKind(vs.Kind)
		if err != nil {
			return nil, err
		}
		v := r.Graph.AddVertex(kind)
		r.IDs[vs.Name] = v
		r.Names[v] = vs.Name
	}

	for _, e := range s.Edges {
		from, to, err := r.edge(e)
		if err != nil {
			return nil, err
		}
		r.Graph.AddEdge(from, to)
	}
	for _, e := range s.Remove {
		from, to, err := r.edge(e)
		if err != nil {
			return nil, err
		}
		if !r.Graph.HasEdge(from, to) {
			return nil, fmt.Errorf("%w: remove %s -> %s: no such edge", ErrInvalid, e[0], e[1])
		}
		r.Graph.RemoveEdge(from, to)
	}
	for _, name := range s.Dirty {
		v, err := r.vertex(name)
		if err != nil {
			return nil, err
		}
		r.Graph.MarkVertexDirty(v)
	}
	return r, nil
}

func parseKind(kind string) (graph.Kind, error) {
	switch kind {
	case "", "compute":
		return graph.KindCompute, nil
	case "data":
		return graph.KindData, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalid, kind)
	}
}

func (r *Replayed) vertex(name string) (graph.Vertex, error) {
	v, ok := r.IDs[name]
	if !ok {
		return graph.NoVertex, fmt.Errorf("%w: unknown vertex %q", ErrInvalid, name)
	}
	return v, nil
}

func (r *Replayed) edge(e [2]string) (from, to graph.Vertex, err error) {
	if from, err = r.vertex(e[0]); err != nil {
		return
	}
	to, err = r.vertex(e[1])
	return
}

func (r *Replayed) Label(v graph.Vertex) string {
	if name, ok := r.Names[v]; ok {
		return name
	}
	return fmt.Sprintf("v%d", v)
}

// Step is one vertex handed out by Process.
type Step struct {
	Name   string
	Action graph.ProcessAction
}

func (s Step) String() string {
	return s.Name + ":" + s.Action.String()
}

// Process runs one pass over the dirty vertices. Every vertex propagates
// unless it is named in stop. Cycle members are marked informed when they get
// their CYCLE action, as an owner would.
func (r *Replayed) Process(stop ...string) []Step {
	halt := map[graph.Vertex]bool{}
	for _, name := range stop {
		if v, ok := r.IDs[name]; ok {
			halt[v] = true
		}
	}
	var steps []Step
	r.Graph.Process(func(v graph.Vertex, action graph.ProcessAction) bool {
		steps = append(steps, Step{Name: r.Label(v), Action: action})
		if action == graph.ActionCycle {
			r.Graph.MarkVertexCycleInformed(v)
		}
		return !halt[v]
	})
	return steps
}
