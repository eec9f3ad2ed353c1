package export

import "weave/internal/canvas"

// recorder captures what the engine would paint so the exporter can
// replay it onto an image context.
type recorder struct {
	nodes []canvas.Node
	paths []canvas.Path
}

func (r *recorder) AddNode(n canvas.Node) {
	r.nodes = append(r.nodes, n)
}

func (r *recorder) UpdateNode(n canvas.Node) {
	for i := range r.nodes {
		if r.nodes[i].ID == n.ID {
			r.nodes[i] = n
			return
		}
	}
}

func (r *recorder) AddEdge(_ canvas.Edge, p canvas.Path) {
	r.paths = append(r.paths, p)
}

func (r *recorder) ClearEdges() {
	r.paths = r.paths[:0]
}

func (r *recorder) Render(canvas.Frame) {}

func (r *recorder) Destroy() {
	r.nodes = r.nodes[:0]
	r.paths = r.paths[:0]
}
