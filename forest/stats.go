package forest

import "github.com/viettran-edgeAI/MCU-sub008/tree"

// Statistics holds size figures of every tree in a forest and their
// aggregates.
type Statistics struct {
	Trees               []tree.Stats `json:"-"`
	TotalNodes          int          `json:"totalNodes"`
	TotalLeafNodes      int          `json:"totalLeafNodes"`
	AvgNodesPerTree     float64      `json:"avgNodesPerTree"`
	AvgLeafNodesPerTree float64      `json:"avgLeafNodesPerTree"`
	MinDepth            int          `json:"minDepth"`
	MaxDepth            int          `json:"maxDepth"`
	AvgDepth            float64      `json:"avgDepth"`
}

// Statistics returns the size figures of the trees in the forest.
func (f *Forest) Statistics() Statistics {
	var s Statistics
	if len(f.trees) == 0 {
		return s
	}
	depths := 0
	for i, t := range f.trees {
		ts := t.Stats()
		s.Trees = append(s.Trees, ts)
		s.TotalNodes += ts.Nodes
		s.TotalLeafNodes += ts.Leaves
		depths += ts.Depth
		if i == 0 || ts.Depth < s.MinDepth {
			s.MinDepth = ts.Depth
		}
		if ts.Depth > s.MaxDepth {
			s.MaxDepth = ts.Depth
		}
	}
	n := float64(len(f.trees))
	s.AvgNodesPerTree = float64(s.TotalNodes) / n
	s.AvgLeafNodesPerTree = float64(s.TotalLeafNodes) / n
	s.AvgDepth = float64(depths) / n
	return s
}
