package estimators

import (
	"math"
	"sort"
)

// treeParams controls how a single regression tree grows. The split gain is
// the reduction of the squared error, the impurity criterion of CART.
type treeParams struct {
	MaxDepth        int // 0 means unlimited
	MinSamplesSplit int
	MinSamplesLeaf  int
}

type treeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

func (n treeNode) isLeaf() bool { return n.Left < 0 }

type regressionTree struct {
	nodes []treeNode
	gain  []float64 // accumulated split gain per feature
}

type treeBuilder struct {
	params  treeParams
	rows    [][]float64
	target  []float64
	tree    *regressionTree
	scratch []int
}

// growTree fits a tree on target using the rows selected by idx. idx is
// reordered in place.
func growTree(rows [][]float64, target []float64, idx []int, nFeatures int, p treeParams) *regressionTree {
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	b := &treeBuilder{
		params:  p,
		rows:    rows,
		target:  target,
		tree:    &regressionTree{gain: make([]float64, nFeatures)},
		scratch: make([]int, len(idx)),
	}
	b.build(idx, 0)
	return b.tree
}

func (b *treeBuilder) leafValue(sum float64, n int) float64 {
	return sum / float64(n)
}

func (b *treeBuilder) score(sum float64, n int) float64 {
	return sum * sum / float64(n)
}

// build appends the subtree for idx and returns its node index.
func (b *treeBuilder) build(idx []int, depth int) int {
	var sum float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, i := range idx {
		t := b.target[i]
		sum += t
		lo = math.Min(lo, t)
		hi = math.Max(hi, t)
	}

	nodeID := len(b.tree.nodes)
	b.tree.nodes = append(b.tree.nodes, treeNode{Left: -1, Right: -1, Value: b.leafValue(sum, len(idx))})

	pure := hi-lo <= 1e-12*math.Max(math.Abs(hi), 1)
	if pure || len(idx) < b.params.MinSamplesSplit ||
		(b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		return nodeID
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sum)
	if !ok {
		return nodeID
	}

	// Partition idx: rows going left first.
	left := b.scratch[:0]
	var right []int
	for _, i := range idx {
		if b.rows[i][feature] <= threshold {
			left = append(left, i)
		}
	}
	nLeft := len(left)
	for _, i := range idx {
		if b.rows[i][feature] > threshold {
			right = append(right, i)
		}
	}
	copy(idx, left)
	copy(idx[nLeft:], right)

	b.tree.gain[feature] += gain
	l := b.build(idx[:nLeft], depth+1)
	r := b.build(idx[nLeft:], depth+1)

	n := &b.tree.nodes[nodeID]
	n.Feature = feature
	n.Threshold = threshold
	n.Left = l
	n.Right = r
	return nodeID
}

// bestSplit scans every feature for the threshold with the largest gain.
func (b *treeBuilder) bestSplit(idx []int, sum float64) (feature int, threshold, gain float64, ok bool) {
	n := len(idx)
	parent := b.score(sum, n)
	minLeaf := b.params.MinSamplesLeaf
	sorted := make([]int, n)

	for f := range b.tree.gain {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool {
			return b.rows[sorted[a]][f] < b.rows[sorted[c]][f]
		})

		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += b.target[sorted[k]]
			nLeft := k + 1
			if nLeft < minLeaf || n-nLeft < minLeaf {
				continue
			}
			cur, next := b.rows[sorted[k]][f], b.rows[sorted[k+1]][f]
			if cur == next {
				continue
			}
			g := b.score(leftSum, nLeft) + b.score(sum-leftSum, n-nLeft) - parent
			if g > gain {
				th := cur + (next-cur)/2
				if th >= next {
					th = cur
				}
				feature, threshold, gain, ok = f, th, g, true
			}
		}
	}
	return feature, threshold, gain, ok
}

func (t *regressionTree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.isLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
