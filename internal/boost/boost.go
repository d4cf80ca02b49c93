// Package boost implements histogram-based gradient boosted regression trees
// with squared error, Poisson and logistic objectives. Models remember the
// feature columns they were trained on; prediction inputs are reindexed
// against that list so callers can hand in frames with extra or missing
// columns.
package boost

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/venomio5/VPFM7/internal/frame"
)

type Objective string

const (
	ObjSquared  Objective = "reg:squarederror"
	ObjPoisson  Objective = "count:poisson"
	ObjLogistic Objective = "binary:logistic"
)

// margin values are clamped before exponentiation in the Poisson objective.
const maxExpArg = 15.0

var ErrNoRows = errors.New("boost: empty training set")

type Params struct {
	Rounds         int
	MaxDepth       int
	Eta            float64
	Lambda         float64
	Subsample      float64
	Colsample      float64
	MinChildWeight float64
	MaxBins        int
	Objective      Objective
	Seed           int64
}

func (p *Params) fillDefaults() {
	if p.Rounds <= 0 {
		p.Rounds = 100
	}
	if p.MaxDepth <= 0 {
		p.MaxDepth = 6
	}
	if p.Eta <= 0 {
		p.Eta = 0.3
	}
	if p.Lambda <= 0 {
		p.Lambda = 1.0
	}
	if p.Subsample <= 0 || p.Subsample > 1 {
		p.Subsample = 1.0
	}
	if p.Colsample <= 0 || p.Colsample > 1 {
		p.Colsample = 1.0
	}
	if p.MaxBins <= 1 || p.MaxBins > 256 {
		p.MaxBins = 256
	}
	if p.Objective == "" {
		p.Objective = ObjSquared
	}
}

type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"v"`
}

type tree struct {
	Nodes []node `json:"nodes"`
}

func (tr *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := &tr.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a trained booster. Columns records the exact training feature
// order; it is persisted with the model and used to reindex prediction input.
type Model struct {
	Columns   []string  `json:"columns"`
	Objective Objective `json:"objective"`
	Trees     []tree    `json:"trees"`
}

// Train fits a booster on the table's features. y is the target; baseMargin,
// when non-nil, is a per-row additive offset on the raw margin (Poisson
// exposure offsets use this). len(y) and len(baseMargin) must match the
// table's row count.
func Train(t *frame.Table, y, baseMargin []float64, p Params) (*Model, error) {
	p.fillDefaults()
	n := t.NumRows()
	if n == 0 {
		return nil, ErrNoRows
	}
	if len(y) != n {
		return nil, fmt.Errorf("boost: %d targets for %d rows", len(y), n)
	}
	if baseMargin != nil && len(baseMargin) != n {
		return nil, fmt.Errorf("boost: %d base margins for %d rows", len(baseMargin), n)
	}

	h := newHist(t, p.MaxBins)
	rng := rand.New(rand.NewSource(p.Seed))

	margin := make([]float64, n)
	grad := make([]float64, n)
	hess := make([]float64, n)

	m := &Model{
		Columns:   append([]string(nil), t.Columns()...),
		Objective: p.Objective,
	}

	for round := 0; round < p.Rounds; round++ {
		for i := 0; i < n; i++ {
			raw := margin[i]
			if baseMargin != nil {
				raw += baseMargin[i]
			}
			grad[i], hess[i] = gradHess(p.Objective, raw, y[i])
		}

		rows := sampleRows(n, p.Subsample, rng)
		cols := sampleCols(t.NumCols(), p.Colsample, rng)

		tr := growTree(h, grad, hess, rows, cols, p)
		scale(tr, p.Eta)
		m.Trees = append(m.Trees, *tr)

		for i := 0; i < n; i++ {
			margin[i] += tr.predict(t.RowAt(i))
		}
	}
	return m, nil
}

func gradHess(obj Objective, raw, y float64) (g, h float64) {
	switch obj {
	case ObjPoisson:
		pred := math.Exp(clamp(raw, -maxExpArg, maxExpArg))
		return pred - y, math.Max(pred, 1e-16)
	case ObjLogistic:
		p := sigmoid(raw)
		return p - y, math.Max(p*(1-p), 1e-16)
	default:
		return raw - y, 1.0
	}
}

// PredictMargin returns raw (untransformed) scores, excluding any base
// margin used at training time. Input columns are reindexed against the
// model's training columns; missing columns contribute zero.
func (m *Model) PredictMargin(t *frame.Table) []float64 {
	aligned := t.Reindex(m.Columns)
	out := make([]float64, aligned.NumRows())
	for i := range out {
		row := aligned.RowAt(i)
		var s float64
		for j := range m.Trees {
			s += m.Trees[j].predict(row)
		}
		out[i] = s
	}
	return out
}

// Predict applies the objective's link to the raw margin: exp for Poisson,
// sigmoid for logistic, identity for squared error.
func (m *Model) Predict(t *frame.Table) []float64 {
	out := m.PredictMargin(t)
	switch m.Objective {
	case ObjPoisson:
		for i := range out {
			out[i] = math.Exp(clamp(out[i], -maxExpArg, maxExpArg))
		}
	case ObjLogistic:
		for i := range out {
			out[i] = sigmoid(out[i])
		}
	}
	return out
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func sampleRows(n int, ratio float64, rng *rand.Rand) []int32 {
	if ratio >= 1 {
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(i)
		}
		return out
	}
	out := make([]int32, 0, int(float64(n)*ratio)+1)
	for i := 0; i < n; i++ {
		if rng.Float64() < ratio {
			out = append(out, int32(i))
		}
	}
	if len(out) == 0 {
		out = append(out, int32(rng.Intn(n)))
	}
	return out
}

func sampleCols(n int, ratio float64, rng *rand.Rand) []int {
	if ratio >= 1 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	k := int(math.Ceil(float64(n) * ratio))
	perm := rng.Perm(n)[:k]
	sort.Ints(perm)
	return perm
}

// hist holds the quantile-binned view of the training matrix. binned[j][i]
// is row i's bin for feature j; edges[j][b] is the inclusive upper bound of
// bin b, which doubles as the split threshold written into tree nodes.
type hist struct {
	binned [][]uint8
	edges  [][]float64
}

func newHist(t *frame.Table, maxBins int) *hist {
	n, c := t.NumRows(), t.NumCols()
	h := &hist{
		binned: make([][]uint8, c),
		edges:  make([][]float64, c),
	}
	vals := make([]float64, n)
	for j := 0; j < c; j++ {
		for i := 0; i < n; i++ {
			vals[i] = t.RowAt(i)[j]
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		edges := make([]float64, 0, maxBins)
		for b := 1; b <= maxBins; b++ {
			q := sorted[(b*(n-1))/maxBins]
			if len(edges) == 0 || q > edges[len(edges)-1] {
				edges = append(edges, q)
			}
		}
		h.edges[j] = edges

		col := make([]uint8, n)
		for i := 0; i < n; i++ {
			col[i] = uint8(sort.SearchFloat64s(edges, vals[i]))
		}
		h.binned[j] = col
	}
	return h
}

func growTree(h *hist, grad, hess []float64, rows []int32, cols []int, p Params) *tree {
	tr := &tree{}
	var build func(rows []int32, depth int) int
	build = func(rows []int32, depth int) int {
		var gSum, hSum float64
		for _, i := range rows {
			gSum += grad[i]
			hSum += hess[i]
		}
		id := len(tr.Nodes)
		tr.Nodes = append(tr.Nodes, node{})

		if depth >= p.MaxDepth || len(rows) < 2 {
			tr.Nodes[id] = leaf(gSum, hSum, p.Lambda)
			return id
		}

		best := findSplit(h, grad, hess, rows, cols, gSum, hSum, p)
		if best.feature < 0 {
			tr.Nodes[id] = leaf(gSum, hSum, p.Lambda)
			return id
		}

		left := make([]int32, 0, len(rows)/2)
		right := make([]int32, 0, len(rows)/2)
		binCol := h.binned[best.feature]
		for _, i := range rows {
			if int(binCol[i]) <= best.bin {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}

		l := build(left, depth+1)
		r := build(right, depth+1)
		tr.Nodes[id] = node{
			Feature:   best.feature,
			Threshold: h.edges[best.feature][best.bin],
			Left:      l,
			Right:     r,
		}
		return id
	}
	build(rows, 0)
	return tr
}

func leaf(g, h, lambda float64) node {
	return node{Leaf: true, Value: -g / (h + lambda)}
}

type split struct {
	feature int
	bin     int
	gain    float64
}

func findSplit(h *hist, grad, hess []float64, rows []int32, cols []int, gSum, hSum float64, p Params) split {
	best := split{feature: -1}
	parent := gSum * gSum / (hSum + p.Lambda)

	for _, j := range cols {
		nb := len(h.edges[j])
		if nb < 2 {
			continue
		}
		gBins := make([]float64, nb)
		hBins := make([]float64, nb)
		binCol := h.binned[j]
		for _, i := range rows {
			b := binCol[i]
			gBins[b] += grad[i]
			hBins[b] += hess[i]
		}

		var gl, hl float64
		for b := 0; b < nb-1; b++ {
			gl += gBins[b]
			hl += hBins[b]
			gr := gSum - gl
			hr := hSum - hl
			if hl < p.MinChildWeight || hr < p.MinChildWeight {
				continue
			}
			gain := gl*gl/(hl+p.Lambda) + gr*gr/(hr+p.Lambda) - parent
			if gain > best.gain {
				best = split{feature: j, bin: b, gain: gain}
			}
		}
	}
	return best
}

func scale(tr *tree, eta float64) {
	for i := range tr.Nodes {
		if tr.Nodes[i].Leaf {
			tr.Nodes[i].Value *= eta
		}
	}
}
