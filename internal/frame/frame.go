// Package frame provides small column-ordered feature tables for the tree
// models. Column order is part of a trained model's identity: prediction
// inputs are reindexed against the training columns, with unseen columns
// dropped and missing ones zero-filled.
package frame

import (
	"fmt"
)

// Row is an ordered set of feature values. Insertion order is preserved so
// table column order stays deterministic across runs.
type Row struct {
	keys []string
	vals []float64
	idx  map[string]int
}

func NewRow() *Row {
	return &Row{idx: make(map[string]int)}
}

func (r *Row) Set(col string, v float64) *Row {
	if i, ok := r.idx[col]; ok {
		r.vals[i] = v
		return r
	}
	r.idx[col] = len(r.keys)
	r.keys = append(r.keys, col)
	r.vals = append(r.vals, v)
	return r
}

// SetOneHot sets the dummy column "<prefix>_<value>" to 1. An empty value is
// encoded as the "<prefix>_nan" column, matching how unknown categories are
// kept as their own level.
func (r *Row) SetOneHot(prefix, value string) *Row {
	if value == "" {
		value = "nan"
	}
	return r.Set(prefix+"_"+value, 1)
}

func (r *Row) SetBool(col string, v bool) *Row {
	if v {
		return r.Set(col, 1)
	}
	return r.Set(col, 0)
}

// Table is a dense row-major feature matrix with named, ordered columns.
type Table struct {
	cols []string
	idx  map[string]int
	data [][]float64
}

// Builder accumulates rows and resolves the union of their columns. Columns
// appear in first-seen order so repeated builds over the same data produce
// identical layouts.
type Builder struct {
	cols []string
	idx  map[string]int
	rows []*Row
}

func NewBuilder() *Builder {
	return &Builder{idx: make(map[string]int)}
}

func (b *Builder) Add(r *Row) {
	for _, k := range r.keys {
		if _, ok := b.idx[k]; !ok {
			b.idx[k] = len(b.cols)
			b.cols = append(b.cols, k)
		}
	}
	b.rows = append(b.rows, r)
}

func (b *Builder) Len() int { return len(b.rows) }

func (b *Builder) Build() *Table {
	t := &Table{
		cols: append([]string(nil), b.cols...),
		idx:  make(map[string]int, len(b.cols)),
		data: make([][]float64, len(b.rows)),
	}
	for i, c := range t.cols {
		t.idx[c] = i
	}
	for i, r := range b.rows {
		row := make([]float64, len(t.cols))
		for j, k := range r.keys {
			row[t.idx[k]] = r.vals[j]
		}
		t.data[i] = row
	}
	return t
}

func (t *Table) Columns() []string { return t.cols }
func (t *Table) NumRows() int      { return len(t.data) }
func (t *Table) NumCols() int      { return len(t.cols) }

func (t *Table) RowAt(i int) []float64 { return t.data[i] }

func (t *Table) Column(name string) ([]float64, error) {
	j, ok := t.idx[name]
	if !ok {
		return nil, fmt.Errorf("frame: no column %q", name)
	}
	out := make([]float64, len(t.data))
	for i := range t.data {
		out[i] = t.data[i][j]
	}
	return out, nil
}

// Reindex projects the table onto cols: values for shared columns are kept,
// columns the table lacks are zero-filled, and columns cols omits are dropped.
func (t *Table) Reindex(cols []string) *Table {
	out := &Table{
		cols: append([]string(nil), cols...),
		idx:  make(map[string]int, len(cols)),
		data: make([][]float64, len(t.data)),
	}
	for i, c := range out.cols {
		out.idx[c] = i
	}
	src := make([]int, len(cols))
	for j, c := range cols {
		if k, ok := t.idx[c]; ok {
			src[j] = k
		} else {
			src[j] = -1
		}
	}
	for i, row := range t.data {
		nr := make([]float64, len(cols))
		for j, k := range src {
			if k >= 0 {
				nr[j] = row[k]
			}
		}
		out.data[i] = nr
	}
	return out
}
