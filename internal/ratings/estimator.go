package ratings

// SegmentObs is one attacking observation extracted from a lineup-stable
// match segment: Off attacked for Minutes against Def and produced the given
// shot counts and xG totals. Each stored segment contributes two of these,
// one per direction.
type SegmentObs struct {
	Off     []string
	Def     []string
	Minutes float64
	Headers int
	Footers int
	HxG     float64
	FxG     float64
}

// PlayerCoeffs are the per-player ridge outputs for one league. Offensive
// coefficients raise the team's production while the player is on the pitch;
// defensive ones lower the opponent's.
type PlayerCoeffs struct {
	OffHeaders float64
	DefHeaders float64
	OffFooters float64
	DefFooters float64
	OffHxG     float64
	DefHxG     float64
	OffFxG     float64
	DefFxG     float64
}

// OffShots is the player's combined shot-generation coefficient.
func (c PlayerCoeffs) OffShots() float64 { return c.OffHeaders + c.OffFooters }

// DefShots is the player's combined shot-suppression coefficient.
func (c PlayerCoeffs) DefShots() float64 { return c.DefHeaders + c.DefFooters }

type Estimator struct {
	Alpha float64
}

func NewEstimator() *Estimator {
	return &Estimator{Alpha: 1.0}
}

// FitLeague solves the four ridge systems for one league (headers and
// footers per minute, header and footer xG per shot) over a shared player
// column index and assembles per-player coefficients.
func (e *Estimator) FitLeague(obs []SegmentObs) (map[string]PlayerCoeffs, error) {
	if len(obs) == 0 {
		return nil, ErrEmptyDesignMatrix
	}

	index := make(map[string]int)
	order := make([]string, 0)
	colOf := func(player string, def bool) int {
		base, ok := index[player]
		if !ok {
			base = len(order) * 2
			index[player] = base
			order = append(order, player)
		}
		if def {
			return base + 1
		}
		return base
	}

	var headerRate, footerRate, headerQ, footerQ []SparseRow
	for _, o := range obs {
		if o.Minutes <= 0 {
			continue
		}
		plus := make([]int, 0, len(o.Off))
		for _, p := range o.Off {
			plus = append(plus, colOf(p, false))
		}
		minus := make([]int, 0, len(o.Def))
		for _, p := range o.Def {
			minus = append(minus, colOf(p, true))
		}

		headerRate = append(headerRate, SparseRow{
			Plus: plus, Minus: minus,
			Y: float64(o.Headers) / o.Minutes, W: o.Minutes,
		})
		footerRate = append(footerRate, SparseRow{
			Plus: plus, Minus: minus,
			Y: float64(o.Footers) / o.Minutes, W: o.Minutes,
		})
		if o.Headers > 0 {
			headerQ = append(headerQ, SparseRow{
				Plus: plus, Minus: minus,
				Y: o.HxG / float64(o.Headers), W: float64(o.Headers),
			})
		}
		if o.Footers > 0 {
			footerQ = append(footerQ, SparseRow{
				Plus: plus, Minus: minus,
				Y: o.FxG / float64(o.Footers), W: float64(o.Footers),
			})
		}
	}

	dim := len(order) * 2
	opt := RidgeOptions{Alpha: e.Alpha}

	solve := func(rows []SparseRow) ([]float64, error) {
		if len(rows) == 0 {
			return make([]float64, dim), nil
		}
		return SolveRidge(rows, dim, opt)
	}

	hr, err := solve(headerRate)
	if err != nil {
		return nil, err
	}
	fr, err := solve(footerRate)
	if err != nil {
		return nil, err
	}
	hq, err := solve(headerQ)
	if err != nil {
		return nil, err
	}
	fq, err := solve(footerQ)
	if err != nil {
		return nil, err
	}

	out := make(map[string]PlayerCoeffs, len(order))
	for _, p := range order {
		base := index[p]
		out[p] = PlayerCoeffs{
			OffHeaders: hr[base],
			DefHeaders: hr[base+1],
			OffFooters: fr[base],
			DefFooters: fr[base+1],
			OffHxG:     hq[base],
			DefHxG:     hq[base+1],
			OffFxG:     fq[base],
			DefFxG:     fq[base+1],
		}
	}
	return out, nil
}
