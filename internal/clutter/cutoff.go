package clutter

import (
	"gonum.org/v1/gonum/floats"
)

// omegaEpsilon bounds the class probability away from 0 and 1 in the cutoff
// search; candidates inside the bound have an undefined between-class
// variance and are skipped.
const omegaEpsilon = 1e-12

// ComputeCutoff returns K*, the count cutoff maximising the between-class
// variance of the count histogram p, where p[i] is the fraction of gates that
// met the threshold in exactly i of N = len(p)-1 volumes. Gates with a count
// above K* are clutter.
//
//	mu(k)    = sum_{i<=k} (i+1) p[i]
//	omega(k) = sum_{i<=k} p[i]
//	phi2(k)  = (mu(N) omega(k) - mu(k))^2 / (omega(k) (1 - omega(k)))
//
// for k in [0, N). The first maximum wins. When no candidate is defined all
// gates share a single count c and K* is min(c, N-1). The result is always
// in [0, N-1].
func ComputeCutoff(p []float64) int {
	n := len(p)
	if n < 2 {
		return 0
	}

	weighted := make([]float64, n)
	for i, v := range p {
		weighted[i] = float64(i+1) * v
	}
	omega := floats.CumSum(make([]float64, n), p)
	mu := floats.CumSum(make([]float64, n), weighted)
	muT := mu[n-1]

	best := -1
	bestPhi := 0.0
	for k := 0; k < n-1; k++ {
		w := omega[k]
		if w <= omegaEpsilon || w >= 1-omegaEpsilon {
			continue
		}
		d := muT*w - mu[k]
		phi := d * d / (w * (1 - w))
		if best < 0 || phi > bestPhi {
			best, bestPhi = k, phi
		}
	}
	if best >= 0 {
		return best
	}

	return min(floats.MaxIdx(p), n-2)
}

// Probabilities returns the count histogram over all gates of infos for
// nvol volumes: p[i] is the fraction of gates whose count is exactly i, with
// counts above nvol in the last bin.
func Probabilities(infos []*ClutterInfo, nvol int) []float64 {
	if nvol < 0 {
		nvol = 0
	}
	p := make([]float64, nvol+1)
	total := 0
	for _, info := range infos {
		total += info.NGates
		below := 0.0
		for i := 0; i < nvol; i++ {
			n := info.NumWithMatchingCount(i)
			p[i] += n
			below += n
		}
		// rays sharing an ambiguous bucket can push counts past nvol
		p[nvol] += float64(info.NGates) - below
	}
	if total == 0 {
		return p
	}
	floats.Scale(1/float64(total), p)
	return p
}
