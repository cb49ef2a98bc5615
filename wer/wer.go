// Package wer computes word error rates between a reference transcript and
// an ASR hypothesis.
//
// Scoring is a word-level Levenshtein alignment over whitespace tokens:
//
//	WER = (substitutions + deletions + insertions) / reference words
//
// Inputs to Compute are expected to be normalized already; Scorer normalizes
// both sides with Normalize first.
package wer

// Result is the alignment outcome for one pair.
type Result struct {
	WER             float64 `json:"word_error_rate"`
	Substitutions   int     `json:"substitutions"`
	Deletions       int     `json:"deletions"`
	Insertions      int     `json:"insertions"`
	Hits            int     `json:"hits"`
	ReferenceWords  int     `json:"reference_word_count"`
	HypothesisWords int     `json:"asr_word_count"`
}

// Errors returns S + D + I.
func (r Result) Errors() int {
	return r.Substitutions + r.Deletions + r.Insertions
}

// Compute aligns the whitespace tokens of reference and hypothesis.
// An empty reference scores 0 against an empty hypothesis and 1 otherwise.
func Compute(reference, hypothesis string) Result {
	ref := Words(reference)
	hyp := Words(hypothesis)
	res := Result{ReferenceWords: len(ref), HypothesisWords: len(hyp)}

	if len(ref) == 0 {
		res.Insertions = len(hyp)
		if len(hyp) > 0 {
			res.WER = 1
		}
		return res
	}

	res.Substitutions, res.Deletions, res.Insertions = align(ref, hyp)
	res.Hits = len(ref) - res.Substitutions - res.Deletions
	res.WER = float64(res.Errors()) / float64(len(ref))
	return res
}

// WER returns Compute(reference, hypothesis).WER.
func WER(reference, hypothesis string) float64 {
	return Compute(reference, hypothesis).WER
}

type cell struct {
	cost, sub, del, ins int
}

// align runs the edit-distance table and backtracks the operation counts of
// one minimal alignment. Ties prefer substitution, then deletion.
func align(ref, hyp []string) (sub, del, ins int) {
	prev := make([]cell, len(hyp)+1)
	cur := make([]cell, len(hyp)+1)
	for j := range prev {
		prev[j] = cell{cost: j, ins: j}
	}

	for i := 1; i <= len(ref); i++ {
		cur[0] = cell{cost: i, del: i}
		for j := 1; j <= len(hyp); j++ {
			if ref[i-1] == hyp[j-1] {
				cur[j] = prev[j-1]
				continue
			}
			best := prev[j-1]
			best.cost++
			best.sub++

			if d := prev[j]; d.cost+1 < best.cost {
				best = d
				best.cost++
				best.del++
			}
			if in := cur[j-1]; in.cost+1 < best.cost {
				best = in
				best.cost++
				best.ins++
			}
			cur[j] = best
		}
		prev, cur = cur, prev
	}
	last := prev[len(hyp)]
	return last.sub, last.del, last.ins
}
