package wer

// Scorer normalizes both texts and scores them. Word counts are taken from
// the normalized texts.
type Scorer struct{}

// Score returns the alignment result of the normalized texts.
func (Scorer) Score(reference, hypothesis string) Result {
	return Compute(Normalize(reference), Normalize(hypothesis))
}
