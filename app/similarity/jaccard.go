package similarity

// Jaccard scores keyword sets by |A∩B| / |A∪B|. Two empty sets score 0.
type Jaccard struct{}

func NewJaccard() *Jaccard {
	return &Jaccard{}
}

func (j *Jaccard) Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, term := range a {
		setA[term] = struct{}{}
	}

	union := len(setA)
	intersection := 0
	seen := make(map[string]struct{}, len(b))
	for _, term := range b {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}

		if _, ok := setA[term]; ok {
			intersection++
		} else {
			union++
		}
	}

	return float64(intersection) / float64(union)
}
