package moo

// dominates reports whether a dominates b under minimization: a is at
// least as good on every objective and strictly better on one.
func dominates(a, b []float64) bool {
	strict := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strict = true
		}
	}
	return strict
}

// paretoFront returns the non-dominated subset of the archive in
// archive order. Observations with undefined objective values are
// excluded from dominance entirely.
func paretoFront(archive []Observation) []Observation {
	var front []Observation
	for i, obs := range archive {
		if !obs.Valid() {
			continue
		}
		dominated := false
		for j, other := range archive {
			if i == j || !other.Valid() {
				continue
			}
			if dominates(other.Objectives, obs.Objectives) {
				dominated = true
				break
			}
		}
		if !dominated {
			front = append(front, obs)
		}
	}
	return front
}
