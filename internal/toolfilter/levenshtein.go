package toolfilter

// maxSuggestDistance is the largest edit distance still worth suggesting.
const maxSuggestDistance = 3

// LevenshteinDistance returns the edit distance between a and b, counted in
// runes. Comparison is case-sensitive.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// row[j] holds the distance between the current prefix of ra and rb[:j].
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			above := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(above+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(rb)]
}

// Suggest returns the closest candidate to name, or "" when none is within
// maxSuggestDistance edits. Ties go to the earliest candidate.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", -1
	for _, c := range candidates {
		if d := LevenshteinDistance(name, c); bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist >= 0 && bestDist <= maxSuggestDistance {
		return best
	}
	return ""
}
