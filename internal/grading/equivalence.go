package grading

// Equivalent reports whether a student answer and a correct answer are the
// same answer once formatting noise is removed. It is symmetric in its
// arguments, and an empty side never matches.
func Equivalent(a, b string) bool {
	na, nb := NormalizeAnswer(a), NormalizeAnswer(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if numericEqual(na, nb) {
		return true
	}
	return unitRescue(na, nb)
}
