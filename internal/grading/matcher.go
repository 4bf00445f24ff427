package grading

import "math"

// Tier names the stage of the matcher that produced a decision.
type Tier string

const (
	TierNone        Tier = "none"
	TierSection     Tier = "section"
	TierAmbiguous   Tier = "ambiguous"
	TierGlobal      Tier = "global"
	TierNearestPage Tier = "nearest-page"
)

func (t Tier) String() string { return string(t) }

// MatchOutcome is the matcher's decision. Record is nil for TierNone and
// TierAmbiguous. Candidates counts the records that shared the problem
// number at the deciding tier.
type MatchOutcome struct {
	Record     *AnswerKeyRecord
	Tier       Tier
	Candidates int
}

// absentPageDistance ranks records without a printed page behind every
// record that has one.
const absentPageDistance = math.MaxInt

// Match selects at most one record for problemNumber:
//
//  1. exactly one match inside the section wins; several is ambiguous and stops;
//  2. otherwise exactly one match across all records wins;
//  3. otherwise the global match whose printed page is nearest refPage wins,
//     earliest in records on a tie.
func Match(problemNumber string, section Section, records []AnswerKeyRecord, refPage int) MatchOutcome {
	want := NormalizeProblemNumber(problemNumber)
	if want == "" {
		return MatchOutcome{Tier: TierNone}
	}

	inSection := filterByNumber(section.Records, want)
	switch n := len(inSection); {
	case n == 1:
		return MatchOutcome{Record: &inSection[0], Tier: TierSection, Candidates: 1}
	case n > 1:
		return MatchOutcome{Tier: TierAmbiguous, Candidates: n}
	}

	global := filterByNumber(records, want)
	switch len(global) {
	case 0:
		return MatchOutcome{Tier: TierNone}
	case 1:
		return MatchOutcome{Record: &global[0], Tier: TierGlobal, Candidates: 1}
	}

	best, bestDist := 0, pageDistance(global[0], refPage)
	for i := 1; i < len(global); i++ {
		if d := pageDistance(global[i], refPage); d < bestDist {
			best, bestDist = i, d
		}
	}
	return MatchOutcome{Record: &global[best], Tier: TierNearestPage, Candidates: len(global)}
}

func filterByNumber(records []AnswerKeyRecord, normalized string) []AnswerKeyRecord {
	var out []AnswerKeyRecord
	for _, rec := range records {
		if NormalizeProblemNumber(rec.ProblemNumber) == normalized {
			out = append(out, rec)
		}
	}
	return out
}

func pageDistance(rec AnswerKeyRecord, refPage int) int {
	if rec.ProblemPageNumber == nil {
		return absentPageDistance
	}
	d := *rec.ProblemPageNumber - refPage
	if d < 0 {
		d = -d
	}
	return d
}
