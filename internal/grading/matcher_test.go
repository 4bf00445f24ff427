package grading_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThousandsOfTies/home-teacher-core-sub001/internal/grading"
)

func page(n int) *int { return &n }

func rec(id, number, answer string, problemPage *int) grading.AnswerKeyRecord {
	return grading.AnswerKeyRecord{ID: id, ProblemNumber: number, CorrectAnswer: answer, ProblemPageNumber: problemPage}
}

func TestReferencePage(t *testing.T) {
	assert.Equal(t, 41, grading.ReferencePage(page(41), 3))
	assert.Equal(t, 3, grading.ReferencePage(nil, 3))
}

func TestResolveSection(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("a", "1(1)", "X", page(6)),
		rec("b", "1(2)", "X2", page(6)),
		rec("c", "1(1)", "Y", page(40)),
		rec("d", "1(1)", "Z", page(60)),
		rec("legacy", "1(1)", "L", nil),
	}

	sec := grading.ResolveSection(records, 41)
	require.NotNil(t, sec.Page)
	assert.Equal(t, 40, *sec.Page)
	require.Len(t, sec.Records, 1)
	assert.Equal(t, "c", sec.Records[0].ID)

	sec = grading.ResolveSection(records, 10)
	require.NotNil(t, sec.Page)
	assert.Equal(t, 6, *sec.Page)
	assert.Equal(t, []string{"a", "b"}, ids(sec.Records))

	sec = grading.ResolveSection(records, 5)
	assert.Nil(t, sec.Page)
	assert.Empty(t, sec.Records)

	assert.Nil(t, grading.ResolveSection(nil, 100).Page)
}

func TestMatchSectionScopingBeatsEarlierSection(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("p6", "1(1)", "X", page(6)),
		rec("p40", "1(1)", "Y", page(40)),
	}
	sec := grading.ResolveSection(records, 41)
	out := grading.Match("1（1）", sec, records, 41)

	require.NotNil(t, out.Record)
	assert.Equal(t, grading.TierSection, out.Tier)
	assert.Equal(t, "Y", out.Record.CorrectAnswer)
}

func TestMatchAmbiguousSectionDefers(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("a", "2", "10", page(40)),
		rec("b", "2", "12", page(40)),
		rec("c", "2", "99", page(6)),
	}
	sec := grading.ResolveSection(records, 41)
	out := grading.Match("2", sec, records, 41)

	assert.Nil(t, out.Record)
	assert.Equal(t, grading.TierAmbiguous, out.Tier)
	assert.Equal(t, 2, out.Candidates)
}

func TestMatchGlobalUnique(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("four", "4", "16", page(3)),
		rec("decoy", "1", "1", page(45)),
	}
	sec := grading.ResolveSection(records, 50)
	out := grading.Match("4", sec, records, 50)

	require.NotNil(t, out.Record)
	assert.Equal(t, grading.TierGlobal, out.Tier)
	assert.Equal(t, "four", out.Record.ID)
}

func TestMatchEmptySectionFallsThroughToGlobal(t *testing.T) {
	records := []grading.AnswerKeyRecord{rec("late", "3", "9", page(80))}
	sec := grading.ResolveSection(records, 10)
	require.Nil(t, sec.Page)

	out := grading.Match("3", sec, records, 10)
	require.NotNil(t, out.Record)
	assert.Equal(t, grading.TierGlobal, out.Tier)
}

func TestMatchNearestPage(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("p5", "2", "a", page(5)),
		rec("p12", "2", "b", page(12)),
		rec("p20", "2", "c", page(20)),
		rec("decoy", "7", "z", page(13)),
	}
	sec := grading.ResolveSection(records, 14)
	out := grading.Match("2", sec, records, 14)

	require.NotNil(t, out.Record)
	assert.Equal(t, grading.TierNearestPage, out.Tier)
	assert.Equal(t, 3, out.Candidates)
	assert.Equal(t, "p12", out.Record.ID)
}

func TestMatchNearestPageTieKeepsInputOrder(t *testing.T) {
	below := rec("p10", "3", "a", page(10))
	above := rec("p14", "3", "b", page(14))
	decoy := rec("decoy", "9", "z", page(11))

	for _, tt := range []struct {
		records []grading.AnswerKeyRecord
		want    string
	}{
		{[]grading.AnswerKeyRecord{below, above, decoy}, "p10"},
		{[]grading.AnswerKeyRecord{above, below, decoy}, "p14"},
	} {
		sec := grading.ResolveSection(tt.records, 12)
		out := grading.Match("3", sec, tt.records, 12)
		require.NotNil(t, out.Record)
		assert.Equal(t, tt.want, out.Record.ID)
	}
}

func TestMatchNearestPageNeverPrefersAbsentPage(t *testing.T) {
	records := []grading.AnswerKeyRecord{
		rec("legacy", "5", "a", nil),
		rec("p30", "5", "b", page(30)),
	}
	sec := grading.ResolveSection(records, 2)
	out := grading.Match("5", sec, records, 2)

	require.NotNil(t, out.Record)
	assert.Equal(t, "p30", out.Record.ID)
}

func TestMatchNone(t *testing.T) {
	records := []grading.AnswerKeyRecord{rec("a", "1", "1", page(1))}
	sec := grading.ResolveSection(records, 1)

	want := grading.MatchOutcome{Tier: grading.TierNone}
	if diff := cmp.Diff(want, grading.Match("99", sec, records, 1)); diff != "" {
		t.Fatalf("Match mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, grading.Match("  ", sec, records, 1)); diff != "" {
		t.Fatalf("blank number mismatch (-want +got):\n%s", diff)
	}
}

func ids(records []grading.AnswerKeyRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
