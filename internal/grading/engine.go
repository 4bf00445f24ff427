package grading

import (
	"fmt"

	"go.uber.org/zap"
)

// Source tags where a verdict came from.
type Source string

const (
	SourceDB             Source = "db"
	SourceAI             Source = "ai"
	SourceServerOverride Source = "server-override"
)

// DetectedProblem is what the vision model reported for one problem on a
// photographed page. The AI* fields are the model's own opinion and only
// matter when no answer key record resolves.
type DetectedProblem struct {
	ProblemNumber     string `json:"problemNumber"`
	PrintedPageNumber *int   `json:"printedPageNumber"`
	StudentAnswer     string `json:"studentAnswer"`
	AIIsCorrect       bool   `json:"aiIsCorrect"`
	AICorrectAnswer   string `json:"aiCorrectAnswer"`
	AIFeedback        string `json:"aiFeedback"`
	AIExplanation     string `json:"aiExplanation"`
}

// MatchResult is the final verdict for one detected problem.
type MatchResult struct {
	MatchedAnswer *AnswerKeyRecord `json:"matchedAnswer"`
	IsCorrect     bool             `json:"isCorrect"`
	CorrectAnswer string           `json:"correctAnswer"`
	Feedback      string           `json:"feedback"`
	Explanation   string           `json:"explanation"`
	GradingSource Source           `json:"gradingSource"`
}

// Templates are the fixed messages used when the answer key decides.
// ExplanationFormat receives the correct answer as its only %s verb.
type Templates struct {
	CorrectFeedback   string
	IncorrectFeedback string
	ExplanationFormat string
}

// DefaultTemplates returns the messages shown to children by default.
func DefaultTemplates() Templates {
	return Templates{
		CorrectFeedback:   "正解です！よくできました。",
		IncorrectFeedback: "おしい！もう一度やってみよう。",
		ExplanationFormat: "正しい答えは「%s」です。",
	}
}

// Resolver options

type Option func(*Resolver)

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

func WithTemplates(t Templates) Option { return func(r *Resolver) { r.tmpl = t } }

// Resolver reconciles detected problems with an answer key. It keeps no
// state between calls and is safe for concurrent use.
type Resolver struct {
	log  *zap.Logger
	tmpl Templates
}

// NewResolver builds a Resolver. Without WithLogger it logs nothing.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		log:  zap.NewNop(),
		tmpl: DefaultTemplates(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve grades d against records. fallbackPage is the document page and is
// only used when the model did not report a printed page.
func (r *Resolver) Resolve(d DetectedProblem, records []AnswerKeyRecord, fallbackPage int) MatchResult {
	ref := ReferencePage(d.PrintedPageNumber, fallbackPage)
	sec := ResolveSection(records, ref)
	r.log.Debug("section resolved",
		zap.String("problem_number", d.ProblemNumber),
		zap.Int("reference_page", ref),
		zap.Bool("printed_page", d.PrintedPageNumber != nil),
		pageField("section_page", sec.Page),
		zap.Int("section_size", len(sec.Records)))

	out := Match(d.ProblemNumber, sec, records, ref)
	r.log.Debug("candidates found",
		zap.String("problem_number", d.ProblemNumber),
		zap.Stringer("tier", out.Tier),
		zap.Int("candidates", out.Candidates))

	if out.Record == nil {
		res := aiResult(d)
		r.log.Debug("tier outcome",
			zap.String("problem_number", d.ProblemNumber),
			zap.Stringer("tier", out.Tier),
			zap.String("source", string(res.GradingSource)))
		return res
	}

	ok := Equivalent(d.StudentAnswer, out.Record.CorrectAnswer)
	res := MatchResult{
		MatchedAnswer: out.Record,
		IsCorrect:     ok,
		CorrectAnswer: out.Record.CorrectAnswer,
		GradingSource: SourceDB,
	}
	res.Feedback, res.Explanation = r.keyFeedback(ok, out.Record.CorrectAnswer)
	r.log.Debug("tier outcome",
		zap.String("problem_number", d.ProblemNumber),
		zap.Stringer("tier", out.Tier),
		zap.String("record_id", out.Record.ID),
		pageField("record_page", out.Record.ProblemPageNumber),
		zap.String("source", string(res.GradingSource)),
		zap.Bool("correct", ok))
	return res
}

// Override is the key-less grading path: the model's verdict stands unless
// it marked the answer wrong while the student's answer is equivalent to the
// model's own stated correct answer. Then the verdict flips to correct.
func (r *Resolver) Override(d DetectedProblem) MatchResult {
	res := aiResult(d)
	if d.AIIsCorrect || !Equivalent(d.StudentAnswer, d.AICorrectAnswer) {
		return res
	}
	res.IsCorrect = true
	res.Feedback = r.tmpl.CorrectFeedback
	res.GradingSource = SourceServerOverride
	r.log.Info("verdict overridden",
		zap.String("problem_number", d.ProblemNumber),
		zap.String("student_answer", d.StudentAnswer),
		zap.String("ai_correct_answer", d.AICorrectAnswer))
	return res
}

// ResolveAll grades every problem from one photo against the same snapshot.
func (r *Resolver) ResolveAll(ds []DetectedProblem, records []AnswerKeyRecord, fallbackPage int) ([]MatchResult, Summary) {
	out := make([]MatchResult, 0, len(ds))
	for _, d := range ds {
		out = append(out, r.Resolve(d, records, fallbackPage))
	}
	return out, Summarize(out)
}

// OverrideAll runs Override over a batch.
func (r *Resolver) OverrideAll(ds []DetectedProblem) ([]MatchResult, Summary) {
	out := make([]MatchResult, 0, len(ds))
	for _, d := range ds {
		out = append(out, r.Override(d))
	}
	return out, Summarize(out)
}

func (r *Resolver) keyFeedback(correct bool, answer string) (feedback, explanation string) {
	explanation = fmt.Sprintf(r.tmpl.ExplanationFormat, answer)
	if correct {
		return r.tmpl.CorrectFeedback, explanation
	}
	return r.tmpl.IncorrectFeedback, explanation
}

func aiResult(d DetectedProblem) MatchResult {
	return MatchResult{
		IsCorrect:     d.AIIsCorrect,
		CorrectAnswer: d.AICorrectAnswer,
		Feedback:      d.AIFeedback,
		Explanation:   d.AIExplanation,
		GradingSource: SourceAI,
	}
}

func pageField(key string, p *int) zap.Field {
	if p == nil {
		return zap.Skip()
	}
	return zap.Int(key, *p)
}
