package scoring

// Policy holds the tunable coefficients of the scoring rules.
type Policy struct {
	// SelectPenalty scales the deduction for wrong picks on partial-credit
	// multiple-select questions.
	SelectPenalty float64 `yaml:"selectPenalty"`
	// KeywordCredit is the share of points a short answer can earn from
	// keyword hits alone.
	KeywordCredit float64 `yaml:"keywordCredit"`
	// DefaultTolerance applies to calculation questions without their own.
	DefaultTolerance float64 `yaml:"defaultTolerance"`
}

func DefaultPolicy() Policy {
	return Policy{
		SelectPenalty:    0.5,
		KeywordCredit:    0.5,
		DefaultTolerance: 0.01,
	}
}

// Option tweaks the policy of an Engine.
type Option func(*Policy)

func WithPolicy(p Policy) Option           { return func(dst *Policy) { *dst = p } }
func WithSelectPenalty(v float64) Option    { return func(p *Policy) { p.SelectPenalty = v } }
func WithKeywordCredit(v float64) Option    { return func(p *Policy) { p.KeywordCredit = v } }
func WithDefaultTolerance(v float64) Option { return func(p *Policy) { p.DefaultTolerance = v } }
