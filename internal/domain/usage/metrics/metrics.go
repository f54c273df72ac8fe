package metrics

// Metrics holds LLM usage for a time period.
type Metrics struct {
	completions      int
	tokens           int
	costMillidollars int
}

// New creates a Metrics snapshot.
func New(requests, tokens, costMillidollars int) Metrics {
	return Metrics{completions: requests, tokens: tokens, costMillidollars: costMillidollars}
}

// Completions returns the number of completion calls.
func (m Metrics) Completions() int { return m.completions }

// Tokens returns the total tokens consumed.
func (m Metrics) Tokens() int { return m.tokens }

// CostMillidollars returns cost in millicents (1 USD = 1000).
func (m Metrics) CostMillidollars() int { return m.costMillidollars }
