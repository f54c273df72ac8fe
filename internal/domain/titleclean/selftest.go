package titleclean

// Case is one row of the built-in self-test table.
type Case struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Expected string `json:"expected"`
}

// Result is the outcome of running one Case.
type Result struct {
	Case
	Got    string `json:"got"`
	Passed bool   `json:"passed"`
}

// SelfTestCases covers each removal pass, the fallbacks and quote handling.
var SelfTestCases = []Case{
	{Title: "LISA LARSON, Skulptur, brons", Artist: "LISA LARSON", Expected: "Skulptur, brons"},
	{Title: "LISA LARSON", Artist: "LISA LARSON", Expected: "Objekt"},
	{Title: "Skulptur, LISA LARSON, brons", Artist: "LISA LARSON", Expected: "Skulptur, brons"},
	{Title: "Skulptur, brons, LISA LARSON", Artist: "LISA LARSON", Expected: "Skulptur, brons"},
	{Title: "Vas LISA LARSON stengods", Artist: "LISA LARSON", Expected: "Vas stengods"},
	{Title: "Lisa Larson, skulptur, brons", Artist: "LISA LARSON", Expected: "Skulptur, brons"},
	{Title: `LISA LARSON, "Kalle", figurin, stengods`, Artist: "LISA LARSON", Expected: `"Kalle", figurin, stengods`},
	{Title: "LISA LARSON SKULPTUR", Artist: "LISA LARSON SKULPTUR", Expected: "Skulptur"},
}

// SelfTest runs SelfTestCases through c.
func (c *Cleaner) SelfTest() []Result {
	out := make([]Result, 0, len(SelfTestCases))
	for _, tc := range SelfTestCases {
		got := c.Clean(tc.Title, tc.Artist)
		out = append(out, Result{Case: tc, Got: got, Passed: got == tc.Expected})
	}
	return out
}

// SelfTest runs the table with the default keyword list.
func SelfTest() []Result { return std.SelfTest() }

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
