// Package extraction pulls the vendor, date and total out of raw OCR text.
//
// Everything here is a pure function of its input: no I/O, no shared state.
// Extractors never fail; a field that cannot be found carries the NotFound or
// Unknown sentinel instead.
package extraction

// Result is the structured output for one document.
type Result struct {
	Vendor           string   `json:"vendor"`
	VendorCandidates []string `json:"vendor_candidates"`
	Date             string   `json:"date"`
	Total            string   `json:"total"`
	TotalCandidates  []string `json:"total_candidates"`
}

// Engine runs the field extractors with a fixed set of tunables. The zero
// value uses the defaults.
type Engine struct {
	TopNLines   int
	GapMaxChars int
}

// NewEngine returns an Engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		TopNLines:   DefaultTopNLines,
		GapMaxChars: DefaultGapMaxChars,
	}
}

// Extract runs all extractors over text.
func (e *Engine) Extract(text string) Result {
	text = StripPageMarkers(NormalizeLineEndings(text))

	vendor, vendorCandidates := ExtractVendor(text, e.TopNLines)
	total, totalCandidates := ExtractTotal(text, e.GapMaxChars)

	return Result{
		Vendor:           vendor,
		VendorCandidates: vendorCandidates,
		Date:             ExtractDate(text),
		Total:            total,
		TotalCandidates:  totalCandidates,
	}
}

// Extract runs the default Engine over text.
func Extract(text string) Result {
	return NewEngine().Extract(text)
}
