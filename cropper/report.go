package cropper

import (
	"fmt"

	"github.com/wudi/pdfcrop/geo"
)

// Outcome is the terminal state of a processed page.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCropped
	OutcomeNoContent
	OutcomeInvalidCrop
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCropped:
		return "cropped"
	case OutcomeNoContent:
		return "no-content"
	case OutcomeInvalidCrop:
		return "invalid-crop"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Skip reasons.
const (
	ReasonNoContent   = "no content detected"
	ReasonInvalidCrop = "invalid crop box"
)

// PageResult records what happened to one page.
type PageResult struct {
	Page    int
	Outcome Outcome
	// Content is the union of the page's content rectangles; zero for
	// OutcomeNoContent.
	Content geo.Rectangle
	// Crop is the margin-expanded, clamped box. It was applied only for
	// OutcomeCropped.
	Crop   geo.Rectangle
	Reason string
}

// Skipped reports whether the page was left unchanged.
func (r PageResult) Skipped() bool { return r.Outcome != OutcomeCropped }

// Report summarizes a run.
type Report struct {
	Input  string
	Output string // empty until the document is saved
	Pages  []PageResult
}

// Counts tallies the pages per outcome.
func (r *Report) Counts() map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, p := range r.Pages {
		counts[p.Outcome]++
	}
	return counts
}
