package report

// TextStyle is the font treatment for one kind of line.
type TextStyle struct {
	Bold       bool
	Italic     bool
	Size       float64
	LineHeight float64
}

const (
	fontFamily = "Go"
	marginMM   = 20.0
)

// Styles centralizes the formatting of each report element.
var Styles = map[string]TextStyle{
	"title":   {Bold: true, Size: 20, LineHeight: 10},
	"meta":    {Italic: true, Size: 10, LineHeight: 6},
	"heading": {Bold: true, Size: 14, LineHeight: 8},
	"body":    {Size: 11, LineHeight: 5.5},
	"footer":  {Italic: true, Size: 9, LineHeight: 10},
}

func (s TextStyle) fontStyle() string {
	out := ""
	if s.Bold {
		out += "B"
	}
	if s.Italic {
		out += "I"
	}
	return out
}
