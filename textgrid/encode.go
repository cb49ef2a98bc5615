package textgrid

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// Encode writes the document in the long text format. Lines are tab
// indented and joined by "\n" with no trailing newline.
func (d *Document) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	lines := d.lines()
	for i, line := range lines {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// String returns the encoded document.
func (d *Document) String() string {
	return strings.Join(d.lines(), "\n")
}

func (d *Document) lines() []string {
	lines := []string{
		`File type = "ooTextFile"`,
		`Object class = "TextGrid"`,
		``,
		`xmin = ` + formatTime(d.XMin),
		`xmax = ` + formatTime(d.XMax),
		`tiers? <exists>`,
		`size = ` + strconv.Itoa(len(d.Tiers)),
		`item []:`,
	}
	for ti, tier := range d.Tiers {
		lines = append(lines,
			"\titem ["+strconv.Itoa(ti+1)+"]:",
			"\t\tclass = \"IntervalTier\"",
			"\t\tname = "+quote(tier.Name),
			"\t\txmin = "+formatTime(tier.XMin),
			"\t\txmax = "+formatTime(tier.XMax),
			"\t\tintervals: size = "+strconv.Itoa(len(tier.Intervals)),
		)
		for i, iv := range tier.Intervals {
			lines = append(lines,
				"\t\tintervals ["+strconv.Itoa(i+1)+"]:",
				"\t\t\txmin = "+formatTime(iv.XMin),
				"\t\t\txmax = "+formatTime(iv.XMax),
				"\t\t\ttext = "+quote(iv.Text),
			)
		}
	}
	return lines
}

// formatTime renders the shortest decimal that reads back exactly.
func formatTime(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote wraps s in double quotes, doubling embedded quotes as Praat does.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
