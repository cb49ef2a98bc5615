package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kbukum/asrkit/errors"
)

// Parse reads a long-format TextGrid with interval tiers. Declared sizes
// must match what follows.
func Parse(r io.Reader) (*Document, error) {
	p := &parser{sc: bufio.NewScanner(r)}
	p.sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	doc, err := p.parse()
	if err != nil {
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.InvalidFormat("TextGrid", "long text format").
			WithCause(err).WithDetail("line", p.lineNo)
	}
	return doc, nil
}

type parser struct {
	sc     *bufio.Scanner
	lineNo int
}

func (p *parser) parse() (*Document, error) {
	doc := &Document{}
	var (
		tier          *Tier
		interval      *Interval
		declaredTiers = -1
		declaredIvs   = map[int]int{}
		sawFileType   bool
		sawClass      bool
	)

	flushInterval := func() {
		if interval != nil && tier != nil {
			tier.Intervals = append(tier.Intervals, *interval)
		}
		interval = nil
	}
	flushTier := func() {
		flushInterval()
		if tier != nil {
			doc.Tiers = append(doc.Tiers, *tier)
		}
		tier = nil
	}

	for {
		line, ok, err := p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if line == "" {
			continue
		}

		switch {
		case line == "tiers? <exists>", line == "item []:":
			continue
		case strings.HasPrefix(line, "item ["):
			flushTier()
			tier = &Tier{}
			continue
		case strings.HasPrefix(line, "intervals ["):
			if tier == nil {
				return nil, fmt.Errorf("interval outside a tier")
			}
			flushInterval()
			interval = &Interval{}
			continue
		case strings.HasPrefix(line, "points"):
			return nil, errors.InvalidFormat("TextGrid", "interval tiers only")
		}

		key, value, found := strings.Cut(line, " = ")
		if !found {
			return nil, fmt.Errorf("unexpected line %q", line)
		}
		if strings.HasPrefix(value, `"`) {
			if value, err = p.readString(value); err != nil {
				return nil, err
			}
		}

		switch key {
		case "File type":
			if value != "ooTextFile" {
				return nil, fmt.Errorf("file type %q", value)
			}
			sawFileType = true
		case "Object class":
			if value != "TextGrid" {
				return nil, fmt.Errorf("object class %q", value)
			}
			sawClass = true
		case "size":
			if declaredTiers, err = strconv.Atoi(value); err != nil {
				return nil, err
			}
		case "class":
			if value != "IntervalTier" {
				return nil, errors.InvalidFormat("TextGrid", "interval tiers only").WithDetail("class", value)
			}
		case "name":
			if tier == nil {
				return nil, fmt.Errorf("name outside a tier")
			}
			tier.Name = value
		case "intervals: size":
			if tier == nil {
				return nil, fmt.Errorf("intervals outside a tier")
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, err
			}
			declaredIvs[len(doc.Tiers)] = n
		case "xmin", "xmax":
			f, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, err
			}
			target := p.bounds(doc, tier, interval)
			if key == "xmin" {
				*target[0] = f
			} else {
				*target[1] = f
			}
		case "text":
			if interval == nil {
				return nil, fmt.Errorf("text outside an interval")
			}
			interval.Text = value
		default:
			return nil, fmt.Errorf("unknown key %q", key)
		}
	}
	flushTier()

	if !sawFileType || !sawClass {
		return nil, fmt.Errorf("missing header")
	}
	if declaredTiers != len(doc.Tiers) {
		return nil, errors.InvalidFormat("TextGrid", "tier count matching size").
			WithDetail("declared", declaredTiers).WithDetail("found", len(doc.Tiers))
	}
	for i, t := range doc.Tiers {
		if declaredIvs[i] != len(t.Intervals) {
			return nil, errors.InvalidFormat("TextGrid", "interval count matching intervals: size").
				WithDetail("tier", t.Name).WithDetail("declared", declaredIvs[i]).WithDetail("found", len(t.Intervals))
		}
	}
	return doc, nil
}

func (p *parser) bounds(doc *Document, tier *Tier, interval *Interval) [2]*float64 {
	switch {
	case interval != nil:
		return [2]*float64{&interval.XMin, &interval.XMax}
	case tier != nil:
		return [2]*float64{&tier.XMin, &tier.XMax}
	default:
		return [2]*float64{&doc.XMin, &doc.XMax}
	}
}

func (p *parser) next() (string, bool, error) {
	if !p.sc.Scan() {
		return "", false, p.sc.Err()
	}
	p.lineNo++
	return strings.TrimSpace(p.sc.Text()), true, nil
}

// readString decodes a quoted value that may continue over several lines.
// A doubled quote is a literal quote.
func (p *parser) readString(first string) (string, error) {
	raw := first
	for !closedString(raw) {
		if !p.sc.Scan() {
			if err := p.sc.Err(); err != nil {
				return "", err
			}
			return "", fmt.Errorf("unterminated string")
		}
		p.lineNo++
		raw += "\n" + p.sc.Text()
	}
	raw = strings.TrimRight(raw, " \t")
	return strings.ReplaceAll(raw[1:len(raw)-1], `""`, `"`), nil
}

// closedString reports whether s, which starts with a quote, ends with an
// unpaired closing quote.
func closedString(s string) bool {
	s = strings.TrimRight(s, " \t")
	if len(s) < 2 || !strings.HasSuffix(s, `"`) {
		return false
	}
	return strings.Count(s, `"`)%2 == 0
}
