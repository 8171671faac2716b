package libdiff

import (
	"bytes"
	"strings"

	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/dump"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the change a Line records.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

func (o Op) Prefix() string {
	switch o {
	case Delete:
		return "-"
	case Insert:
		return "+"
	}
	return " "
}

// Line is one line of a listing diff.
type Line struct {
	Op   Op
	Text string
}

func (l Line) String() string {
	return l.Op.Prefix() + l.Text
}

// Listing renders doc the way Lines compares it.
func Listing(doc docrep.Document) (string, error) {
	var buf bytes.Buffer
	if err := dump.NewPrinter(&buf).Doc(doc, 0); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Lines diffs the listings of from and to line by line. The result is nil
// when they are the same.
func Lines(from, to docrep.Document) ([]Line, error) {
	a, err := Listing(from)
	if err != nil {
		return nil, err
	}
	b, err := Listing(to)
	if err != nil {
		return nil, err
	}
	return DiffText(a, b), nil
}

// DiffText diffs two texts line by line. The result is nil when they are
// the same.
func DiffText(a, b string) []Line {
	if a == b {
		return nil
	}
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	var res []Line
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffpatch.DiffDelete:
			op = Delete
		case diffpatch.DiffInsert:
			op = Insert
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			res = append(res, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return res
}

// Hunks drops Equal lines further than context lines from any change.
// Dropped runs are replaced by a single Equal line "...".
func Hunks(lines []Line, context int) []Line {
	keep := make([]bool, len(lines))
	for i, l := range lines {
		if l.Op == Equal {
			continue
		}
		for j := max(0, i-context); j <= min(len(lines)-1, i+context); j++ {
			keep[j] = true
		}
	}
	var res []Line
	skipping := false
	for i, l := range lines {
		if keep[i] {
			res = append(res, l)
			skipping = false
			continue
		}
		if !skipping {
			res = append(res, Line{Op: Equal, Text: "..."})
			skipping = true
		}
	}
	return res
}
