package dump

import (
	"fmt"

	"github.com/fatih/color"
)

// Colors holds the formatting functions used by a Printer.
type Colors struct {
	Key     func(string, ...any) string
	Comment func(string, ...any) string
	Bad     func(string, ...any) string
}

// NewColors returns terminal colours. They are enabled regardless of
// whether the output is a terminal; callers decide that.
func NewColors() *Colors {
	key := color.New(color.Bold)
	comment := color.RGB(96, 96, 96)
	bad := color.New(color.FgRed)
	for _, c := range []*color.Color{key, comment, bad} {
		c.EnableColor()
	}
	return &Colors{
		Key:     key.SprintfFunc(),
		Comment: comment.SprintfFunc(),
		Bad:     bad.SprintfFunc(),
	}
}

func plainColors() *Colors {
	return &Colors{Key: fmt.Sprintf, Comment: fmt.Sprintf, Bad: fmt.Sprintf}
}
