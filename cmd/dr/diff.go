package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/libdiff"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	if cfg.Context < 0 {
		return fmt.Errorf("%w: -U must not be negative", cli.ErrUsage)
	}
	as, err := readAll(cc, args[0])
	if err != nil {
		return err
	}
	bs, err := readAll(cc, args[1])
	if err != nil {
		return err
	}
	differs := len(as) != len(bs)
	for i := range min(len(as), len(bs)) {
		d, err := diffDocs(cfg, cc.Out, as[i], bs[i], i)
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
		differs = differs || d
	}
	if len(as) != len(bs) {
		fmt.Fprintf(cc.Out, "# %s has %d documents, %s has %d\n", args[0], len(as), args[1], len(bs))
	}
	if differs {
		return cli.ExitCodeErr(1)
	}
	return nil
}

func readAll(cc *cli.Context, file string) ([]*docrep.FauxDoc, error) {
	var res []*docrep.FauxDoc
	err := walkFile(cc, file, func(doc *docrep.FauxDoc, _ int) error {
		res = append(res, doc)
		return nil
	})
	return res, err
}

func diffDocs(cfg *DiffConfig, w io.Writer, a, b docrep.Document, i int) (bool, error) {
	if cfg.Patch {
		patch, err := libdiff.MergePatch(a, b)
		if err != nil {
			return false, err
		}
		if string(patch) == "{}" {
			return false, nil
		}
		_, err = fmt.Fprintf(w, "%d\t%s\n", i, patch)
		return true, err
	}
	lines, err := libdiff.Lines(a, b)
	if err != nil || lines == nil {
		return false, err
	}
	colored := cfg.colors(w) != nil
	del, ins := color.New(color.FgRed), color.New(color.FgGreen)
	if colored {
		del.EnableColor()
		ins.EnableColor()
	} else {
		del.DisableColor()
		ins.DisableColor()
	}
	fmt.Fprintf(w, "# document %d\n", i)
	for _, l := range libdiff.Hunks(lines, cfg.Context) {
		switch l.Op {
		case libdiff.Delete:
			_, err = del.Fprintln(w, l.String())
		case libdiff.Insert:
			_, err = ins.Fprintln(w, l.String())
		default:
			_, err = fmt.Fprintln(w, l.String())
		}
		if err != nil {
			return true, err
		}
	}
	return true, nil
}
