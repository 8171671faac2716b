package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/query"
)

func grep(cfg *GrepConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Grep.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: grep requires a query", cli.ErrUsage)
	}
	in, err := query.Compile(args[0])
	if err != nil {
		return err
	}
	w := docrep.NewWriter(cc.Out, nil)
	return walkFiles(cc, args[1:], func(doc *docrep.FauxDoc, i int) error {
		defer doc.Release()
		ok, err := in.Match(doc, i)
		if err != nil {
			return err
		}
		if ok == cfg.Invert {
			return nil
		}
		return w.Write(doc)
	})
}

func count(cfg *CountConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Count.Parse(cc, args)
	if err != nil {
		return err
	}
	var in *query.Interpreter
	if cfg.Query != "" {
		if in, err = query.Compile(cfg.Query); err != nil {
			return err
		}
	}
	files := args
	if len(files) == 0 {
		files = []string{"-"}
	}
	total := 0
	for _, file := range files {
		n := 0
		err := walkFile(cc, file, func(doc *docrep.FauxDoc, i int) error {
			defer doc.Release()
			if in != nil {
				ok, err := in.Match(doc, i)
				if err != nil || !ok {
					return err
				}
			}
			n++
			return nil
		})
		if err != nil {
			return err
		}
		total += n
		if len(files) > 1 {
			fmt.Fprintf(cc.Out, "%d\t%s\n", n, file)
		}
	}
	if len(files) > 1 {
		fmt.Fprintf(cc.Out, "%d\ttotal\n", total)
		return nil
	}
	fmt.Fprintf(cc.Out, "%d\n", total)
	return nil
}

func head(cfg *HeadConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Head.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.N < 0 {
		return fmt.Errorf("%w: -n must not be negative", cli.ErrUsage)
	}
	w := docrep.NewWriter(cc.Out, nil)
	n := 0
	return walkFiles(cc, args, func(doc *docrep.FauxDoc, _ int) error {
		if n == cfg.N {
			return errStop
		}
		n++
		return w.Write(doc)
	})
}

func tail(cfg *TailConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Tail.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.N < 0 {
		return fmt.Errorf("%w: -n must not be negative", cli.ErrUsage)
	}
	if cfg.N == 0 {
		return nil
	}
	ring := make([]*docrep.FauxDoc, 0, cfg.N)
	err = walkFiles(cc, args, func(doc *docrep.FauxDoc, _ int) error {
		if len(ring) == cfg.N {
			ring[0].Release()
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, doc)
		return nil
	})
	if err != nil {
		return err
	}
	w := docrep.NewWriter(cc.Out, nil)
	for _, doc := range ring {
		if err := w.Write(doc); err != nil {
			return err
		}
	}
	return nil
}
