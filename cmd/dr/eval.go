package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/eval"
)

func evalDocs(cfg *EvalConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Eval.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Funcs {
		fmt.Fprintf(cc.Out, "available functions:\n")
		for _, s := range eval.Symbols() {
			fmt.Fprintf(cc.Out, "\t- %s\n", s.Signature())
		}
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: eval requires an expression", cli.ErrUsage)
	}
	prg, err := eval.Compile(args[0])
	if err != nil {
		return err
	}
	var w *docrep.Writer
	if cfg.Filter {
		w = docrep.NewWriter(cc.Out, nil)
	}
	return walkFiles(cc, args[1:], func(doc *docrep.FauxDoc, i int) error {
		defer doc.Release()
		v, err := prg.Run(doc, i)
		if err != nil {
			return err
		}
		if w == nil {
			return writeValue(cc, v)
		}
		if !eval.Truthy(v) {
			return nil
		}
		return w.Write(doc)
	})
}
