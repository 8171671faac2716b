package main

import (
	"fmt"

	"github.com/go-faster/jx"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/dump"
)

func dumpDocs(cfg *DumpConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Dump.Parse(cc, args)
	if err != nil {
		return err
	}
	p := dump.NewPrinter(cc.Out, dump.WithColors(cfg.colors(cc.Out)))
	return walkFiles(cc, args, func(doc *docrep.FauxDoc, i int) error {
		defer doc.Release()
		return p.Doc(doc, i)
	})
}

func jsonDocs(cfg *JSONConfig, cc *cli.Context, args []string) error {
	args, err := cfg.JSON.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Indent < 0 {
		return fmt.Errorf("%w: -indent must not be negative", cli.ErrUsage)
	}
	return walkFiles(cc, args, func(doc *docrep.FauxDoc, _ int) error {
		defer doc.Release()
		if err := dump.JSON(cc.Out, doc, cfg.Indent); err != nil {
			return err
		}
		if cfg.Indent == 0 {
			_, err := cc.Out.Write([]byte("\n"))
			return err
		}
		return nil
	})
}

func schema(cfg *SchemaConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Schema.Parse(cc, args)
	if err != nil {
		return err
	}
	return walkFiles(cc, args, func(doc *docrep.FauxDoc, i int) error {
		defer doc.Release()
		if i > 0 {
			if _, err := cc.Out.Write([]byte("---\n")); err != nil {
				return err
			}
		}
		if err := dump.SchemaYAML(cc.Out, doc); err != nil {
			return err
		}
		if !cfg.All {
			return errStop
		}
		return nil
	})
}

// writeValue writes v as one line of JSON.
func writeValue(cc *cli.Context, v any) error {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	dump.EncodeValue(e, v)
	e.RawStr("\n")
	_, err := e.WriteTo(cc.Out)
	return err
}
