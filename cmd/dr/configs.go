package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep/dump"
)

type MainConfig struct {
	Color bool `cli:"name=color desc='colour dump output'"`
	Debug bool `cli:"name=debug desc='enable all debug logging'"`
	Gops  bool `cli:"name=gops desc='start a gops diagnostics agent'"`

	Out      string
	CloseOut func() error

	Main *cli.Command
}

// colors returns the dump colours for w: forced by -color when given,
// otherwise on when w is a terminal.
func (cfg *MainConfig) colors(w io.Writer) *dump.Colors {
	if cfg.Color {
		return dump.NewColors()
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return nil
		}
	}
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if isatty.IsTerminal(f.Fd()) {
		return dump.NewColors()
	}
	return nil
}

type GrepConfig struct {
	*MainConfig
	Invert bool `cli:"name=v desc='keep documents that do not match'"`

	Grep *cli.Command
}

type CountConfig struct {
	*MainConfig
	Query string `cli:"name=q desc='only count documents matching this query'"`

	Count *cli.Command
}

type HeadConfig struct {
	*MainConfig
	N int `cli:"name=n desc='number of documents'"`

	Head *cli.Command
}

type TailConfig struct {
	*MainConfig
	N int `cli:"name=n desc='number of documents'"`

	Tail *cli.Command
}

type DumpConfig struct {
	*MainConfig
	Dump *cli.Command
}

type JSONConfig struct {
	*MainConfig
	Indent int `cli:"name=indent desc='indent width, 0 for one document per line'"`

	JSON *cli.Command
}

type SchemaConfig struct {
	*MainConfig
	All bool `cli:"name=a aliases=all desc='show the schema of every document'"`

	Schema *cli.Command
}

type EvalConfig struct {
	*MainConfig
	Filter bool `cli:"name=filter desc='write the documents for which the expression is truthy'"`
	Funcs  bool `cli:"name=funcs desc='show available functions'"`

	Eval *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Patch   bool `cli:"name=patch desc='print JSON merge patches instead of listings'"`
	Context int  `cli:"name=U desc='lines of context around changes'"`

	Diff *cli.Command
}
