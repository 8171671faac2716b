package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gops/agent"
	"github.com/scott-cotton/cli"
	"github.com/signadot/docrep/go-docrep"
	"github.com/signadot/docrep/go-docrep/debug"
)

func drMain(cfg *MainConfig, cc *cli.Context, args []string) error {
	defer func() {
		if cfg.CloseOut != nil {
			cfg.CloseOut()
		}
	}()
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Debug {
		debug.Enable()
	}
	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "gops agent failed: %v\n", err)
		} else {
			defer agent.Close()
		}
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func (cfg *MainConfig) outOpt(cc *cli.Context, a string) (any, error) {
	cfg.Out = a
	if a == "-" {
		return nil, nil
	}
	f, err := os.OpenFile(cfg.Out, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	cc.Out = f
	cfg.CloseOut = f.Close
	return nil, nil
}

// errStop ends a walk early without error.
var errStop = errors.New("stop")

// docFunc is called for every document of a stream with its position in
// that stream.
type docFunc func(doc *docrep.FauxDoc, index int) error

// walkFiles reads every document of every file in turn, or of the command
// input when there are no files.
func walkFiles(cc *cli.Context, files []string, f docFunc) error {
	if len(files) == 0 {
		files = []string{"-"}
	}
	for _, file := range files {
		if err := walkFile(cc, file, f); err != nil {
			return err
		}
	}
	return nil
}

func walkFile(cc *cli.Context, file string, f docFunc) error {
	var r io.Reader = cc.In
	if file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("could not open %q: %w", file, err)
		}
		defer fh.Close()
		r = fh
	}
	if err := walk(r, f); err != nil {
		return fmt.Errorf("error processing %s: %w", file, err)
	}
	return nil
}

func walk(r io.Reader, f docFunc) error {
	rd := docrep.NewReader(r, nil)
	for i := 0; ; i++ {
		doc := &docrep.FauxDoc{}
		ok, err := rd.Read(doc)
		if err != nil {
			return fmt.Errorf("error reading document %d: %w", i, err)
		}
		if !ok {
			return nil
		}
		err = f(doc, i)
		if errors.Is(err, errStop) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("document %d: %w", i, err)
		}
	}
}
