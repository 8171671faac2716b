package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "dr").
		WithSynopsis("dr [opts] command [opts]").
		WithDescription("dr is a tool for working with docrep streams.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return drMain(cfg, cc, args)
		}).
		WithSubs(
			GrepCommand(cfg),
			CountCommand(cfg),
			HeadCommand(cfg),
			TailCommand(cfg),
			DumpCommand(cfg),
			JSONCommand(cfg),
			SchemaCommand(cfg),
			EvalCommand(cfg),
			DiffCommand(cfg))
}

func GrepCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GrepConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Grep, "grep").
		WithAliases("g").
		WithSynopsis("grep [-v] <query> [files]").
		WithDescription(grepDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return grep(cfg, cc, args)
		})
}

const grepDescription = `grep filters documents with a query.

Documents for which the query is truthy are written to the output unchanged.
A query is an expression over the variables doc, the document, and index,
its position in the stream, for example

  len(doc.tokens) > 10 && any(doc.tokens, ann.raw ~= /[A-Z].*/)

Operators, from loosest to tightest binding:

  && ||
  == != < <= > >= ~ ~=
  + - %
  * /

Functions: all(store, pred) any(store, pred) int(x) len(x) str(x).
Inside all and any the variable ann is the current store instance.`

func CountCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CountConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Count, "count").
		WithAliases("c").
		WithSynopsis("count [-q query] [files]").
		WithDescription("count the documents in docrep streams").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return count(cfg, cc, args)
		})
}

func HeadCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &HeadConfig{MainConfig: mainCfg, N: 1}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Head, "head").
		WithSynopsis("head [-n N] [files]").
		WithDescription("write the first documents of docrep streams").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return head(cfg, cc, args)
		})
}

func TailCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &TailConfig{MainConfig: mainCfg, N: 1}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Tail, "tail").
		WithSynopsis("tail [-n N] [files]").
		WithDescription("write the last documents of docrep streams").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return tail(cfg, cc, args)
		})
}

func DumpCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DumpConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Dump, "dump").
		WithAliases("d").
		WithSynopsis("dump [files]").
		WithDescription("show documents with wire types and pointer targets").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return dumpDocs(cfg, cc, args)
		})
}

func JSONCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &JSONConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.JSON, "json").
		WithAliases("j").
		WithSynopsis("json [-indent N] [files]").
		WithDescription("convert documents to JSON").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return jsonDocs(cfg, cc, args)
		})
}

func SchemaCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &SchemaConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Schema, "schema").
		WithAliases("s").
		WithSynopsis("schema [-a] [files]").
		WithDescription("show the runtime schema documents were written with, as YAML").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return schema(cfg, cc, args)
		})
}

func EvalCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &EvalConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Eval, "eval").
		WithAliases("e", "ev").
		WithSynopsis("eval [-filter] <expr> [files]").
		WithDescription(evalDescription).
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return evalDocs(cfg, cc, args)
		})
}

const evalDescription = `eval evaluates an expr-lang expression against each document.

The expression sees doc, the document as a map from field and store names to
values, and index, the position of the document in its stream. Each result
is written as a line of JSON. With -filter the documents for which the result
is truthy are written instead.

  dr eval 'map(filter(doc.tokens, len(.raw) > 3), .raw)' in.dr

Run eval -funcs for the functions available besides the expr-lang builtins.`

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg, Context: 3}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("di").
		WithSynopsis("diff [-patch] [-U n] a b").
		WithDescription("diff the documents of two docrep streams pairwise").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}
