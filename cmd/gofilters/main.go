//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoFilters.
//
// GoFilters is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoFilters is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoFilters. If not, see https://www.gnu.org/licenses/.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aaronlmathis/gofilters"
	"github.com/aaronlmathis/gofilters/aggregate"
	"github.com/aaronlmathis/gofilters/core"
	"github.com/aaronlmathis/gofilters/filters"
	"github.com/aaronlmathis/gofilters/readers"
	"github.com/aaronlmathis/gofilters/schema"
	"github.com/aaronlmathis/gofilters/transform"
	"github.com/aaronlmathis/gofilters/types"
)

// Command gofilters validates record streams against a YAML filter schema.

// Exit codes
const (
	ExitSuccess = 0
	ExitRejects = 1
	ExitError   = 2
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cli holds the flags and outputs of one invocation.
type cli struct {
	stdout io.Writer
	stderr io.Writer
	code   int

	verbose bool
	quiet   bool

	schemaPath string
	input      string
	format     string
	query      string
	database   string
	collection string
	out        string
	outFormat  string
	table      string
	rejects    string
	strategy   string
	selectKeys []string
	dump       bool

	minRecords  int
	maxRecords  int
	maxNullRate float64
	required    []string
}

// run executes the command line and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return ExitError
	}
	return c.code
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gofilters",
		Short: "GoFilters - validate and clean structured records",
		Long: `GoFilters validates record streams against a YAML filter schema.

Records are read from a file, stdin, S3, PostgreSQL or MongoDB, run through
the schema, and valid records are written to the output. Rejected records and
their issues go to the rejects location.

Examples:
  # Check that a schema compiles
  gofilters check users.yaml

  # Validate JSON lines, writing clean records and rejects
  gofilters validate --schema users.yaml --input users.jsonl --out clean.jsonl --rejects rejects.jsonl

  # Validate rows of a PostgreSQL query
  gofilters validate -s users.yaml -i postgres://localhost/app --query 'SELECT * FROM users'`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "Only log warnings and errors")

	root.AddCommand(c.validateCmd(), c.checkCmd(), c.inspectCmd(), c.versionCmd())
	return root
}

func (c *cli) logger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch {
	case c.verbose:
		level = zerolog.DebugLevel
	case c.quiet:
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: c.stderr, NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
}

func (c *cli) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate records against a schema",
		Long: `Validate every record of the input against the schema.

Locations are local paths, "-" for stdin/stdout, s3://bucket/key,
postgres://... (needs --query for input, --table for output) or
mongodb://... (input only, needs --db and --collection).

Exit codes:
  0 - All records are valid
  1 - At least one record was rejected, or a --min-records, --max-records,
      --max-null-rate or --require-field check failed
  2 - Usage, schema or runtime error`,
		Args: cobra.NoArgs,
		RunE: c.runValidate,
	}
	f := cmd.Flags()
	f.StringVarP(&c.schemaPath, "schema", "s", "", "YAML schema file (required)")
	f.StringVarP(&c.input, "input", "i", "-", "Input location")
	f.StringVar(&c.format, "format", "", "Input format: jsonl, csv or parquet (default from extension)")
	f.StringVar(&c.query, "query", "", "SQL query for PostgreSQL input")
	f.StringVar(&c.database, "db", "", "MongoDB database")
	f.StringVar(&c.collection, "collection", "", "MongoDB collection")
	f.StringVarP(&c.out, "out", "o", "", "Output location for valid records (discarded when empty)")
	f.StringVar(&c.outFormat, "out-format", "", "Output format: jsonl or csv (default from extension)")
	f.StringVar(&c.table, "table", "", "Table for PostgreSQL output")
	f.StringVarP(&c.rejects, "rejects", "r", "", "Output location for rejected records (JSON lines)")
	f.StringVar(&c.strategy, "strategy", "collect", "On rejects: fail, skip or collect")
	f.StringSliceVar(&c.selectKeys, "select", nil, "Only pass these fields to the schema")
	f.BoolVar(&c.dump, "dump", false, "Dump every clean record to stderr")
	f.IntVar(&c.minRecords, "min-records", 0, "Fail unless at least this many records are valid")
	f.IntVar(&c.maxRecords, "max-records", 0, "Fail if more than this many records are valid (0 = unlimited)")
	f.Float64Var(&c.maxNullRate, "max-null-rate", 0, "Fail if a field is null or absent in more than this share of valid records")
	f.StringSliceVar(&c.required, "require-field", nil, "Fail if a valid record lacks this field")
	_ = cmd.MarkFlagRequired("schema")
	return cmd
}

func (c *cli) runValidate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := c.logger()

	sch, err := schema.Load(c.schemaPath)
	if err != nil {
		return err
	}
	strategy, err := core.ParseErrorStrategy(c.strategy)
	if err != nil {
		return err
	}
	inFormat, err := types.ParseFormat(c.format)
	if err != nil {
		return err
	}
	outFormat, err := types.ParseFormat(c.outFormat)
	if err != nil {
		return err
	}

	source, err := types.OpenSource(ctx, c.input, types.InputOptions{
		Format:     inFormat,
		Query:      c.query,
		Database:   c.database,
		Collection: c.collection,
	})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	var sink core.DataSink = discardSink{}
	if c.out != "" {
		sink, err = types.OpenSink(ctx, c.out, types.OutputOptions{Format: outFormat, Table: c.table})
		if err != nil {
			source.Close()
			return fmt.Errorf("open output: %w", err)
		}
	}
	if c.dump {
		sink = dumpSink{DataSink: sink, w: c.stderr}
	}

	counter := aggregate.NewIssueCounter(gofilters.RejectIssues)
	gate := &aggregate.QualityGate{
		MinRecords:     c.minRecords,
		MaxRecords:     c.maxRecords,
		MaxNullRate:    c.maxNullRate,
		RequiredFields: c.required,
	}
	builder := gofilters.NewPipeline().
		From(source).
		ValidateWith(sch.Runner()).
		To(sink).
		Aggregate(counter).
		Observe(gate).
		WithErrorStrategy(strategy).
		WithLogger(log)
	if len(c.selectKeys) > 0 {
		builder.Transform(transform.Select(c.selectKeys...))
	}
	if c.rejects != "" {
		opts := types.OutputOptions{Format: types.FormatJSON}
		if c.table != "" {
			opts.Table = c.table + "_rejects"
		}
		rejects, err := types.OpenSink(ctx, c.rejects, opts)
		if err != nil {
			source.Close()
			sink.Close()
			return fmt.Errorf("open rejects: %w", err)
		}
		builder.Rejects(rejects)
	} else {
		builder.WithErrorHandler(core.ErrorHandlerFunc(func(_ context.Context, _ core.Record, err error) error {
			fmt.Fprintln(c.stderr, err)
			return nil
		}))
	}

	pipeline, err := builder.Build()
	if err != nil {
		return err
	}

	report, err := pipeline.Execute(ctx)
	var verr *filters.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(c.stderr, err)
	case err != nil:
		return err
	}

	c.printReport(report, counter)
	if report.Rejected > 0 {
		c.code = ExitRejects
	}
	if err == nil {
		if qerr := gate.Check(); qerr != nil {
			log.Warn().Err(qerr).Msg("quality gate failed")
			fmt.Fprintln(c.stderr, qerr)
			c.code = ExitRejects
		}
	}
	return nil
}

func (c *cli) printReport(report *gofilters.Report, counter *aggregate.IssueCounter) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.stdout, "run %s: read %d, valid %d, rejected %d, filtered %d\n",
		report.RunID, report.Read, report.Written, report.Rejected, report.Filtered)
	for _, n := range counter.ByCode() {
		fmt.Fprintf(c.stdout, "  %-20s %d\n", n.Key, n.N)
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <schema-file>",
		Short: "Compile a schema and print its filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := schema.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.stdout, filters.Describe(sch.Filter))
			if c.verbose {
				codes := make([]string, 0, len(sch.Messages))
				for code := range sch.Messages {
					codes = append(codes, string(code))
				}
				if len(codes) > 0 {
					fmt.Fprintf(c.stdout, "message overrides: %s\n", strings.Join(codes, ", "))
				}
			}
			return nil
		},
	}
}

func (c *cli) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.parquet>",
		Short: "Print the row counts and columns of a Parquet file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := readers.InspectParquet(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(c.stdout, "%s: %d rows in %d row groups\n", args[0], info.Rows, info.RowGroups)
			if c.verbose {
				for i, n := range info.RowGroupRows {
					fmt.Fprintf(c.stdout, "  row group %d: %d rows\n", i, n)
				}
			}
			for _, col := range info.Columns {
				fmt.Fprintf(c.stdout, "  %s\n", col)
			}
			return nil
		},
	}
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(c.stdout, "gofilters %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}

// discardSink drops valid records when no output is given.
type discardSink struct{}

func (discardSink) Write(context.Context, core.Record) error { return nil }
func (discardSink) Flush() error                             { return nil }
func (discardSink) Close() error                             { return nil }

// dumpSink writes a spew dump of each record before passing it on.
type dumpSink struct {
	core.DataSink
	w io.Writer
}

func (d dumpSink) Write(ctx context.Context, record core.Record) error {
	spew.Fdump(d.w, record)
	return d.DataSink.Write(ctx, record)
}
