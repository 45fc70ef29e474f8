// Command acp-schema writes the JSON Schema for every ACP payload, plus a
// method catalog, derived from the Go types in package acp.
//
// With no flags the schema is printed to stdout. With -out, schema.json and
// meta.json are written into that directory.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ggoodman/acp-go/internal/cli"
	"github.com/ggoodman/acp-go/internal/schemagen"
)

func main() {
	out := flag.String("out", "", "directory to write schema.json and meta.json into (stdout when empty)")
	flag.Parse()

	cfg, err := cli.ConfigFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(*out, os.Stdout, log); err != nil {
		log.Error("acp_schema.fail", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(dir string, stdout io.Writer, log *slog.Logger) error {
	schema, err := schemagen.New(schemagen.WithLogger(log)).Generate()
	if err != nil {
		return err
	}
	schemaJSON, err := schemagen.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	if dir == "" {
		_, err := stdout.Write(schemaJSON)
		return err
	}

	metaJSON, err := schemagen.Marshal(schemagen.BuildMeta())
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, b := range map[string][]byte{"schema.json": schemaJSON, "meta.json": metaJSON} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
		log.Info("acp_schema.write", slog.String("path", path), slog.Int("bytes", len(b)))
	}
	return nil
}
