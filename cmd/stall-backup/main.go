// Command stall-backup copies the customer snapshot between the configured
// slot and a gzip archive.
//
//	stall-backup export -file customers.json.gz
//	stall-backup import -file customers.json.gz
//
// Storage is configured the same way as stall-server (STALL_ env and
// config.yaml).
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	pgzip "github.com/klauspost/pgzip"
	"go.uber.org/zap"

	appkg "github.com/xenking/stall-orders/internal/app"
	"github.com/xenking/stall-orders/internal/storage/snapshot"
)

const maxArchiveSize = 64 << 20

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	mode := os.Args[1]
	if mode != "export" && mode != "import" {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet(mode, flag.ExitOnError)
	path := fs.String("file", "customers.json.gz", "archive path")
	_ = fs.Parse(os.Args[2:])

	app.Run(func(ctx context.Context, lg *zap.Logger, _ *app.Telemetry) error {
		return run(ctx, lg, mode, *path)
	})
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: stall-backup export|import [-file path]")
}

func run(ctx context.Context, lg *zap.Logger, mode, path string) error {
	cfg, err := appkg.LoadConfig(true)
	if err != nil {
		return err
	}

	slot, err := appkg.OpenSlot(ctx, lg, cfg.Storage)
	if err != nil {
		return err
	}
	defer func() { _ = slot.Close() }()

	if mode == "import" {
		return restore(ctx, lg, slot, path)
	}
	return export(ctx, lg, slot, path)
}

func export(ctx context.Context, lg *zap.Logger, slot snapshot.Slot, path string) error {
	customers, err := snapshot.NewRepository(slot).Load(ctx)
	if err != nil {
		return errors.Wrap(err, "load snapshot")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create archive")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	zw := pgzip.NewWriter(tmp)
	if _, err := zw.Write(snapshot.Encode(customers)); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "compress")
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "flush archive")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close archive")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "rename archive")
	}

	lg.Info("Exported snapshot", zap.String("file", path), zap.Int("customers", len(customers)))
	return nil
}

func restore(ctx context.Context, lg *zap.Logger, slot snapshot.Slot, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open archive")
	}
	defer func() { _ = f.Close() }()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "open gzip stream")
	}
	defer func() { _ = zr.Close() }()

	data, err := io.ReadAll(io.LimitReader(zr, maxArchiveSize))
	if err != nil {
		return errors.Wrap(err, "decompress")
	}
	customers, err := snapshot.Decode(data)
	if err != nil {
		return errors.Wrap(err, "validate snapshot")
	}

	if err := snapshot.NewRepository(slot).Save(ctx, customers); err != nil {
		return errors.Wrap(err, "save snapshot")
	}
	lg.Info("Imported snapshot", zap.String("file", path), zap.Int("customers", len(customers)))
	return nil
}
