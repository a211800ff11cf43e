// assetpack uploads an asset directory into the Postgres archive that the
// engine reads when [assets] source = "postgres".
//
// Usage:
//
//	go run ./cmd/assetpack [-config path] [-dir path] [-prune] [-list]
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/feacur/customengine/internal/config"
	"github.com/feacur/customengine/internal/core/intern"
	"github.com/feacur/customengine/internal/persist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config/engine.toml", "engine config file")
	dir := flag.String("dir", "", "asset directory (default: [assets] root)")
	prune := flag.Bool("prune", false, "delete archived files missing from the directory")
	list := flag.Bool("list", false, "print the archive contents and exit")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	archive := persist.NewArchive(db)

	if *list {
		entries, err := archive.List(ctx)
		if err != nil {
			return fmt.Errorf("list: %w", err)
		}
		for _, e := range entries {
			fmt.Printf("%8d  %s  %s\n", e.Size, e.UpdatedAt.Format(time.RFC3339), e.Name)
		}
		return nil
	}

	root := *dir
	if root == "" {
		root = cfg.Assets.Root
	}
	files, err := collect(root)
	if err != nil {
		return err
	}
	if err := archive.PutBatch(ctx, files); err != nil {
		return err
	}
	log.Info("assets packed", zap.String("dir", root), zap.Int("files", len(files)))

	if *prune {
		n, err := pruneMissing(ctx, archive, files)
		if err != nil {
			return err
		}
		log.Info("archive pruned", zap.Int("deleted", n))
	}
	return nil
}

// collect reads every regular file under root, skipping dot entries, and
// names each by its normalised slash path relative to root.
func collect(root string) ([]persist.File, error) {
	var files []persist.File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, persist.File{Name: intern.ResourceName(filepath.ToSlash(rel)), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func pruneMissing(ctx context.Context, archive *persist.Archive, keep []persist.File) (int, error) {
	present := make(map[string]bool, len(keep))
	for _, f := range keep {
		present[f.Name] = true
	}
	entries, err := archive.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list: %w", err)
	}
	n := 0
	for _, e := range entries {
		if present[e.Name] {
			continue
		}
		if err := archive.Delete(ctx, e.Name); err != nil {
			return n, fmt.Errorf("delete %s: %w", e.Name, err)
		}
		n++
	}
	return n, nil
}
