package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// File is one archived asset file.
type File struct {
	Name string
	Data []byte
}

// Archive reads and writes the asset_files table. It satisfies
// asset.Source, so the store can load straight from the database.
type Archive struct {
	db *DB
}

func NewArchive(db *DB) *Archive {
	return &Archive{db: db}
}

func notFound(name string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("archive %s: %w", name, fs.ErrNotExist)
	}
	return fmt.Errorf("archive %s: %w", name, err)
}

func (a *Archive) ReadFile(name string) ([]byte, error) {
	ctx, cancel := a.db.Query()
	defer cancel()
	var data []byte
	err := a.db.Pool.QueryRow(ctx,
		`SELECT data FROM asset_files WHERE name = $1`, name,
	).Scan(&data)
	if err != nil {
		return nil, notFound(name, err)
	}
	return data, nil
}

func (a *Archive) ModTime(name string) (time.Time, error) {
	ctx, cancel := a.db.Query()
	defer cancel()
	var mod time.Time
	err := a.db.Pool.QueryRow(ctx,
		`SELECT updated_at FROM asset_files WHERE name = $1`, name,
	).Scan(&mod)
	if err != nil {
		return time.Time{}, notFound(name, err)
	}
	return mod, nil
}

// Put stores one file. Rewriting identical content leaves updated_at alone
// so pollers do not report a change.
func (a *Archive) Put(ctx context.Context, f File) error {
	return a.PutBatch(ctx, []File{f})
}

// PutBatch stores files in a single transaction and returns on the first
// failure with nothing written.
func (a *Archive) PutBatch(ctx context.Context, files []File) error {
	tx, err := a.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("archive begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range files {
		sum := blake2b.Sum256(f.Data)
		if _, err := tx.Exec(ctx,
			`INSERT INTO asset_files (name, data, digest, size, updated_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (name) DO UPDATE
			 SET data = EXCLUDED.data, digest = EXCLUDED.digest,
			     size = EXCLUDED.size, updated_at = now()
			 WHERE asset_files.digest <> EXCLUDED.digest`,
			f.Name, f.Data, sum[:], len(f.Data),
		); err != nil {
			return fmt.Errorf("archive put %s: %w", f.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("archive commit: %w", err)
	}
	a.db.log.Debug("archive batch stored", zap.Int("files", len(files)))
	return nil
}

func (a *Archive) Delete(ctx context.Context, name string) error {
	_, err := a.db.Pool.Exec(ctx, `DELETE FROM asset_files WHERE name = $1`, name)
	return err
}

// Entry describes an archived file without its content.
type Entry struct {
	Name      string
	Size      int64
	UpdatedAt time.Time
}

// List returns every archived file ordered by name.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	rows, err := a.db.Pool.Query(ctx,
		`SELECT name, size, updated_at FROM asset_files ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Size, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
