package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	"github.com/vanderheijden86/treegrid/pkg/model"
)

// maxParallelLoads bounds how many files LoadAll reads at once.
const maxParallelLoads = 4

// LoadAll reads every path concurrently and concatenates their roots in the
// order the paths were given. The first failure cancels the rest.
func LoadAll(ctx context.Context, paths []string) ([]*model.Row, error) {
	results := make([][]*model.Row, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := LoadRowsFromFileContext(gctx, path)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var roots []*model.Row
	for _, rows := range results {
		roots = append(roots, rows...)
	}
	return roots, nil
}

// Fingerprint returns a content hash over the given files. Paths are hashed
// in sorted order so the result does not depend on argument order.
func Fingerprint(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	hasher := blake3.New(32, nil)
	for _, path := range sorted {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
		io.WriteString(hasher, path)
		hasher.Write([]byte{0})
		_, err = io.Copy(hasher, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("fingerprint %s: %w", path, err)
		}
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
