package csvparser

import (
	"context"
	"fmt"
	"os"

	"fjacquet/budget-csv/internal/logging"
	"fjacquet/budget-csv/internal/models"

	"golang.org/x/sync/errgroup"
)

// FileResult is the outcome of parsing one file. Err is set for fatal
// failures such as an unreadable file or unrecognized format.
type FileResult struct {
	Path   string
	Result *models.ParseResult
	Err    error
}

// ParseFiles parses independent files concurrently, at most concurrency at a
// time. Results keep the order of paths. A failing file does not stop the
// others; only cancellation of ctx is returned as an error.
func (p *Parser) ParseFiles(ctx context.Context, paths []string, delimiter rune, concurrency int) ([]FileResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]FileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := p.parseFile(gctx, path, delimiter)
			results[i] = FileResult{Path: path, Result: result, Err: err}
			if err != nil {
				p.logger.WithError(err).Warn("Failed to parse file", logging.F(logging.FieldFile, path))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Parser) parseFile(ctx context.Context, path string, delimiter rune) (*models.ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening CSV file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.WithError(cerr).Warn("Failed to close file", logging.F(logging.FieldFile, path))
		}
	}()
	return p.ParseReader(ctx, f, delimiter)
}
