package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Source describes a tabular file to stream.
type Source struct {
	Path  string
	Sheet int // xlsx only
}

// Stream opens src and dispatches on its extension. The first row sent is
// the header.
func Stream(ctx context.Context, src Source) (<-chan Row, <-chan error, error) {
	switch ext := strings.ToLower(filepath.Ext(src.Path)); ext {
	case ".csv", ".txt":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, nil, eris.Wrapf(err, "fetcher: open %s", src.Path)
		}
		rows, errs := StreamCSV(ctx, f, CSVOptions{LazyQuotes: true})
		return rows, closeWhenDone(f, errs), nil
	case ".xlsx":
		rows, errs := StreamXLSX(ctx, src.Path, XLSXOptions{SheetIndex: src.Sheet})
		return rows, errs, nil
	default:
		return nil, nil, eris.Errorf("fetcher: unsupported file type %q (want .csv or .xlsx)", ext)
	}
}

// closeWhenDone closes c once the producer has finished, forwarding errs.
func closeWhenDone(c interface{ Close() error }, errs <-chan error) <-chan error {
	out := make(chan error, 1)
	go func() {
		defer close(out)
		defer c.Close() //nolint:errcheck
		for err := range errs {
			out <- err
		}
	}()
	return out
}
