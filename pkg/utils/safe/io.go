package safe

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/utils/logging"
)

// Close closes closer and logs a failure instead of returning it. A nil
// closer is ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logging.From(ctx).Error("Failed to close",
			"error", goerr.Wrap(err, "close failed"))
	}
}

// Copy streams src into dst. Errors are logged because the response
// headers are usually gone by the time they happen.
func Copy(ctx context.Context, dst io.Writer, src io.Reader) int64 {
	if dst == nil || src == nil {
		return 0
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		logging.From(ctx).Warn("Failed to copy",
			"error", goerr.Wrap(err, "copy failed", goerr.V("written", n)))
	}
	return n
}

// OpenFile opens a local input file given on the command line
func OpenFile(path string) (*os.File, error) {
	// #nosec G304 - path is an operator supplied CLI argument
	f, err := os.Open(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	return f, nil
}
