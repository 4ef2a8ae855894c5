package feed

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmcdole/gofeed"
)

// Writer validates a document and places it at its destination atomically.
type Writer struct {
	parser *gofeed.Parser
}

func NewWriter() *Writer {
	return &Writer{
		parser: gofeed.NewParser(),
	}
}

func (w *Writer) Run(dest string, doc *Document) error {
	if doc == nil || len(doc.XML) == 0 {
		return fmt.Errorf("%w: empty document", ErrWriteFailed)
	}

	parsed, err := w.parser.Parse(bytes.NewReader(doc.XML))
	if err != nil {
		return fmt.Errorf("%w: document does not parse: %v", ErrWriteFailed, err)
	}
	if len(parsed.Items) != doc.ItemsEmitted {
		return fmt.Errorf("%w: expected %d items, parsed %d", ErrWriteFailed, doc.ItemsEmitted, len(parsed.Items))
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	cleanup := func(cause error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, cause)
	}

	if _, err := tmp.Write(doc.XML); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	return nil
}

// OutputPath is where the feed document of a site is written.
func OutputPath(outputDir, siteName string) string {
	return filepath.Join(outputDir, siteName+".xml")
}
