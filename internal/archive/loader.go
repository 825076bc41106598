package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Export is one decoded conversation log ready for parsing. SourceFile
// is the provenance identifier carried through records and chunks.
type Export struct {
	SourceFile string
	Content    []byte
	HTML       bool
}

// ExtractionError marks an archive that could not yield any export:
// unreadable, corrupt, or containing no recognizable conversation file.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var mediaExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".mp4": true, ".mov": true, ".3gp": true,
	".opus": true, ".mp3": true, ".m4a": true, ".ogg": true,
	".vcf": true, ".webm": true,
}

// Load walks dir and decodes every recognized export: .zip bundles
// (one export per text entry inside), bare .txt/.html files, and
// AES-encrypted .enc bundles. Per-archive failures are collected and
// returned alongside the successes so the batch continues; a directory
// that yields no exports at all is an ExtractionError.
func Load(dir, decryptKey string) ([]Export, []*ExtractionError, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, &ExtractionError{Archive: dir, Err: err}
	}

	var exports []Export
	var failures []*ExtractionError

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		path := filepath.Join(dir, name)

		switch strings.ToLower(filepath.Ext(name)) {
		case ".zip":
			zipExports, zerr := loadZip(path)
			if zerr != nil {
				failures = append(failures, zerr)
				continue
			}
			exports = append(exports, zipExports...)

		case ".txt":
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				failures = append(failures, &ExtractionError{Archive: name, Err: rerr})
				continue
			}
			exports = append(exports, Export{SourceFile: name, Content: data})

		case ".html", ".htm":
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				failures = append(failures, &ExtractionError{Archive: name, Err: rerr})
				continue
			}
			exports = append(exports, Export{SourceFile: name, Content: data, HTML: true})

		case ".enc":
			if decryptKey == "" {
				failures = append(failures, &ExtractionError{Archive: name, Err: errors.New("decrypt key required for .enc bundle")})
				continue
			}
			data, rerr := os.ReadFile(path)
			if rerr != nil {
				failures = append(failures, &ExtractionError{Archive: name, Err: rerr})
				continue
			}
			plain, derr := Decrypt(data, decryptKey)
			if derr != nil {
				failures = append(failures, &ExtractionError{Archive: name, Err: derr})
				continue
			}
			exports = append(exports, Export{SourceFile: strings.TrimSuffix(name, ".enc"), Content: plain})

		default:
			if mediaExts[strings.ToLower(filepath.Ext(name))] {
				slog.Warn("skipping media file", "file", name)
			}
		}
	}

	if len(exports) == 0 {
		return nil, failures, &ExtractionError{Archive: dir, Err: errors.New("no conversation exports found")}
	}
	return exports, failures, nil
}

// loadZip extracts every text entry of one export bundle. WhatsApp's
// "Export chat" zip carries a _chat.txt plus the attached media files;
// media entries are skipped with a warning, not a failure.
func loadZip(path string) ([]Export, *ExtractionError) {
	name := filepath.Base(path)

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ExtractionError{Archive: name, Err: fmt.Errorf("open zip: %w", err)}
	}
	defer zr.Close()

	var exports []Export
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".txt" && ext != ".html" && ext != ".htm" {
			if mediaExts[ext] {
				slog.Warn("skipping media entry", "archive", name, "entry", f.Name)
			}
			continue
		}

		rc, oerr := f.Open()
		if oerr != nil {
			return nil, &ExtractionError{Archive: name, Err: fmt.Errorf("open entry %s: %w", f.Name, oerr)}
		}
		data, rerr := io.ReadAll(rc)
		rc.Close()
		if rerr != nil {
			return nil, &ExtractionError{Archive: name, Err: fmt.Errorf("read entry %s: %w", f.Name, rerr)}
		}

		exports = append(exports, Export{
			SourceFile: name + "/" + filepath.Base(f.Name),
			Content:    data,
			HTML:       ext != ".txt",
		})
	}

	if len(exports) == 0 {
		return nil, &ExtractionError{Archive: name, Err: errors.New("no conversation export in archive")}
	}
	return exports, nil
}
