package asserts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	json "github.com/goccy/go-json"
	"github.com/pmezard/go-difflib/difflib"
)

const snapshotFileExt = ".snapshot"

type snapshotConfig struct {
	fs      billy.Filesystem
	path    string
	encoder func(any) (string, error)
}

// SnapshotOption configures Snapshot.
type SnapshotOption func(*snapshotConfig)

// WithSnapshotFS stores snapshots on the given filesystem instead of the
// OS one.
func WithSnapshotFS(fs billy.Filesystem) SnapshotOption {
	return func(cfg *snapshotConfig) { cfg.fs = fs }
}

// WithSnapshotPath overrides the snapshot directory, which defaults to a
// `snapshots` directory next to the calling file.
func WithSnapshotPath(path string) SnapshotOption {
	return func(cfg *snapshotConfig) { cfg.path = path }
}

// WithEncoder replaces the representation stored and compared, which
// defaults to the same safe representation the values section uses.
func WithEncoder(encoder func(any) (string, error)) SnapshotOption {
	return func(cfg *snapshotConfig) { cfg.encoder = encoder }
}

// WithJSONEncoder stores snapshots as indented JSON.
func WithJSONEncoder() SnapshotOption {
	return WithEncoder(func(v any) (string, error) {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
}

// Snapshot compares the representation of value against a stored snapshot
// named `<calling file>.<id>.snapshot`. The first run stores the
// representation and passes; later runs fail with a *SnapshotError when
// the representation no longer matches.
func Snapshot(value any, id string, opts ...SnapshotOption) error {
	cfg := snapshotConfig{
		encoder: func(v any) (string, error) { return safeRepr(v), nil },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New(string(filepath.Separator))
	}

	encoded, err := cfg.encoder(value)
	if err != nil {
		return fmt.Errorf("failed to get representation of the snapshot value: %w", err)
	}

	frame, ok := captureFrame(2)
	if !ok {
		return fmt.Errorf("failed to determine the calling file")
	}

	dir := cfg.path
	if dir == "" {
		dir = filepath.Join(filepath.Dir(frame.file), "snapshots")
	}
	name := filepath.Base(frame.file) + "." + strings.ToLower(id) + snapshotFileExt
	filename := filepath.Join(dir, name)

	if _, err := cfg.fs.Stat(filename); err == nil {
		stored, err := util.ReadFile(cfg.fs, filename)
		if err != nil {
			return fmt.Errorf("failed to read snapshot %s: %w", filename, err)
		}
		if string(stored) != encoded {
			return &SnapshotError{
				Filename:      filename,
				SnapshotValue: string(stored),
				ActualValue:   encoded,
			}
		}
		return nil
	}

	if err := cfg.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory %s: %w", dir, err)
	}
	if err := util.WriteFile(cfg.fs, filename, []byte(encoded), os.FileMode(0o644)); err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", filename, err)
	}
	logger.Debug().Str("file", filename).Msg("stored new snapshot")
	return nil
}

// SnapshotError reports a mismatch between a stored snapshot and the
// current representation of the value.
type SnapshotError struct {
	Filename      string
	SnapshotValue string
	ActualValue   string
}

func (e *SnapshotError) Error() string {
	var b strings.Builder
	b.WriteString("snapshot mismatch\nfilename=")
	b.WriteString(e.Filename)
	b.WriteString("\nsnapshot_value=\"\"\"\n")
	b.WriteString(indentLines(e.SnapshotValue, "    "))
	b.WriteString("\n\"\"\"\nactual_value=\"\"\"\n")
	b.WriteString(indentLines(e.ActualValue, "    "))
	b.WriteString("\n\"\"\"\ndiff=\"\"\"\n")
	b.WriteString(indentLines(e.diff(), "    "))
	b.WriteString("\n\"\"\"")
	return b.String()
}

func (e *SnapshotError) diff() string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(e.SnapshotValue),
		B:        difflib.SplitLines(e.ActualValue),
		FromFile: e.Filename,
		ToFile:   e.Filename,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimRight(text, "\n")
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
