package rules

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/harrison/nextaudit/internal/config"
	"github.com/harrison/nextaudit/internal/models"
	"golang.org/x/text/encoding/unicode"
)

// replacementChar substitutes invalid UTF-8 sequences during decoding
const replacementChar = "\uFFFD"

// Evaluate reads one candidate from fsys and applies the rule set to it.
//
// Evaluation never fails: a file that cannot be read, exceeds the hard size
// ceiling or looks binary yields an outcome with Skip set and no issues.
func Evaluate(fsys billy.Filesystem, cand models.FileCandidate, cfg config.ScanConfig) models.FileOutcome {
	outcome := models.FileOutcome{Path: cand.DisplayPath}

	info, err := fsys.Stat(cand.Path)
	if err != nil {
		return skip(outcome, models.SkipUnreadable, fmt.Errorf("stat: %w", err))
	}

	ceiling := cfg.HardCeilingBytes()
	if info.Size() > ceiling {
		return skip(outcome, models.SkipOversized, nil)
	}

	raw, err := readLimited(fsys, cand.Path, ceiling)
	if err != nil {
		return skip(outcome, models.SkipUnreadable, err)
	}
	// The file may have grown between stat and read
	if int64(len(raw)) > ceiling {
		return skip(outcome, models.SkipOversized, nil)
	}

	if bytes.IndexByte(raw, 0) >= 0 {
		return skip(outcome, models.SkipBinary, nil)
	}

	file := &File{
		DisplayPath: cand.DisplayPath,
		Ext:         Extension(cand.Path),
		Content:     decodeLossy(raw),
	}
	outcome.Issues = Apply(file, cfg)
	return outcome
}

// readLimited reads at most limit+1 bytes so an oversized file is detected
// without loading all of it.
func readLimited(fsys billy.Filesystem, path string, limit int64) ([]byte, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return data, nil
}

// decodeLossy decodes raw as UTF-8, writing one U+FFFD per invalid byte.
// The decoded length feeds the large-file rule, so invalid input grows
// the same way it does in other lossy decoders.
func decodeLossy(raw []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), replacementChar)
	}
	return string(decoded)
}

func skip(outcome models.FileOutcome, reason models.SkipReason, err error) models.FileOutcome {
	outcome.Skip = reason
	outcome.Err = err
	outcome.Issues = nil
	return outcome
}
