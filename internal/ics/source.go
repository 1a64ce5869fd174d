package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"

	"simtime/internal/log"
)

// Source is an iCalendar file whose events become wake-ups.
type Source struct {
	// ID prefixes the IDs of the wake-up sources built from the file.
	ID   string
	Path string
}

// ReadResult is the outcome of reading one source.
type ReadResult struct {
	Source Source
	Body   []byte
	// Digest is the hex SHA-256 of Body, logged so reloads can be told apart.
	Digest string
}

// ReadAll reads every source. Failures are logged and returned in the error
// slice; the results hold only the sources that were read.
func ReadAll(ctx context.Context, sources []Source) ([]ReadResult, []error) {
	results := make([]ReadResult, 0, len(sources))
	var errs []error

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := ReadOne(src)
		if err != nil {
			errs = append(errs, err)
			log.Error("ics read failed", err, "id", src.ID, "path", src.Path)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// ReadOne reads a single source.
func ReadOne(src Source) (ReadResult, error) {
	if src.Path == "" {
		return ReadResult{}, errors.New("ics source path is empty")
	}
	body, err := os.ReadFile(src.Path)
	if err != nil {
		return ReadResult{}, err
	}
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:8])
	log.Debug("ics read", "id", src.ID, "path", src.Path, "bytes", len(body), "digest", digest)
	return ReadResult{Source: src, Body: body, Digest: digest}, nil
}
