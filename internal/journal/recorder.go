// Package journal keeps per-attempt transfer results, on disk as JSON lines
// and in memory for the end-of-run summary.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"bulktransfer-go/internal/payout"
)

// JSONLRecorder appends one JSON object per send attempt. Write failures are
// logged with the attempt they lost, since the journal itself cannot hold them.
type JSONLRecorder struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	enc     *json.Encoder
	log     zerolog.Logger
	dropped int
}

// OpenJSONL opens path in append mode, creating parent directories.
func OpenJSONL(path string, log zerolog.Logger) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &JSONLRecorder{path: path, file: file, enc: json.NewEncoder(file), log: log}, nil
}

func (r *JSONLRecorder) Record(result payout.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := errJournalClosed
	if r.file != nil {
		err = r.enc.Encode(result)
	}
	if err != nil {
		r.dropped++
		r.log.Error().Msgf("journal %s: lost %s result for %s (nonce %d, tx %s): %v",
			r.path, result.Status, result.Recipient, result.Nonce, result.TxHash, err)
	}
}

// Close reports how many results could not be written alongside any close error.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	if r.file != nil {
		err = r.file.Close()
		r.file = nil
	}
	if err == nil && r.dropped > 0 {
		err = fmt.Errorf("journal %s: %d results not written", r.path, r.dropped)
	}
	return err
}

var errJournalClosed = errors.New("journal closed")
