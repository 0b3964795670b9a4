package paper

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/DorukKorkmaz/crypto-backtest/internal/execution"
)

// FillLine is one JSONL record: the fill plus the run it belongs to.
type FillLine struct {
	Run string `json:"run,omitempty"`
	execution.Fill
}

// JSONLRecorder appends fills as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	err  error
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Record writes a fill without a run label.
func (r *JSONLRecorder) Record(fill execution.Fill) { r.write(FillLine{Fill: fill}) }

// For returns a recorder that stamps every fill with run, e.g. "ETHBTC ma1=5 ma2=8".
func (r *JSONLRecorder) For(run string) FillRecorder { return runRecorder{r: r, run: run} }

func (r *JSONLRecorder) write(line FillLine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil || r.err != nil {
		return
	}
	r.err = r.enc.Encode(line)
}

// Err returns the first write error.
func (r *JSONLRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return r.err
	}
	err := r.file.Close()
	r.file = nil
	if r.err != nil {
		return r.err
	}
	return err
}

type runRecorder struct {
	r   *JSONLRecorder
	run string
}

func (rr runRecorder) Record(fill execution.Fill) { rr.r.write(FillLine{Run: rr.run, Fill: fill}) }
