package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"poolsim/internal/model"
)

// maxLineSize bounds one JSONL record; full tick lists of busy pools run to megabytes.
const maxLineSize = 64 << 20

// JsonlStorage appends pool snapshots to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// PutSnapshots appends a batch of snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshots(snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, snap := range snapshots {
		if err := encoder.Encode(snap); err != nil {
			return fmt.Errorf("write snapshot %s: %w", snap.Address, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// ReadSnapshots loads every snapshot in a JSONL file. Later lines for the same
// pool replace earlier ones.
func ReadSnapshots(path string) ([]model.PoolSnapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshots: %w", err)
	}
	defer file.Close()
	return DecodeSnapshots(file)
}

// DecodeSnapshots reads JSONL snapshots from r, keeping the last one per pool
// in first-seen order.
func DecodeSnapshots(r io.Reader) ([]model.PoolSnapshot, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []model.PoolSnapshot
	index := make(map[string]int)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var snap model.PoolSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("decode snapshot line %d: %w", line, err)
		}
		key := strings.ToLower(snap.Address)
		if i, ok := index[key]; ok && key != "" {
			out[i] = snap
			continue
		}
		index[key] = len(out)
		out = append(out, snap)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}
	return out, nil
}
