// Package batch pages through a site's posts and renders each one, keeping
// enough state on disk that an interrupted run picks up where it stopped.
package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// State filenames under the journal directory.
const (
	processedFile = "processed_posts.json"
	resultsFile   = "processing_results.json"
)

// Result records the outcome of processing one post, appended to the
// results file for every attempt, failed or not.
type Result struct {
	RunID        string    `json:"run_id"`
	PostID       int       `json:"post_id"`
	Title        string    `json:"title"`
	Date         string    `json:"date"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	PDFPath      string    `json:"pdf_path,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// Journal persists which posts have been rendered and what happened to each
// attempt. Post IDs enter the processed set only after a successful render,
// so failed posts are retried on the next run.
type Journal struct {
	dir       string
	processed map[int]bool
	results   []Result
}

// OpenJournal loads or initializes the journal state in dir.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	j := &Journal{dir: dir, processed: make(map[int]bool)}

	var ids []int
	if err := readJSON(filepath.Join(dir, processedFile), &ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		j.processed[id] = true
	}
	if err := readJSON(filepath.Join(dir, resultsFile), &j.results); err != nil {
		return nil, err
	}
	return j, nil
}

// Processed reports whether id completed successfully in an earlier run.
func (j *Journal) Processed(id int) bool { return j.processed[id] }

// MarkProcessed records a successful render and persists the set.
func (j *Journal) MarkProcessed(id int) error {
	j.processed[id] = true
	ids := make([]int, 0, len(j.processed))
	for pid := range j.processed {
		ids = append(ids, pid)
	}
	sort.Ints(ids)
	return writeJSON(filepath.Join(j.dir, processedFile), ids)
}

// Append adds a result to the log and persists it.
func (j *Journal) Append(r Result) error {
	j.results = append(j.results, r)
	return writeJSON(filepath.Join(j.dir, resultsFile), j.results)
}

// Results returns all recorded results, oldest first.
func (j *Journal) Results() []Result { return j.results }

// Reset forgets the processed set so every post is re-rendered; the result
// log is kept as history.
func (j *Journal) Reset() error {
	j.processed = make(map[int]bool)
	return writeJSON(filepath.Join(j.dir, processedFile), []int{})
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
