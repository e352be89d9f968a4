package batch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJournalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if j.Processed(5) {
		t.Error("fresh journal should be empty")
	}
	if err := j.MarkProcessed(5); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(Result{RunID: "r1", PostID: 5, Success: true, ProcessedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}

	j2, err := OpenJournal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !j2.Processed(5) {
		t.Error("processed set did not persist")
	}
	results := j2.Results()
	if len(results) != 1 || results[0].PostID != 5 {
		t.Errorf("results = %+v", results)
	}
}

func TestJournalAppendAccumulates(t *testing.T) {
	j, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := j.Append(Result{RunID: "r", PostID: i}); err != nil {
			t.Fatal(err)
		}
	}
	if len(j.Results()) != 3 {
		t.Errorf("results = %d, want 3", len(j.Results()))
	}
}

func TestJournalReset(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := j.MarkProcessed(1); err != nil {
		t.Fatal(err)
	}
	if err := j.Append(Result{RunID: "r", PostID: 1, Success: true}); err != nil {
		t.Fatal(err)
	}
	if err := j.Reset(); err != nil {
		t.Fatal(err)
	}
	if j.Processed(1) {
		t.Error("reset kept processed entry")
	}
	// History survives a reset.
	if len(j.Results()) != 1 {
		t.Error("reset dropped the results log")
	}
}

func TestJournalCorruptFilesSurface(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, processedFile), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenJournal(dir); err == nil {
		t.Error("expected error for corrupt processed file")
	}
}
