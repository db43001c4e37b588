package evidence

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestStore_AppendAssignsContiguousSeq(t *testing.T) {
	s := NewStore(0)

	r1 := s.Append("systemctl_status", time.Now(), time.Now(), "systemctl status", 0, []byte("active"))
	r2 := s.Append("ss_lntup", time.Now(), time.Now(), "ss -lntup", 0, []byte("LISTEN"))

	if r1.Seq != 1 || r2.Seq != 2 {
		t.Fatalf("expected contiguous seq 1,2, got %d,%d", r1.Seq, r2.Seq)
	}
	if r1.EvidenceRef == r2.EvidenceRef {
		t.Fatalf("expected distinct evidence refs, got %q twice", r1.EvidenceRef)
	}
}

func TestStore_AppendTruncatesOversizedContent(t *testing.T) {
	s := NewStore(16)

	content := []byte("0123456789abcdefGHIJ")
	rec := s.Append("big_output", time.Now(), time.Now(), "cat bigfile", 0, content)

	stored, ok := s.Evidence(rec.EvidenceRef)
	if !ok {
		t.Fatalf("expected evidence for ref %q", rec.EvidenceRef)
	}
	if !strings.HasPrefix(string(stored), "0123456789abcdef") {
		t.Fatalf("expected truncated content to keep first 16 bytes, got %q", stored)
	}
	if !strings.Contains(string(stored), "[TRUNCATED after 16 bytes]") {
		t.Fatalf("expected truncation footer, got %q", stored)
	}
}

func TestStore_AppendNeverDropsFailedCommand(t *testing.T) {
	s := NewStore(0)

	rec := s.Append("timed_out_cmd", time.Now(), time.Now(), "slow-command", -1, nil)

	if rec.ExitCode != -1 {
		t.Fatalf("expected exit code -1 preserved, got %d", rec.ExitCode)
	}
	if _, ok := s.Evidence(rec.EvidenceRef); !ok {
		t.Fatalf("expected an evidence entry to exist even for a failed command")
	}
}

func TestStore_ConcurrentAppendsProduceUniqueSeq(t *testing.T) {
	s := NewStore(0)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			s.Append("cmd", time.Now(), time.Now(), "cmd", 0, []byte("ok"))
		}(i)
	}
	wg.Wait()

	records := s.Records()
	if len(records) != workers {
		t.Fatalf("expected %d records, got %d", workers, len(records))
	}

	seen := make(map[uint64]bool)
	for _, r := range records {
		if seen[r.Seq] {
			t.Fatalf("duplicate seq %d", r.Seq)
		}
		seen[r.Seq] = true
	}
	for i := uint64(1); i <= workers; i++ {
		if !seen[i] {
			t.Fatalf("missing seq %d, gap indicates corruption", i)
		}
	}
}

func TestStore_RecordsReturnsCopy(t *testing.T) {
	s := NewStore(0)
	s.Append("cmd", time.Now(), time.Now(), "cmd", 0, []byte("ok"))

	records := s.Records()
	records[0].Command = "mutated"

	fresh := s.Records()
	if fresh[0].Command == "mutated" {
		t.Fatal("expected Records() to return an independent copy")
	}
}

func TestStore_NextSeq(t *testing.T) {
	s := NewStore(0)
	if got := s.NextSeq(); got != 1 {
		t.Fatalf("NextSeq() = %d, want 1", got)
	}
	s.Append("cmd", time.Now(), time.Now(), "cmd", 0, []byte("ok"))
	if got := s.NextSeq(); got != 2 {
		t.Fatalf("NextSeq() = %d, want 2", got)
	}
}
