package tricycle

import (
	"fmt"
	"testing"
)

func benchScheduler(b *testing.B) *Scheduler {
	b.Helper()
	threads := map[string][]Stitch{}
	for _, tid := range []string{"thread-A", "thread-B", "thread-C"} {
		list := make([]Stitch, 0, 30)
		for i := 0; i < 30; i++ {
			list = append(list, NewStitch(fmt.Sprintf("%s-%02d", tid, i+1), tid, i))
		}
		threads[tid] = list
	}
	s, err := New(Config{UserID: "bench", Threads: threads})
	if err != nil {
		b.Fatal(err)
	}
	return s
}

// BenchmarkRotate measures one rotation including the integrity check.
func BenchmarkRotate(b *testing.B) {
	s := benchScheduler(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Rotate()
	}
}

// BenchmarkComplete measures the full completion path: ladder advance,
// reinsertion shift, and the integrity check.
func BenchmarkComplete(b *testing.B) {
	s := benchScheduler(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		st := s.CurrentStitch()
		if _, err := s.Complete(st.ThreadID, st.ID, 10, 10); err != nil {
			b.Fatal(err)
		}
		s.Rotate()
	}
}

// BenchmarkSnapshot measures building the serializable state copy.
func BenchmarkSnapshot(b *testing.B) {
	s := benchScheduler(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Snapshot()
	}
}
