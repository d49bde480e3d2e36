package reactive

// TurnScheduler queues flush requests until the host's turn ends and it
// calls RunPending. It stands in for a run-at-end-of-turn task queue.
type TurnScheduler struct {
	queue []func()
}

func (s *TurnScheduler) Schedule(flush func()) {
	s.queue = append(s.queue, flush)
}

// Len is the number of queued flushes.
func (s *TurnScheduler) Len() int {
	return len(s.queue)
}

// RunPending runs every queued flush, including ones queued while running,
// and returns how many ran.
func (s *TurnScheduler) RunPending() int {
	n := 0
	for len(s.queue) > 0 {
		flush := s.queue[0]
		s.queue = s.queue[1:]
		flush()
		n++
	}
	return n
}
