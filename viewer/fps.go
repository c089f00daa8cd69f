package viewer

import "time"

// fpsMeter counts ticks over windows of at least one second.
type fpsMeter struct {
	start  time.Time
	frames int
	rate   float64
}

func (m *fpsMeter) tick(now time.Time) {
	if m.start.IsZero() {
		m.start = now
		return
	}

	m.frames++
	if elapsed := now.Sub(m.start); elapsed >= time.Second {
		m.rate = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
}

func (m *fpsMeter) Rate() float64 {
	return m.rate
}
