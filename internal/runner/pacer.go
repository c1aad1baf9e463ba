package runner

import (
	"time"
)

const FrameDuration = time.Second / FramesPerSecond

// Pacer holds a frontend to the 60 Hz frame cadence.
type Pacer struct {
	next  time.Time
	now   func() time.Time
	sleep func(time.Duration)
}

func NewPacer() *Pacer {
	return &Pacer{
		now:   time.Now,
		sleep: time.Sleep,
	}
}

// Wait sleeps until the current frame is over. A frame that overran
// restarts the schedule instead of trying to catch up.
func (p *Pacer) Wait() {
	now := p.now()
	if p.next.IsZero() || now.After(p.next) {
		p.next = now.Add(FrameDuration)
		return
	}

	p.sleep(p.next.Sub(now))
	p.next = p.next.Add(FrameDuration)
}
