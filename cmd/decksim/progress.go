package main

import (
	"fmt"
	"sync"
	"time"
)

// dotProgress prints a fixed-width row of dots as iterations complete. It is
// called from several workers at once.
type dotProgress struct {
	mu          sync.Mutex
	total       int
	dotsPrinted int
	startTime   time.Time
}

const progressDots = 40

func newDotProgress(total int) *dotProgress {
	return &dotProgress{
		total:     total,
		startTime: time.Now(),
	}
}

// Update prints any dots owed for the completed count.
func (p *dotProgress) Update(completed, successes int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pct := completed * 100 / p.total
	if pct > 100 {
		pct = 100
	}
	targetDots := pct * progressDots / 100
	for i := p.dotsPrinted; i < targetDots; i++ {
		fmt.Print(".")
		p.dotsPrinted++
	}
}

// Finish completes the dot row and prints the timing line.
func (p *dotProgress) Finish(completed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if completed >= p.total {
		for i := p.dotsPrinted; i < progressDots; i++ {
			fmt.Print(".")
			p.dotsPrinted++
		}
	}
	duration := time.Since(p.startTime)
	perSec := float64(completed) / duration.Seconds()
	fmt.Printf(" %d iterations in %.1fs (%.0f/sec)\n", completed, duration.Seconds(), perSec)
}
