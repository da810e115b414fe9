package firmware

import (
	"math"
	"sync"
)

// Progress is the 0..100 percentage of the current transfer. Within one
// transfer it never decreases.
type Progress struct {
	mu       sync.Mutex
	value    int
	onChange func(int)
}

func NewProgress() *Progress {
	return &Progress{}
}

func (p *Progress) OnChange(fn func(int)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Observe is a netx.ProgressFunc: it recomputes the percentage from a byte
// count and publishes it.
func (p *Progress) Observe(sent, total int64) {
	if total <= 0 {
		return
	}
	pct := int(math.Round(float64(sent) * 100 / float64(total)))
	pct = min(max(pct, 0), 100)

	p.mu.Lock()
	if pct < p.value {
		pct = p.value
	}
	p.value = pct
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(pct)
	}
}

func (p *Progress) Reset() {
	p.mu.Lock()
	p.value = 0
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(0)
	}
}

func (p *Progress) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}
