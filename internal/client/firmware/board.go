package firmware

import "sync"

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

type Notice struct {
	Kind Kind
	Text string
}

// Board holds the single current notice. Setting a notice replaces any
// previous one.
type Board struct {
	mu       sync.Mutex
	current  *Notice
	onChange func(n Notice, ok bool)
}

func NewBoard() *Board {
	return &Board{}
}

// OnChange registers fn to be called after every Set or Clear. ok is false
// when the board became empty.
func (b *Board) OnChange(fn func(n Notice, ok bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = fn
}

func (b *Board) Set(kind Kind, text string) {
	b.mu.Lock()
	n := Notice{Kind: kind, Text: text}
	b.current = &n
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(n, true)
	}
}

func (b *Board) Success(text string) { b.Set(KindSuccess, text) }
func (b *Board) Error(text string)   { b.Set(KindError, text) }
func (b *Board) Info(text string)    { b.Set(KindInfo, text) }

func (b *Board) Clear() {
	b.mu.Lock()
	b.current = nil
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(Notice{}, false)
	}
}

func (b *Board) Current() (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Notice{}, false
	}
	return *b.current, true
}
