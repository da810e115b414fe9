package firmware

import "sync"

// Intake holds the one candidate artifact. Picker and drop zone are two ways
// of feeding the same selection.
type Intake struct {
	mu         sync.Mutex
	selected   *Artifact
	pickerLast string
	dragActive bool
	locked     bool
	board      *Board
}

func NewIntake(board *Board) *Intake {
	return &Intake{board: board}
}

// SelectFromPicker handles a pick. Like a native file input, re-picking the
// value it already holds is not reported as a change until Remove clears it.
func (in *Intake) SelectFromPicker(a *Artifact) error {
	if a == nil {
		return nil
	}

	in.mu.Lock()
	if in.locked {
		in.mu.Unlock()
		in.board.Error(MsgUploadInFlight)
		return ErrUploadInFlight
	}
	if in.pickerLast == a.key() {
		in.mu.Unlock()
		return nil
	}
	in.pickerLast = a.key()
	in.mu.Unlock()

	return in.ValidateAndSet(a)
}

func (in *Intake) SelectFromDrop(a *Artifact) error {
	return in.ValidateAndSet(a)
}

// ValidateAndSet promotes a to the selection when its extension is allowed.
// A nil candidate is ignored. A rejected candidate leaves the previous
// selection in place, and so does any candidate offered while the selection
// is locked by an upload.
func (in *Intake) ValidateAndSet(a *Artifact) error {
	if a == nil {
		return nil
	}

	in.mu.Lock()
	if in.locked {
		in.mu.Unlock()
		in.board.Error(MsgUploadInFlight)
		return ErrUploadInFlight
	}
	if !IsAllowed(a.Name) {
		in.mu.Unlock()
		in.board.Error(MsgUnsupportedExtension)
		return ErrUnsupportedExtension
	}
	in.selected = a
	in.mu.Unlock()

	in.board.Clear()
	return nil
}

// Remove clears the selection and the picker's remembered value.
func (in *Intake) Remove() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.selected = nil
	in.pickerLast = ""
}

func (in *Intake) Selected() *Artifact {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.selected
}

// Locked reports whether an upload currently owns the selection.
func (in *Intake) Locked() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.locked
}

func (in *Intake) setLocked(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.locked = v
}

func (in *Intake) DragEnter() { in.setDrag(true) }
func (in *Intake) DragOver()  { in.setDrag(true) }
func (in *Intake) DragLeave() { in.setDrag(false) }

// Drop ends the drag and validates the dropped candidate.
func (in *Intake) Drop(a *Artifact) error {
	in.setDrag(false)
	return in.SelectFromDrop(a)
}

func (in *Intake) DragActive() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.dragActive
}

func (in *Intake) setDrag(v bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.dragActive = v
}
