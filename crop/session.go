package crop

import (
	"fmt"
	"sync"

	"github.com/imgcrop/model"
)

// State of a crop session.
type State int

const (
	NoSelection State = iota
	Editing
	Saving
)

func (s State) String() string {
	switch s {
	case NoSelection:
		return "no-selection"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session holds the crop rectangle and aspect ratio of the image being edited.
// It is safe for concurrent use; a save started while another is in flight is rejected.
type Session struct {
	mu    sync.Mutex
	state State
	tag   model.AspectRatio
	size  Size
	rect  Rect
}

// NewSession returns an empty session using tag as the initial aspect ratio.
func NewSession(tag model.AspectRatio) *Session {
	return &Session{tag: tag}
}

// Load starts editing an image of the given display size with the default selection.
func (s *Session) Load(size Size) error {
	if err := size.validate("image"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Saving {
		return model.ErrSaveInProgress
	}
	s.size = size
	s.rect = DefaultRect(s.tag)
	s.state = Editing
	return nil
}

// SetAspectRatio switches the constraint. While editing, the selection is
// replaced by the new tag's default rather than reprojected.
func (s *Session) SetAspectRatio(tag model.AspectRatio) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Saving {
		return model.ErrSaveInProgress
	}
	s.tag = tag
	if s.state == Editing {
		s.rect = DefaultRect(tag)
	}
	return nil
}

// Adjust applies a user edit to the selection.
func (s *Session) Adjust(r Rect) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return fmt.Errorf("adjust in state %s", s.state)
	}
	c, err := Constrain(r, s.tag, s.size)
	if err != nil {
		return err
	}
	s.rect = c
	return nil
}

// BeginSave freezes the selection and returns it.
func (s *Session) BeginSave() (Rect, model.AspectRatio, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Saving:
		return Rect{}, "", model.ErrSaveInProgress
	case NoSelection:
		return Rect{}, "", fmt.Errorf("nothing to save")
	}
	s.state = Saving
	return s.rect, s.tag, nil
}

// Fail returns a saving session to editing, keeping image and selection.
func (s *Session) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Saving {
		s.state = Editing
	}
}

// Reset drops the image and selection.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = NoSelection
	s.rect = Rect{}
	s.size = Size{}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Rect() Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rect
}

func (s *Session) AspectRatio() model.AspectRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tag
}

// Size returns the display size of the loaded image.
func (s *Session) Size() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}
