package trails

// Stack is the running per-pixel maximum over every frame added to it.
// It takes its dimensions from the first frame.
type Stack struct {
	acc    *Frame
	frames int
}

// Add folds f into the accumulator: acc = max(acc, f) for every channel.
func (s *Stack) Add(path string, f *Frame) error {
	if s.acc == nil {
		s.acc = NewFrame(f.Width, f.Height)
	}
	if err := s.Check(path, f); err != nil {
		return err
	}
	acc := s.acc.Pix
	for i, v := range f.Pix {
		if v > acc[i] {
			acc[i] = v
		}
	}
	s.frames++
	return nil
}

// Check reports whether f has the accumulator's dimensions.
// Before the first Add every frame passes.
func (s *Stack) Check(path string, f *Frame) error {
	if s.acc == nil || f.Size() == s.acc.Size() {
		return nil
	}
	return &DimensionMismatchError{Path: path, Expected: s.acc.Size(), Got: f.Size()}
}

// Frame returns the accumulator. It is nil until the first Add.
func (s *Stack) Frame() *Frame { return s.acc }

// Count returns how many frames were folded in.
func (s *Stack) Count() int { return s.frames }
