package trails

import (
	"log/slog"
	"sync"
)

// LiveStack grows a star trail one file at a time while a capture is still running.
// Each accepted frame rewrites the final still, and with KeepIntermediate also
// appends the next numbered still.
type LiveStack struct {
	Decoder          Decoder
	Renderer         *Renderer
	KeepIntermediate bool
	Log              *slog.Logger

	mu    sync.Mutex
	stack Stack
	seen  map[string]bool
	next  int
}

// Add decodes path and folds it in. A file already merged is ignored, so repeated
// write notifications for one frame produce one sequence entry.
func (l *LiveStack) Add(path string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	if l.seen[path] {
		return false, nil
	}
	dec := l.Decoder
	if dec == nil {
		dec = NativeDecoder{}
	}
	frame, err := dec.Decode(path)
	if err != nil {
		return false, err
	}
	if err := l.stack.Add(path, frame); err != nil {
		return false, err
	}
	l.seen[path] = true

	if l.KeepIntermediate {
		if _, err := l.Renderer.SaveStill(l.stack.Frame(), SequenceLabel(l.next)); err != nil {
			return true, err
		}
		l.next++
	}
	if _, err := l.Renderer.SaveStill(l.stack.Frame(), FinalLabel); err != nil {
		return true, err
	}
	if l.Log != nil {
		l.Log.Info("live frame merged", "path", path, "frames", l.stack.Count())
	}
	return true, nil
}

// Count returns the number of merged frames.
func (l *LiveStack) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stack.Count()
}
