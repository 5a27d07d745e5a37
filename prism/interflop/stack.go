package interflop

// Function is one frame of the instrumented call stack.
type Function struct {
	Name  string
	Depth int
}

// FunctionStack tracks the instrumented functions a thread is inside.
// It belongs to one thread.
type FunctionStack struct {
	frames []Function
}

// Push enters a function.
func (s *FunctionStack) Push(name string) Function {
	f := Function{Name: name, Depth: len(s.frames)}
	s.frames = append(s.frames, f)
	return f
}

// Pop leaves the innermost function. It reports false on an empty stack.
func (s *FunctionStack) Pop() (Function, bool) {
	if len(s.frames) == 0 {
		return Function{}, false
	}
	f := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return f, true
}

// Top returns the innermost function.
func (s *FunctionStack) Top() (Function, bool) {
	if len(s.frames) == 0 {
		return Function{}, false
	}
	return s.frames[len(s.frames)-1], true
}

func (s *FunctionStack) Depth() int {
	return len(s.frames)
}

// Names returns the function names from outermost to innermost.
func (s *FunctionStack) Names() []string {
	names := make([]string, len(s.frames))
	for i, f := range s.frames {
		names[i] = f.Name
	}
	return names
}
