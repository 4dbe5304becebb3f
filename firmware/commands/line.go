package commands

const (
	// LineCapacity is the size of the input buffer
	LineCapacity = 10

	// maxLineLength is the number of characters that completes a line without a newline. The
	// completing character is discarded, so at most maxLineLength-1 characters are dispatched
	maxLineLength = 7
)

// Line accumulates console input until a newline or maxLineLength characters have been received
type Line struct {
	buf [LineCapacity]byte
	n   int
}

// Add appends b and reports whether the line is complete. When it is, the character that completed
// the line is dropped and String returns the content to dispatch
func (l *Line) Add(b byte) bool {
	l.buf[l.n] = b
	l.n++

	if l.n == maxLineLength || b == '\n' {
		l.n--
		l.buf[l.n] = 0
		return true
	}
	return false
}

// String returns the buffered characters up to the first NUL
func (l *Line) String() string {
	for i := range l.n {
		if l.buf[i] == 0 {
			return string(l.buf[:i])
		}
	}
	return string(l.buf[:l.n])
}

// Reset clears the buffer
func (l *Line) Reset() {
	l.buf = [LineCapacity]byte{}
	l.n = 0
}
