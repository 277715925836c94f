package screen

// Teletype prints a single character at the cursor and advances it, like
// int 10h AH=0Eh does.
type Teletype interface {
	PutChar(c byte)
}

// Console is an io.Writer on top of a Teletype. Line feeds are preceded by a
// carriage return since the teletype service does not do that on its own.
type Console struct {
	tty Teletype
}

// NewConsole returns a Console writing to tty.
func NewConsole(tty Teletype) *Console {
	return &Console{tty: tty}
}

// Write prints p and never fails.
func (c *Console) Write(p []byte) (int, error) {
	for _, ch := range p {
		if ch == '\n' {
			c.tty.PutChar('\r')
		}
		c.tty.PutChar(ch)
	}
	return len(p), nil
}
