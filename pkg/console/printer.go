// Package console prints the human readable diagnostics a serial
// monitor would show. Lines have no schema.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Printer writes whole lines to W. It is safe for concurrent use.
type Printer struct {
	W io.Writer

	lock sync.Mutex
}

// Stdout is the Printer used by the programs.
var Stdout = New(os.Stdout)

// New creates a Printer.
func New(w io.Writer) *Printer {
	return &Printer{W: w}
}

// Println prints operands followed by a newline.
func (p *Printer) Println(a ...interface{}) {
	p.lock.Lock()
	defer p.lock.Unlock()
	fmt.Fprintln(p.W, a...)
}

// Printf prints a formatted line; a newline is added if missing.
func (p *Printer) Printf(format string, a ...interface{}) {
	line := fmt.Sprintf(format, a...)
	if len(line) == 0 || line[len(line)-1] != '\n' {
		line += "\n"
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	io.WriteString(p.W, line)
}
