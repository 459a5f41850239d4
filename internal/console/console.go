// Package console implements the updater's blocking acknowledgements. The
// updater has no window; when something goes wrong it prints a message and
// waits for a key press so the console does not close before the user has
// read it.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// WaitForKey prints prompt to out and blocks until the user presses a key.
// On a terminal a single key press is enough; otherwise a line (or EOF) is
// consumed from in.
func WaitForKey(in io.Reader, out io.Writer, prompt string) error {
	if prompt != "" {
		fmt.Fprint(out, prompt)
	}

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		err := readRawKey(f)
		fmt.Fprintln(out)
		return err
	}

	_, err := bufio.NewReader(in).ReadBytes('\n')
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func readRawKey(f *os.File) error {
	fd := int(f.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		// Not fatal: fall back to line input.
		_, err = bufio.NewReader(f).ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer term.Restore(fd, state)

	var b [1]byte
	_, err = f.Read(b[:])
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
