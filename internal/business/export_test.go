package business

import (
	"io"
	"testing"
)

// RedirectIO replaces stdin and stdout for the duration of the test.
func RedirectIO(t *testing.T, in io.Reader, out io.Writer) {
	t.Helper()

	prevIn, prevOut := stdin, stdout
	stdin, stdout = in, out
	t.Cleanup(func() { stdin, stdout = prevIn, prevOut })
}
