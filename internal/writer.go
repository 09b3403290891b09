package internal

import (
	"fmt"
	"io"
	"os"
)

// Writer provides the output operations that library code needs.
// Callers control where output goes, rather than library code writing
// to global state like fmt.Print or log.Fatal.
type Writer interface {
	// Print writes a message to the output stream.
	Print(v ...interface{})

	// Printf writes a formatted message to the output stream.
	Printf(format string, v ...interface{})

	// Println writes a message with a newline to the output stream.
	Println(v ...interface{})

	// Warningf writes a formatted warning message to the error stream.
	Warningf(format string, v ...interface{})

	// Fatalf writes a formatted error message and signals a fatal error.
	// Implementation should handle cleanup and termination appropriately.
	Fatalf(format string, v ...interface{})
}

// StandardWriter implements Writer using standard output/error streams.
type StandardWriter struct {
	out io.Writer
	err io.Writer
}

// NewStandardWriter creates a Writer that outputs to stdout and stderr.
func NewStandardWriter() *StandardWriter {
	return &StandardWriter{
		out: os.Stdout,
		err: os.Stderr,
	}
}

// NewCustomWriter creates a Writer with custom output streams. The out
// stream is used for normal output, err for warnings and fatal errors.
func NewCustomWriter(out, err io.Writer) *StandardWriter {
	return &StandardWriter{
		out: out,
		err: err,
	}
}

// Print writes a message to the output stream without adding a newline.
func (w *StandardWriter) Print(v ...interface{}) {
	fmt.Fprint(w.out, v...)
}

// Printf writes a formatted message to the output stream.
func (w *StandardWriter) Printf(format string, v ...interface{}) {
	fmt.Fprintf(w.out, format, v...)
}

// Println writes a message with a newline to the output stream.
func (w *StandardWriter) Println(v ...interface{}) {
	fmt.Fprintln(w.out, v...)
}

// Warningf writes a formatted warning message to the error stream with
// a "Warning: " prefix.
func (w *StandardWriter) Warningf(format string, v ...interface{}) {
	fmt.Fprintf(w.err, "Warning: "+format+"\n", v...)
}

// Fatalf writes a formatted error message to the error stream and exits
// the program with status 1.
func (w *StandardWriter) Fatalf(format string, v ...interface{}) {
	fmt.Fprintf(w.err, format+"\n", v...)
	os.Exit(1)
}
