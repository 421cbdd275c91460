package cli

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/rohankatakam/histblame/internal/ingestion"
)

// TerminalProgress reports progress on f when it is a terminal and returns
// nil otherwise, so redirected output stays clean
func TerminalProgress(f *os.File) ingestion.ProgressFunc {
	if !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return WriterProgress(f)
}

// WriterProgress rewrites a single status line on w
func WriterProgress(w io.Writer) ingestion.ProgressFunc {
	return func(index, total int, filePath string) {
		fmt.Fprintf(w, "\r\033[K[%d/%d] %s", index, total, filePath)
		if index == total {
			fmt.Fprintln(w)
		}
	}
}
