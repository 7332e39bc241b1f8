package workspace

import (
	"bytes"
	"io"
	"os"
)

// sniffLen is how much of a file IsBinary inspects.
const sniffLen = 8192

// IsBinary reports whether content looks like binary data: it contains a
// NUL byte, or more than 10% of the sampled bytes are control characters
// other than tab, newline and carriage return.
func IsBinary(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	sample := content
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}

	nonText := 0
	for _, b := range sample {
		if b < 32 && b != '\t' && b != '\n' && b != '\r' && b != '\f' {
			nonText++
		}
	}
	return float64(nonText)/float64(len(sample)) > 0.1
}

// IsBinaryFile sniffs the start of the file at path.
func IsBinaryFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return IsBinary(buf[:n]), nil
}
