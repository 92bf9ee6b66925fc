package conf

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// NewEnvExpandedReader expands ${VAR} and ${VAR:-default} references
// line by line while the YAML decoder reads.
func NewEnvExpandedReader(origin io.Reader) io.Reader {
	return &envExpandedReader{
		bufio.NewReader(origin),
		make([]byte, 0),
	}
}

type envExpandedReader struct {
	origin         *bufio.Reader
	remainingBytes []byte
}

func (r *envExpandedReader) Read(p []byte) (n int, err error) {
	for len(r.remainingBytes) <= len(p) {
		var line string
		line, err = r.origin.ReadString('\n')
		if err != nil && err != io.EOF {
			return 0, err
		}

		out := os.Expand(line, lookup)
		r.remainingBytes = append(r.remainingBytes, []byte(out)...)

		if err == io.EOF {
			break
		}
	}

	n = copy(p, r.remainingBytes)
	r.remainingBytes = r.remainingBytes[n:]

	if n == 0 && err == io.EOF {
		return 0, io.EOF
	}

	return n, nil
}

func lookup(key string) string {
	name, fallback, hasDefault := strings.Cut(key, ":-")
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}

	if hasDefault {
		return fallback
	}

	return ""
}
