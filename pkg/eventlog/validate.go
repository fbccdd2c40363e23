package eventlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ValidationError locates the first violation found in an output file.
type ValidationError struct {
	Line   int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Line == 0 {
		return e.Reason
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ValidateFIFO checks a compat-format output: broadcasts must be
// numbered 1, 2, 3, … and the deliveries of every owner must be
// numbered 1, 2, 3, … as well. When messages is positive every owner
// seen in the file must have delivered exactly that many messages.
func ValidateFIFO(r io.Reader, messages int) error {
	var (
		nextBroadcast = 1
		next          = make(map[uint64]int)
	)

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			continue
		}

		switch tokens[0] {
		case "b":
			if len(tokens) != 2 {
				return &ValidationError{line, "malformed broadcast line"}
			}
			msg, err := strconv.Atoi(tokens[1])
			if err != nil {
				return &ValidationError{line, "broadcast contents is not a sequence number"}
			}
			if msg != nextBroadcast {
				return &ValidationError{line, fmt.Sprintf(
					"messages broadcast out of order: expected %d but broadcast %d", nextBroadcast, msg)}
			}
			nextBroadcast++

		case "d":
			if len(tokens) != 3 {
				return &ValidationError{line, "malformed delivery line"}
			}
			owner, err := strconv.ParseUint(tokens[1], 10, 32)
			if err != nil {
				return &ValidationError{line, "invalid owner id"}
			}
			msg, err := strconv.Atoi(tokens[2])
			if err != nil {
				return &ValidationError{line, "delivery contents is not a sequence number"}
			}
			want, ok := next[owner]
			if !ok {
				want = 1
			}
			if msg != want {
				return &ValidationError{line, fmt.Sprintf(
					"message from %d delivered out of order: expected %d but delivered %d", owner, want, msg)}
			}
			next[owner] = msg + 1

		default:
			return &ValidationError{line, fmt.Sprintf("unknown line type '%s'", tokens[0])}
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}

	if messages <= 0 {
		return nil
	}
	owners := make([]uint64, 0, len(next))
	for owner := range next {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })
	for _, owner := range owners {
		if got := next[owner] - 1; got != messages {
			return &ValidationError{0, fmt.Sprintf(
				"owner %d: expected %d delivered messages, got %d", owner, messages, got)}
		}
	}
	return nil
}

// ValidateFIFOFile runs ValidateFIFO on the file at path.
func ValidateFIFOFile(path string, messages int) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close() // nolint: errcheck

	if err := ValidateFIFO(f, messages); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}
