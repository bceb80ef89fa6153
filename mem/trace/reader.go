package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Op is the operation of a trace record.
type Op byte

// The operations a trace can hold.
const (
	OpRead  Op = 'r'
	OpWrite Op = 'w'
)

func (o Op) String() string {
	return string(o)
}

// Errors reported by the Reader. They are wrapped with the line number.
var (
	ErrUnknownOp       = errors.New("unknown request type")
	ErrMalformedRecord = errors.New("malformed trace record")
)

// Access is one record of a trace.
type Access struct {
	Op   Op
	Addr uint32
}

// A Reader parses "<op> <hex-address>" records.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader that reads records from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF after the last record.
func (r *Reader) Next() (Access, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" {
			continue
		}

		access, err := parseRecord(text)
		if err != nil {
			return Access{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		return access, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}

	return Access{}, io.EOF
}

// ReadAll reads the remaining records.
func (r *Reader) ReadAll() ([]Access, error) {
	var accesses []Access

	for {
		access, err := r.Next()
		if errors.Is(err, io.EOF) {
			return accesses, nil
		}

		if err != nil {
			return nil, err
		}

		accesses = append(accesses, access)
	}
}

func parseRecord(text string) (Access, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Access{}, fmt.Errorf("%w: %q", ErrMalformedRecord, text)
	}

	if len(fields[0]) != 1 {
		return Access{}, fmt.Errorf("%w %s", ErrUnknownOp, fields[0])
	}

	op := Op(fields[0][0])
	if op != OpRead && op != OpWrite {
		return Access{}, fmt.Errorf("%w %s", ErrUnknownOp, fields[0])
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(fields[1], "0x"), "0X")

	addr, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Access{}, fmt.Errorf("%w: address %q", ErrMalformedRecord, fields[1])
	}

	return Access{Op: op, Addr: uint32(addr)}, nil
}
