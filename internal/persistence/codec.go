// Package persistence implements the newline-delimited "key:value" snapshot
// codec shared by both skip-list variants.
//
// Grounded on original_source/skiplist_optimized.h::dump_file/load_file and
// skiplist_mvcc.h::dump_file/load_file, which both use the same grammar.
package persistence

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Ccjx3/KVDatabase/internal/errors"
)

// Separator is reserved by the wire format and must not appear in an
// encoded key.
const Separator = ":"

// Pair is a single key/value record.
type Pair[K any, V any] struct {
	Key   K
	Value V
}

// Codec encodes and decodes K/V pairs to and from the "key:value" text
// format. Concrete instantiations are provided below for the key/value
// types this store actually persists.
type Codec[K any, V any] struct {
	EncodeKey   func(K) string
	DecodeKey   func(string) (K, error)
	EncodeValue func(V) string
	DecodeValue func(string) (V, error)
}

// IntStringCodec persists int keys and string values, matching the
// dumpFile_mvcc / dumpFile_optimized format used by the original programs.
func IntStringCodec() Codec[int, string] {
	return Codec[int, string]{
		EncodeKey:   func(k int) string { return strconv.Itoa(k) },
		DecodeKey:   func(s string) (int, error) { return strconv.Atoi(s) },
		EncodeValue: func(v string) string { return v },
		DecodeValue: func(s string) (string, error) { return s, nil },
	}
}

// StringStringCodec persists string keys and string values.
func StringStringCodec() Codec[string, string] {
	return Codec[string, string]{
		EncodeKey:   func(k string) string { return k },
		DecodeKey:   func(s string) (string, error) { return s, nil },
		EncodeValue: func(v string) string { return v },
		DecodeValue: func(s string) (string, error) { return s, nil },
	}
}

// Encode writes every pair, one per line, as "key:value\n". It fails fast
// on a key whose encoded form contains the reserved separator, since that
// would make the dump unparsable.
func (c Codec[K, V]) Encode(w io.Writer, pairs []Pair[K, V]) error {
	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		k := c.EncodeKey(p.Key)
		if strings.Contains(k, Separator) {
			return errors.InvalidArgument(fmt.Sprintf("encoded key %q contains reserved separator %q", k, Separator), nil)
		}
		if _, err := fmt.Fprintf(bw, "%s%s%s\n", k, Separator, c.EncodeValue(p.Value)); err != nil {
			return errors.IOFailure("failed to write dump record", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.IOFailure("failed to flush dump file", err)
	}
	return nil
}

// DecodeResult holds the outcome of parsing a dump file: the records that
// parsed cleanly, plus a count of lines skipped as malformed (BadRecord,
// per the error taxonomy — recovered from locally, not surfaced as an
// error).
type DecodeResult[K any, V any] struct {
	Pairs      []Pair[K, V]
	BadRecords int
}

// Decode reads "key:value" lines, skipping empty lines and lines lacking
// the separator. A read error from r is surfaced as an IOFailure; a
// decode error from DecodeKey/DecodeValue on an otherwise well-formed line
// also counts as a skipped BadRecord rather than aborting the whole file.
func (c Codec[K, V]) Decode(r io.Reader) (DecodeResult[K, V], error) {
	var result DecodeResult[K, V]

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		idx := strings.Index(line, Separator)
		if idx < 0 {
			result.BadRecords++
			continue
		}

		key, err := c.DecodeKey(line[:idx])
		if err != nil {
			result.BadRecords++
			continue
		}
		value, err := c.DecodeValue(line[idx+len(Separator):])
		if err != nil {
			result.BadRecords++
			continue
		}

		result.Pairs = append(result.Pairs, Pair[K, V]{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return result, errors.IOFailure("failed to read dump file", err)
	}
	return result, nil
}
