package persistence_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntStringCodec_RoundTrip(t *testing.T) {
	codec := persistence.IntStringCodec()
	pairs := []persistence.Pair[int, string]{
		{Key: 1, Value: "a"},
		{Key: 2, Value: "b"},
		{Key: 3, Value: "c"},
	}

	var buf bytes.Buffer
	require.NoError(t, codec.Encode(&buf, pairs))
	assert.Equal(t, "1:a\n2:b\n3:c\n", buf.String())

	result, err := codec.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, pairs, result.Pairs)
	assert.Zero(t, result.BadRecords)
}

func TestDecode_SkipsEmptyAndMissingSeparatorLines(t *testing.T) {
	codec := persistence.IntStringCodec()
	input := "1:a\n\nmalformed\n2:b\n"

	result, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Pairs, 2)
	assert.Equal(t, 1, result.Pairs[0].Key)
	assert.Equal(t, 2, result.Pairs[1].Key)
	assert.Equal(t, 1, result.BadRecords)
}

func TestDecode_SkipsUnparsableKey(t *testing.T) {
	codec := persistence.IntStringCodec()
	input := "notanumber:value\n5:ok\n"

	result, err := codec.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, 5, result.Pairs[0].Key)
	assert.Equal(t, 1, result.BadRecords)
}

func TestEncode_RejectsKeyContainingSeparator(t *testing.T) {
	codec := persistence.StringStringCodec()
	pairs := []persistence.Pair[string, string]{{Key: "bad:key", Value: "v"}}

	var buf bytes.Buffer
	err := codec.Encode(&buf, pairs)
	assert.Error(t, err)
}
