package sortproc

import (
	"bytes"
	"errors"
	"math/rand"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeSort(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
	}{
		{"empty", nil},
		{"single", []int32{7}},
		{"already sorted", []int32{1, 2, 3, 4}},
		{"reversed", []int32{5, 4, 3, 2, 1}},
		{"duplicates and negatives", []int32{3, -1, 3, 0, -1, 2147483647, -2147483648}},
		{"odd length", []int32{5, 3, 1, 4, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vals := append([]int32(nil), tt.in...)
			MergeSort(vals)
			assert.Equal(t, -1, Validate(vals))
			assert.Len(t, vals, len(tt.in))
			assert.ElementsMatch(t, tt.in, vals)
		})
	}
}

func TestMergeSortRandomIsIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n < 300; n += 17 {
		vals := make([]int32, n)
		for i := range vals {
			vals[i] = int32(rng.Intn(100) - 50)
		}
		MergeSort(vals)
		require.Equal(t, -1, Validate(vals), "n=%d", n)
		again := append([]int32(nil), vals...)
		MergeSort(again)
		require.Equal(t, vals, again)
	}
}

func TestMerge(t *testing.T) {
	got := Merge([]int32{1, 4, 9}, []int32{2, 3, 10, 11})
	assert.Equal(t, []int32{1, 2, 3, 4, 9, 10, 11}, got)
	assert.Equal(t, []int32{1, 2}, Merge(nil, []int32{1, 2}))
	assert.Equal(t, []int32{1, 2}, Merge([]int32{1, 2}, nil))
	assert.Empty(t, Merge(nil, nil))
}

func TestValidateReportsFirstInversion(t *testing.T) {
	assert.Equal(t, -1, Validate(nil))
	assert.Equal(t, 2, Validate([]int32{1, 2, 5, 3}))
}

func TestSequenceRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	big := make([]int32, 3*readBlock+5)
	for i := range big {
		big[i] = rng.Int31() - rng.Int31()
	}
	for _, in := range [][]int32{{5, 3, 1, 4, 2, -8}, big, {}} {
		var buf bytes.Buffer
		require.NoError(t, WriteSequence(&buf, in))
		size := int64(buf.Len())
		assert.Equal(t, int64(4*(len(in)+1)), size)
		out, err := ReadSequence(&buf, size)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestReadSequenceRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":       nil,
		"short":       {1, 0},
		"negative":    {0xff, 0xff, 0xff, 0xff},
		"truncated":   {2, 0, 0, 0, 1, 0, 0, 0},
		"overclaimed": {0, 0, 0, 4}, // 1<<26 values, none present
	}
	for name, b := range cases {
		for _, size := range []int64{int64(len(b)), 0} {
			_, err := ReadSequence(bytes.NewReader(b), size)
			assert.True(t, errors.Is(err, ErrFormat), "%s size=%d: err=%v", name, size, err)
		}
	}
}

func TestReadSequenceAllocationFollowsData(t *testing.T) {
	header := []byte{0xff, 0xff, 0xff, 0x7f} // claims 2^31-1 values
	for _, size := range []int64{4, 0} {
		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		_, err := ReadSequence(bytes.NewReader(header), size)
		runtime.ReadMemStats(&after)
		require.ErrorIs(t, err, ErrFormat)
		assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20), "size=%d", size)
	}
}
