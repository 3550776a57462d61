package coordinator

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yourorg/chunkmill/internal/sortproc"
	"github.com/yourorg/chunkmill/internal/types"
)

// WriteTextReport prints the word and per-vowel totals of one file.
func WriteTextReport(w io.Writer, name string, c types.Counts) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", name)
	fmt.Fprintf(&b, "Total number of words = %d\n", c.Words)
	b.WriteString("N. of words with an\n")
	for _, v := range types.VowelNames {
		fmt.Fprintf(&b, "%6s", v)
	}
	b.WriteString("\n")
	for _, n := range c.Vowels {
		fmt.Fprintf(&b, "%6d", n)
	}
	b.WriteString("\n\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSortReport prints the sorted sequence of one file followed by its validation line.
func WriteSortReport(w io.Writer, name string, vals []int32) error {
	var b strings.Builder
	fmt.Fprintf(&b, "File name: %s\n", name)
	fmt.Fprintf(&b, "Number of values: %d\n", len(vals))
	for i, v := range vals {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	b.WriteString("\n")
	if i := sortproc.Validate(vals); i >= 0 {
		fmt.Fprintf(&b, "Error in position %d between element %d and %d\n", i, vals[i], vals[i+1])
	} else {
		b.WriteString("The sequence is sorted\n")
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}
