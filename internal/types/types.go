package types

import (
	"errors"
	"fmt"
)

// ErrProtocol marks a malformed work unit or reply (size mismatch, unknown kind, wrong status).
var ErrProtocol = errors.New("protocol violation")

// NumVowels is the number of vowel buckets tracked per word: a, e, i, o, u, y.
const NumVowels = 6

// VowelNames lists the bucket labels in Counts.Vowels order.
var VowelNames = [NumVowels]string{"A", "E", "I", "O", "U", "Y"}

type TaskKind uint8

const (
	TaskNone TaskKind = iota
	TaskTokenize
	TaskSort
	TaskMerge
)

func (k TaskKind) String() string {
	switch k {
	case TaskTokenize:
		return "tokenize"
	case TaskSort:
		return "sort"
	case TaskMerge:
		return "merge"
	default:
		return "none"
	}
}

// RunStatus is the lifecycle state of one run of a sorting job.
type RunStatus uint8

const (
	RunUnsorted RunStatus = iota
	RunBeingSorted
	RunSorted
	RunBeingMerged
	RunObsolete
	RunFinal
)

func (s RunStatus) String() string {
	switch s {
	case RunUnsorted:
		return "unsorted"
	case RunBeingSorted:
		return "being-sorted"
	case RunSorted:
		return "sorted"
	case RunBeingMerged:
		return "being-merged"
	case RunObsolete:
		return "obsolete"
	case RunFinal:
		return "final"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Counts are the text statistics of a chunk or a whole file.
type Counts struct {
	Words  uint64            `json:"words"`
	Vowels [NumVowels]uint64 `json:"vowels"` // words containing each vowel at least once
}

func (c *Counts) Add(o Counts) {
	c.Words += o.Words
	for i := range c.Vowels {
		c.Vowels[i] += o.Vowels[i]
	}
}

// Request is one work unit handed to a worker slot. Field order is the wire order:
// kind, payload, size metadata, then indices.
type Request struct {
	Continue bool     `json:"continue"` // false is the "no more work" signal
	Kind     TaskKind `json:"kind"`
	Bytes    []byte   `json:"bytes,omitempty"` // tokenize payload
	Ints     []int32  `json:"ints,omitempty"`  // sort payload, or both merge runs back to back
	Len      uint32   `json:"len"`             // payload length in elements
	Split    uint32   `json:"split,omitempty"` // merge: length of the first run inside Ints
	File     uint32   `json:"file"`
	Seq      uint32   `json:"seq,omitempty"` // tokenize: chunk sequence within the file
	Run      uint32   `json:"run,omitempty"`
	RunB     uint32   `json:"run_b,omitempty"` // merge: the run that becomes obsolete
}

// Stop is the termination request broadcast to every slot.
var Stop = Request{Continue: false}

// Validate checks the internal consistency of a request before it is executed.
func (r Request) Validate() error {
	switch r.Kind {
	case TaskTokenize:
		if int(r.Len) != len(r.Bytes) {
			return fmt.Errorf("%w: tokenize len %d, payload %d bytes", ErrProtocol, r.Len, len(r.Bytes))
		}
	case TaskSort:
		if int(r.Len) != len(r.Ints) {
			return fmt.Errorf("%w: sort len %d, payload %d ints", ErrProtocol, r.Len, len(r.Ints))
		}
	case TaskMerge:
		if int(r.Len) != len(r.Ints) || r.Split > r.Len {
			return fmt.Errorf("%w: merge len %d split %d, payload %d ints", ErrProtocol, r.Len, r.Split, len(r.Ints))
		}
	default:
		return fmt.Errorf("%w: unknown task kind %d", ErrProtocol, r.Kind)
	}
	return nil
}

// Reply is the result a worker returns for one Request.
type Reply struct {
	Kind   TaskKind  `json:"kind"`
	Ints   []int32   `json:"ints,omitempty"`
	Len    uint32    `json:"len"`
	Status RunStatus `json:"status"`
	Counts Counts    `json:"counts"`
	File   uint32    `json:"file"`
	Seq    uint32    `json:"seq,omitempty"`
	Run    uint32    `json:"run,omitempty"`
	RunB   uint32    `json:"run_b,omitempty"`
	Err    string    `json:"err,omitempty"` // worker-side failure, set by message-based slots
}

// Matches checks that a reply answers req: same kind and indices, and a payload of the
// size the request implies.
func (p Reply) Matches(req Request) error {
	if p.Kind != req.Kind || p.File != req.File || p.Seq != req.Seq || p.Run != req.Run || p.RunB != req.RunB {
		return fmt.Errorf("%w: reply %s file=%d seq=%d run=%d/%d does not answer request %s file=%d seq=%d run=%d/%d",
			ErrProtocol, p.Kind, p.File, p.Seq, p.Run, p.RunB, req.Kind, req.File, req.Seq, req.Run, req.RunB)
	}
	if req.Kind == TaskSort || req.Kind == TaskMerge {
		if p.Len != req.Len || int(p.Len) != len(p.Ints) {
			return fmt.Errorf("%w: %s reply len %d (%d ints), request len %d", ErrProtocol, p.Kind, p.Len, len(p.Ints), req.Len)
		}
	}
	return nil
}
