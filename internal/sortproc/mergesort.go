package sortproc

// MergeSort sorts vals in place, stably, in O(n log n).
func MergeSort(vals []int32) {
	n := len(vals)
	if n < 2 {
		return
	}
	src, dst := vals, make([]int32, n)
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			mergeInto(dst[lo:hi], src[lo:mid], src[mid:hi])
		}
		src, dst = dst, src
	}
	if &src[0] != &vals[0] {
		copy(vals, src)
	}
}

// Merge returns the stable two-pointer merge of two non-decreasing sequences.
func Merge(a, b []int32) []int32 {
	out := make([]int32, len(a)+len(b))
	mergeInto(out, a, b)
	return out
}

func mergeInto(dst, a, b []int32) {
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			dst[k] = a[i]
			i++
		} else {
			dst[k] = b[j]
			j++
		}
		k++
	}
	k += copy(dst[k:], a[i:])
	copy(dst[k:], b[j:])
}

// Validate returns the first index i where vals[i] > vals[i+1], or -1 if vals is
// non-decreasing.
func Validate(vals []int32) int {
	for i := 0; i+1 < len(vals); i++ {
		if vals[i] > vals[i+1] {
			return i
		}
	}
	return -1
}
