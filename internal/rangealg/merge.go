package rangealg

import (
	"errors"
	"sort"
)

// MergeParts sorts parts by start-index, requires that each part's end is
// the immediate predecessor of the next part's start (under NextString), and
// produces one NotDistributed part spanning the first start to the last end.
func MergeParts(parts []PartOfAProblem) (PartOfAProblem, error) {
	if len(parts) == 0 {
		return PartOfAProblem{}, errors.New("rangealg: cannot merge an empty part list")
	}

	a := parts[0].Alphabet
	sorted := append([]PartOfAProblem(nil), parts...)
	sort.Slice(sorted, func(i, j int) bool {
		return Compare(a, sorted[i].Start, sorted[j].Start) < 0
	})

	for i := 1; i < len(sorted); i++ {
		expected := NextString(a, sorted[i-1].End)
		if Compare(a, expected, sorted[i].Start) != 0 {
			return PartOfAProblem{}, errors.New("rangealg: parts are not contiguous, cannot merge")
		}
	}

	return PartOfAProblem{
		Alphabet: a,
		Hash:     sorted[0].Hash,
		Start:    sorted[0].Start,
		End:      sorted[len(sorted)-1].End,
		State:    NotDistributed,
	}, nil
}
