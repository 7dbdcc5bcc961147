package rangealg

import "errors"

// DivideIntoN splits part's range into min(n, size(part)) consecutive parts
// covering [part.Start, part.End]. Every part but the last has size
// ceil(remaining / partsLeft); the last takes exactly what remains. All
// returned parts inherit part's Alphabet and Hash and start in state
// NotDistributed.
//
// When Start and End differ in length the cumulative index walks across
// lengths (stringAtOffset), so every candidate string of every length in the
// range is covered exactly once — the heterogeneous-length case called out
// by the source.
func DivideIntoN(part PartOfAProblem, n int) ([]PartOfAProblem, error) {
	if n < 1 {
		return nil, errors.New("rangealg: n must be >= 1")
	}

	total, err := Size(part)
	if err != nil {
		return nil, err
	}
	if n > int(total) {
		n = int(total)
	}

	parts := make([]PartOfAProblem, 0, n)
	cursor := part.Start
	remaining := total

	for i := 0; i < n; i++ {
		partsLeft := uint64(n - i)
		var take uint64
		if i == n-1 {
			take = remaining
		} else {
			take = ceilDiv(remaining, partsLeft)
		}

		end := cursor
		if take > 1 {
			end, err = stringAtOffset(part.Alphabet, cursor, take-1)
			if err != nil {
				return nil, err
			}
		}

		parts = append(parts, PartOfAProblem{
			Alphabet: part.Alphabet,
			Hash:     part.Hash,
			Start:    cursor,
			End:      end,
			State:    NotDistributed,
		})

		remaining -= take
		if remaining == 0 {
			break
		}
		cursor, err = stringAtOffset(part.Alphabet, cursor, take)
		if err != nil {
			return nil, err
		}
	}
	return parts, nil
}

func ceilDiv(num, den uint64) uint64 {
	return (num + den - 1) / den
}
