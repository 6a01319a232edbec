package snapshot

import "fmt"

// Range is an inclusive span of bitmap words or list indexes.
type Range struct {
	From int64
	To   int64
}

// SplitRange splits [from, to] into consecutive ranges of at most batchSize items.
func SplitRange(from, to, batchSize int64) ([]Range, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("range end %d is before start %d", to, from)
	}

	ranges := make([]Range, 0, (to-from)/batchSize+1)
	for start := from; start <= to; start += batchSize {
		ranges = append(ranges, Range{From: start, To: min(start+batchSize-1, to)})
	}
	return ranges, nil
}
