package survey

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

type bucketCounts struct {
	id     SizeBucket
	counts [3]int
	total  int
}

// Dataset holds immutable per-bucket response counts, ordered by garment size.
type Dataset struct {
	buckets []bucketCounts
	index   map[SizeBucket]int
}

// New validates entries and builds a Dataset. Counts must be non-negative,
// categories must belong to the closed set and bucket ids must be unique.
// A category missing from an entry counts as zero.
func New(entries []Entry) (*Dataset, error) {
	buckets := make([]bucketCounts, 0, len(entries))
	seen := make(map[SizeBucket]struct{}, len(entries))

	for i, entry := range entries {
		id := SizeBucket(strings.TrimSpace(string(entry.Bucket)))
		if id == "" {
			return nil, &ValidationError{Field: fmt.Sprintf("entries[%d].bucket", i), Reason: "bucket id is empty"}
		}
		if _, dup := seen[id]; dup {
			return nil, &ValidationError{Field: fmt.Sprintf("entries[%d].bucket", i), Reason: fmt.Sprintf("duplicate bucket id %q", string(id))}
		}
		seen[id] = struct{}{}

		bc := bucketCounts{id: id}
		for category, count := range entry.Counts {
			if !category.Valid() {
				return nil, &ValidationError{Field: fmt.Sprintf("entries[%d].counts", i), Reason: fmt.Sprintf("unknown response category %d", int(category))}
			}
			if count < 0 {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("entries[%d].counts.%s", i, category),
					Reason: fmt.Sprintf("count must be non-negative, got %d", count),
				}
			}
			if count > math.MaxInt-bc.total {
				return nil, &ValidationError{
					Field:  fmt.Sprintf("entries[%d].counts.%s", i, category),
					Reason: "bucket total overflows",
				}
			}
			bc.counts[category] = count
			bc.total += count
		}
		buckets = append(buckets, bc)
	}

	slices.SortStableFunc(buckets, func(a, b bucketCounts) int {
		return a.id.Compare(b.id)
	})

	index := make(map[SizeBucket]int, len(buckets))
	for i, b := range buckets {
		index[b.id] = i
	}

	return &Dataset{buckets: buckets, index: index}, nil
}

func (d *Dataset) lookup(bucket SizeBucket) (*bucketCounts, error) {
	i, ok := d.index[bucket]
	if !ok {
		return nil, &NotFoundError{Bucket: bucket}
	}
	return &d.buckets[i], nil
}

// TotalFor returns the number of respondents for bucket.
func (d *Dataset) TotalFor(bucket SizeBucket) (int, error) {
	b, err := d.lookup(bucket)
	if err != nil {
		return 0, err
	}
	return b.total, nil
}

// CountFor returns the stored count, zero when the category was never recorded.
func (d *Dataset) CountFor(bucket SizeBucket, category ResponseCategory) (int, error) {
	b, err := d.lookup(bucket)
	if err != nil {
		return 0, err
	}
	if !category.Valid() {
		return 0, &ValidationError{Field: "category", Reason: fmt.Sprintf("unknown response category %d", int(category))}
	}
	return b.counts[category], nil
}

// Buckets returns the bucket ids in ascending size order.
func (d *Dataset) Buckets() []SizeBucket {
	out := make([]SizeBucket, len(d.buckets))
	for i, b := range d.buckets {
		out[i] = b.id
	}
	return out
}

func (d *Dataset) Has(bucket SizeBucket) bool {
	_, ok := d.index[bucket]
	return ok
}

func (d *Dataset) Len() int {
	return len(d.buckets)
}

// Entries returns a copy of the dataset in construction form.
func (d *Dataset) Entries() []Entry {
	out := make([]Entry, len(d.buckets))
	for i, b := range d.buckets {
		counts := make(map[ResponseCategory]int, len(Categories))
		for _, c := range Categories {
			counts[c] = b.counts[c]
		}
		out[i] = Entry{Bucket: b.id, Counts: counts}
	}
	return out
}
