package engine

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns or mutates the canonical table. It reads through
// this interface.
//
// Implementations:
//   SliceView: wraps the loader's []Record
//   SubView:   filtered subset (indices into parent, zero-copy)
// ============================================================================

// RecordView provides indexed, read-only access to a table of records.
type RecordView interface {
	Len() int
	At(index int) Record
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
}

// NewSliceView creates a RecordView from a []Record slice.
// The slice is held by reference; callers must not modify it afterwards.
func NewSliceView(records []Record) RecordView {
	return &SliceView{records: records}
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) At(i int) Record {
	if i < 0 || i >= len(v.records) {
		return Record{}
	}
	return v.records[i]
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent RecordView.
// Holds indices into the parent; no data is copied.
type SubView struct {
	parent  RecordView
	indices []int
}

func newSubView(parent RecordView, indices []int) RecordView {
	// Flatten nested sub-views so repeated filtering stays one hop deep.
	if sv, ok := parent.(*SubView); ok {
		flat := make([]int, len(indices))
		for i, idx := range indices {
			flat[i] = sv.indices[idx]
		}
		return &SubView{parent: sv.parent, indices: flat}
	}
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) At(i int) Record {
	if i < 0 || i >= len(v.indices) {
		return Record{}
	}
	return v.parent.At(v.indices[i])
}

// Records copies a view into a new slice.
func Records(view RecordView) []Record {
	out := make([]Record, view.Len())
	for i := range out {
		out[i] = view.At(i)
	}
	return out
}
