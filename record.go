package swiftdsv

import (
	"io"

	"github.com/pkg/errors"
)

// Record is a row codec implemented by the target type itself, so rows bind
// to values without runtime reflection.
type Record interface {
	// FieldNames lists the fields in positional order.
	FieldNames() []string
	Get(index int) *string
	Set(index int, value *string) error
}

// RecordHandler loads and saves slices of a Record type.
//
// With Header set, the first row names the columns and is matched against
// FieldNames; unknown columns are ignored. Without it, columns bind by
// position.
type RecordHandler[T Record] struct {
	New    func() T
	Header bool
}

var errNoConstructor = errors.New("swiftdsv: RecordHandler.New is nil")

// Load builds one record per row with New and fills it through Set.
func (h RecordHandler[T]) Load(r *Reader) ([]T, error) {
	if h.New == nil {
		return nil, errNoConstructor
	}
	names := h.New().FieldNames()

	positions := make([]int, len(names))
	for i := range positions {
		positions[i] = i
	}
	if h.Header {
		header, err := r.ReadValues()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		index := make(map[string]int, len(names))
		for i, name := range names {
			index[name] = i
		}
		positions = make([]int, len(header))
		for col, name := range header {
			positions[col] = -1
			if name == nil {
				continue
			}
			if field, ok := index[*name]; ok {
				positions[col] = field
			}
		}
	}

	var records []T
	for {
		row, err := r.ReadValues()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		rec := h.New()
		for col, field := range positions {
			if field < 0 || col >= len(row) {
				continue
			}
			if err := rec.Set(field, row[col]); err != nil {
				return nil, errors.Wrapf(err, "swiftdsv: line %d, column %d", r.EndLineNumber(), col+1)
			}
		}
		records = append(records, rec)
	}
}

// Save writes the optional header, then each record through Get.
func (h RecordHandler[T]) Save(records []T, w *Writer) error {
	var names []string
	switch {
	case len(records) > 0:
		names = records[0].FieldNames()
	case h.New != nil:
		names = h.New().FieldNames()
	}
	if h.Header && len(names) > 0 {
		if err := w.WriteValues(Strings(names...)); err != nil {
			return errors.Wrap(err, "header")
		}
	}
	row := make([]*string, len(names))
	for _, rec := range records {
		for i := range names {
			row[i] = rec.Get(i)
		}
		if err := w.WriteValues(row); err != nil {
			return err
		}
	}
	return nil
}
