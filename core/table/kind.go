// Package table provides the in-memory table the detector and grouper operate on.
//
// A Table is an ordered set of named columns of equal length. Every column
// carries a storage Kind and nullable values, with nil standing for null.
// Values held per kind:
//
//	KindNumeric   float64
//	KindDatetime  time.Time
//	KindBool      bool
//	KindString    string
//	KindCategory  any scalar, plus the sorted category labels
//	KindObject    any mix of string, float64, int64, bool, time.Time
package table

// Kind is the storage type of a column.
type Kind int

const (
	// KindObject is untyped storage, typically text read from CSV that has not been typed yet.
	KindObject Kind = iota
	KindNumeric
	KindDatetime
	KindBool
	KindCategory
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindNumeric:
		return "numeric"
	case KindDatetime:
		return "datetime"
	case KindBool:
		return "bool"
	case KindCategory:
		return "category"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// IsText reports whether values of this kind are textual or finite-category.
func (k Kind) IsText() bool {
	return k == KindObject || k == KindString || k == KindCategory
}
