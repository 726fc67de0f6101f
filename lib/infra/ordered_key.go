package infra

type Signed interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Unsigned is a constraint that permits any unsigned integer type.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Integer is a constraint that permits any integer type.
type Integer interface {
	Signed | Unsigned
}

// Float is a constraint that permits any floating-point type.
type Float interface {
	~float32 | ~float64
}

// OrderedKey
// byte => ~uint8
type OrderedKey interface {
	Integer | Float | ~string
}

// Comparator imposes a total order over arbitrary keys.
// Assume i is the new key.
//  1. i == j, return 0
//  2. i > j, return positive, turn to right part.
//  3. i < j, return negative, turn to left part.
//
// The comparator must be consistent and transitive. It can not be
// verified at runtime, so a broken one corrupts the ordering silently.
type Comparator[K any] func(i, j K) int64

// OrderedKeyComparator is the Comparator specialised for builtin ordered keys.
type OrderedKeyComparator[K OrderedKey] Comparator[K]

// NaturalOrder returns the ascending comparator of the builtin ordered keys.
func NaturalOrder[K OrderedKey]() Comparator[K] {
	return func(i, j K) int64 {
		if i == j {
			return 0
		} else if i < j {
			return -1
		}
		return 1
	}
}

// ReverseOrder returns the descending comparator of the builtin ordered keys.
func ReverseOrder[K OrderedKey]() Comparator[K] {
	asc := NaturalOrder[K]()
	return func(i, j K) int64 {
		return -asc(i, j)
	}
}

// Sign normalises any comparator result into {-1, 0, 1}.
func Sign(res int64) int64 {
	switch {
	case res < 0:
		return -1
	case res > 0:
		return 1
	default:
	}
	return 0
}
