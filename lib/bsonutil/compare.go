package bsonutil

import (
	"bytes"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --------------------------------------------------------------------------
// BSON Sort Order
// --------------------------------------------------------------------------

// typeRank places a value in the cross-type BSON sort order used by the
// server for sorting and range comparisons.
func typeRank(v any) int {
	switch v.(type) {
	case primitive.MinKey:
		return 0
	case nil, primitive.Null:
		return 1
	case missing:
		return 1 // missing sorts with null
	case int32, int64, float64, primitive.Decimal128:
		return 2
	case string:
		return 3
	case bson.D:
		return 4
	case bson.A:
		return 5
	case primitive.Binary, []byte:
		return 6
	case primitive.ObjectID:
		return 7
	case bool:
		return 8
	case primitive.DateTime:
		return 9
	case primitive.Timestamp:
		return 10
	case primitive.Regex:
		return 11
	case primitive.MaxKey:
		return 12
	default:
		return 13
	}
}

// IsNumeric reports whether v is one of the BSON number types.
func IsNumeric(v any) bool {
	switch v.(type) {
	case int32, int64, float64, primitive.Decimal128:
		return true
	}
	return false
}

// ToFloat converts any BSON number to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	}
	return 0, false
}

// ToInt converts a BSON number to int64, truncating floats.
func ToInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// Compare orders two values within the same type bracket. The boolean
// return value is false when the values live in different brackets and a
// range comparison between them can never match (the server's type
// bracketing for $gt and friends).
func Compare(a, b any) (int, bool) {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return 0, false
	}
	return compareSameRank(a, b, ra), true
}

// SortCompare totally orders two values: different type brackets order by
// rank, same brackets by value. Used for sorting and for $min/$max.
func SortCompare(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	return compareSameRank(a, b, ra)
}

func compareSameRank(a, b any, rank int) int {
	switch rank {
	case 0, 1, 12: // MinKey, Null/Missing, MaxKey
		return 0
	case 2:
		fa, _ := ToFloat(a)
		fb, _ := ToFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return compareDocs(a.(bson.D), b.(bson.D))
	case 5:
		return compareArrays(a.(bson.A), b.(bson.A))
	case 6:
		return bytes.Compare(binaryData(a), binaryData(b))
	case 7:
		oa, ob := a.(primitive.ObjectID), b.(primitive.ObjectID)
		return bytes.Compare(oa[:], ob[:])
	case 8:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	case 9:
		da, db := int64(a.(primitive.DateTime)), int64(b.(primitive.DateTime))
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	case 10:
		ta, tb := a.(primitive.Timestamp), b.(primitive.Timestamp)
		if ta.T != tb.T {
			if ta.T < tb.T {
				return -1
			}
			return 1
		}
		switch {
		case ta.I < tb.I:
			return -1
		case ta.I > tb.I:
			return 1
		default:
			return 0
		}
	case 11:
		return strings.Compare(a.(primitive.Regex).Pattern, b.(primitive.Regex).Pattern)
	default:
		return 0
	}
}

func binaryData(v any) []byte {
	switch b := v.(type) {
	case primitive.Binary:
		return b.Data
	case []byte:
		return b
	}
	return nil
}

func compareDocs(a, b bson.D) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i].Key, b[i].Key); c != 0 {
			return c
		}
		if c := SortCompare(a[i].Value, b[i].Value); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareArrays(a, b bson.A) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := SortCompare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// Equal reports BSON equality: same type bracket and comparison zero.
// Numbers compare across widths, so int32(2) equals float64(2).
func Equal(a, b any) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}

// Contains reports whether arr has an element equal to v.
func Contains(arr bson.A, v any) bool {
	for _, item := range arr {
		if Equal(item, v) {
			return true
		}
	}
	return false
}
