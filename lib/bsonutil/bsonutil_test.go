package bsonutil

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func TestCompareSameBracket(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want int
	}{
		{name: "int vs float", a: int32(2), b: float64(2), want: 0},
		{name: "int64 less", a: int64(1), b: int64(5), want: -1},
		{name: "float greater", a: float64(2.5), b: int32(2), want: 1},
		{name: "strings", a: "abc", b: "abd", want: -1},
		{name: "bools", a: false, b: true, want: -1},
		{name: "null vs null", a: nil, b: nil, want: 0},
		{name: "dates", a: primitive.DateTime(100), b: primitive.DateTime(200), want: -1},
		{name: "arrays elementwise", a: bson.A{int32(1), int32(2)}, b: bson.A{int32(1), int32(3)}, want: -1},
		{name: "array prefix shorter", a: bson.A{int32(1)}, b: bson.A{int32(1), int32(2)}, want: -1},
		{name: "docs by key then value", a: bson.D{{Key: "a", Value: int32(1)}}, b: bson.D{{Key: "b", Value: int32(0)}}, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			if !ok {
				t.Fatalf("Compare(%v, %v) not comparable", tt.a, tt.b)
			}
			if sign(got) != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want sign %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompareAcrossBrackets(t *testing.T) {
	// Numbers and strings live in different type brackets; range
	// comparisons between them never match.
	if _, ok := Compare(int32(1), "1"); ok {
		t.Error("number and string compared as the same bracket")
	}
	// SortCompare still orders them: numbers before strings.
	if SortCompare(int32(1), "1") >= 0 {
		t.Error("SortCompare did not order number before string")
	}
	// Null before numbers, bool after string.
	if SortCompare(nil, int32(0)) >= 0 {
		t.Error("SortCompare did not order null before numbers")
	}
	if SortCompare(true, "z") <= 0 {
		t.Error("SortCompare did not order bool after string")
	}
}

func TestMissingSortsWithNull(t *testing.T) {
	if got := SortCompare(Missing, nil); got != 0 {
		t.Errorf("SortCompare(Missing, nil) = %d, want 0", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{name: "cross width numbers", a: int32(2), b: float64(2), want: true},
		{name: "different numbers", a: int32(2), b: int64(3), want: false},
		{name: "string vs number", a: "2", b: int32(2), want: false},
		{name: "equal docs", a: bson.D{{Key: "a", Value: int32(1)}}, b: bson.D{{Key: "a", Value: int64(1)}}, want: true},
		{name: "doc field order matters", a: bson.D{{Key: "a", Value: int32(1)}, {Key: "b", Value: int32(2)}},
			b: bson.D{{Key: "b", Value: int32(2)}, {Key: "a", Value: int32(1)}}, want: false},
		{name: "equal arrays", a: bson.A{"x"}, b: bson.A{"x"}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	arr := bson.A{int32(1), "two", bson.D{{Key: "x", Value: int32(3)}}}
	if !Contains(arr, int64(1)) {
		t.Error("Contains missed a cross-width number")
	}
	if !Contains(arr, bson.D{{Key: "x", Value: float64(3)}}) {
		t.Error("Contains missed an equal subdocument")
	}
	if Contains(arr, "three") {
		t.Error("Contains matched an absent value")
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// ---------------------------------------------------------------------------
// Path Resolution
// ---------------------------------------------------------------------------

func sampleDoc() bson.D {
	return bson.D{
		{Key: "a", Value: int32(1)},
		{Key: "sub", Value: bson.D{{Key: "b", Value: "nested"}}},
		{Key: "arr", Value: bson.A{
			bson.D{{Key: "v", Value: int32(10)}},
			bson.D{{Key: "v", Value: int32(20)}},
			int32(99),
		}},
	}
}

func TestCandidates(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		name string
		path string
		want []any
	}{
		{name: "top level", path: "a", want: []any{int32(1)}},
		{name: "subdocument", path: "sub.b", want: []any{"nested"}},
		{name: "array fan out", path: "arr.v", want: []any{int32(10), int32(20)}},
		{name: "array index", path: "arr.1.v", want: []any{int32(20)}},
		{name: "absent top level", path: "nope", want: []any{Missing}},
		{name: "index out of range", path: "arr.9", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidates(doc, tt.path)
			if len(got) != len(tt.want) {
				t.Fatalf("Candidates(%q) = %v, want %v", tt.path, got, tt.want)
			}
			for i := range got {
				if IsMissing(tt.want[i]) {
					if !IsMissing(got[i]) {
						t.Errorf("candidate %d = %v, want Missing", i, got[i])
					}
					continue
				}
				if !Equal(got[i], tt.want[i]) {
					t.Errorf("candidate %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLookupPath(t *testing.T) {
	doc := sampleDoc()

	if v, ok := LookupPath(doc, "sub.b"); !ok || v != "nested" {
		t.Errorf("LookupPath(sub.b) = %v, %v", v, ok)
	}
	if v, ok := LookupPath(doc, "arr.v"); !ok || !Equal(v, bson.A{int32(10), int32(20)}) {
		t.Errorf("LookupPath(arr.v) = %v, %v, want collected array", v, ok)
	}
	if v, ok := LookupPath(doc, "arr.0.v"); !ok || !Equal(v, int32(10)) {
		t.Errorf("LookupPath(arr.0.v) = %v, %v", v, ok)
	}
	if _, ok := LookupPath(doc, "sub.absent"); ok {
		t.Error("LookupPath resolved an absent path")
	}
}

func TestSetPath(t *testing.T) {
	doc := bson.D{{Key: "a", Value: int32(1)}}

	doc = SetPath(doc, "sub.deep.x", "v")
	if v, ok := LookupPath(doc, "sub.deep.x"); !ok || v != "v" {
		t.Fatalf("SetPath did not create intermediate documents: %v", doc)
	}

	// Existing field keeps its position.
	doc = SetPath(doc, "a", int32(2))
	if doc[0].Key != "a" || !Equal(doc[0].Value, int32(2)) {
		t.Errorf("SetPath moved or missed an existing field: %v", doc)
	}

	// Setting past the end of an array pads with nulls.
	doc = bson.D{{Key: "arr", Value: bson.A{int32(1)}}}
	doc = SetPath(doc, "arr.3", int32(4))
	arr, _ := GetField(doc, "arr")
	want := bson.A{int32(1), nil, nil, int32(4)}
	if !Equal(arr, want) {
		t.Errorf("SetPath(arr.3) = %v, want %v", arr, want)
	}
}

func TestUnsetPath(t *testing.T) {
	doc := sampleDoc()

	doc = UnsetPath(doc, "sub.b")
	if HasPath(doc, "sub.b") {
		t.Error("UnsetPath left the nested field behind")
	}

	// Unsetting an array element leaves a null hole.
	doc = UnsetPath(doc, "arr.0")
	arr, _ := GetField(doc, "arr")
	if arr.(bson.A)[0] != nil {
		t.Errorf("UnsetPath(arr.0) = %v, want null hole", arr)
	}

	// Absent paths are no-ops.
	before := len(doc)
	doc = UnsetPath(doc, "absent.whatever")
	if len(doc) != before {
		t.Error("UnsetPath changed the document for an absent path")
	}
}

// ---------------------------------------------------------------------------
// Normalization and Keys
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	out, err := Normalize(bson.M{"n": 5})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	v, ok := GetField(out, "n")
	if !ok {
		t.Fatal("normalized document lost its field")
	}
	// Small ints normalize to the driver's canonical int32.
	if _, isInt32 := v.(int32); !isInt32 {
		t.Errorf("normalized value has type %T, want int32", v)
	}

	if _, err := Normalize("not a document"); err == nil {
		t.Error("Normalize accepted a non-document")
	}
}

func TestCloneIsDeep(t *testing.T) {
	doc := bson.D{{Key: "arr", Value: bson.A{bson.D{{Key: "x", Value: int32(1)}}}}}
	clone := CloneDoc(doc)

	inner := clone[0].Value.(bson.A)[0].(bson.D)
	inner[0].Value = int32(99)

	original := doc[0].Value.(bson.A)[0].(bson.D)
	if !Equal(original[0].Value, int32(1)) {
		t.Error("mutating the clone changed the original")
	}
}

func TestDocKey(t *testing.T) {
	// Equal ids render to equal keys, distinct ids to distinct keys.
	k1, err := DocKey(int32(5))
	if err != nil {
		t.Fatalf("DocKey: %v", err)
	}
	k2, _ := DocKey(int32(5))
	k3, _ := DocKey("5")
	if k1 != k2 {
		t.Error("same id produced different keys")
	}
	if k1 == k3 {
		t.Error("number and string ids collided")
	}

	// Composite ids key by content.
	c1, _ := DocKey(bson.D{{Key: "a", Value: int32(1)}})
	c2, _ := DocKey(bson.D{{Key: "a", Value: int32(2)}})
	if c1 == c2 {
		t.Error("distinct composite ids collided")
	}

	// ObjectIDs work too.
	if _, err := DocKey(primitive.NewObjectID()); err != nil {
		t.Errorf("DocKey(ObjectID): %v", err)
	}
}
