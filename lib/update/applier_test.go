package update

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

func newTestApplier(t *testing.T) *Applier {
	t.Helper()
	return NewApplier(catalog.NewGate(catalog.Default()))
}

func TestApplyFieldOperators(t *testing.T) {
	tests := []struct {
		name   string
		doc    bson.D
		update bson.D
		want   bson.D
	}{
		{
			name:   "set top level",
			doc:    bson.D{{Key: "a", Value: int64(1)}},
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "b", Value: "x"}}}},
			want:   bson.D{{Key: "a", Value: int64(1)}, {Key: "b", Value: "x"}},
		},
		{
			name:   "set dotted creates subdocument",
			doc:    bson.D{},
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "a.b", Value: int64(2)}}}},
			want:   bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: int64(2)}}}},
		},
		{
			name:   "unset removes field",
			doc:    bson.D{{Key: "a", Value: int64(1)}, {Key: "b", Value: int64(2)}},
			update: bson.D{{Key: "$unset", Value: bson.D{{Key: "a", Value: ""}}}},
			want:   bson.D{{Key: "b", Value: int64(2)}},
		},
		{
			name:   "inc existing",
			doc:    bson.D{{Key: "n", Value: int64(5)}},
			update: bson.D{{Key: "$inc", Value: bson.D{{Key: "n", Value: int64(3)}}}},
			want:   bson.D{{Key: "n", Value: int64(8)}},
		},
		{
			name:   "inc missing seeds operand",
			doc:    bson.D{},
			update: bson.D{{Key: "$inc", Value: bson.D{{Key: "n", Value: int64(3)}}}},
			want:   bson.D{{Key: "n", Value: int64(3)}},
		},
		{
			name:   "mul missing seeds zero",
			doc:    bson.D{},
			update: bson.D{{Key: "$mul", Value: bson.D{{Key: "n", Value: int64(3)}}}},
			want:   bson.D{{Key: "n", Value: int64(0)}},
		},
		{
			name:   "min keeps smaller",
			doc:    bson.D{{Key: "n", Value: int64(5)}},
			update: bson.D{{Key: "$min", Value: bson.D{{Key: "n", Value: int64(3)}}}},
			want:   bson.D{{Key: "n", Value: int64(3)}},
		},
		{
			name:   "max ignores smaller",
			doc:    bson.D{{Key: "n", Value: int64(5)}},
			update: bson.D{{Key: "$max", Value: bson.D{{Key: "n", Value: int64(3)}}}},
			want:   bson.D{{Key: "n", Value: int64(5)}},
		},
		{
			name:   "rename moves value",
			doc:    bson.D{{Key: "a", Value: int64(1)}},
			update: bson.D{{Key: "$rename", Value: bson.D{{Key: "a", Value: "b"}}}},
			want:   bson.D{{Key: "b", Value: int64(1)}},
		},
		{
			name:   "rename missing source is a no-op",
			doc:    bson.D{{Key: "a", Value: int64(1)}},
			update: bson.D{{Key: "$rename", Value: bson.D{{Key: "x", Value: "y"}}}},
			want:   bson.D{{Key: "a", Value: int64(1)}},
		},
	}
	a := newTestApplier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Apply(tt.doc, tt.update, Options{})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !bsonutil.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	a := newTestApplier(t)
	doc := bson.D{{Key: "n", Value: int64(1)}}
	if _, err := a.Apply(doc, bson.D{{Key: "$set", Value: bson.D{{Key: "n", Value: int64(2)}}}}, Options{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if doc[0].Value != int64(1) {
		t.Errorf("input mutated: %v", doc)
	}
}

func TestApplySetOnInsert(t *testing.T) {
	a := newTestApplier(t)
	update := bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: "created", Value: true}}}}

	got, err := a.Apply(bson.D{}, update, Options{WasInsert: true})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := bsonutil.GetField(got, "created"); !ok {
		t.Error("$setOnInsert did not apply on insert")
	}

	got, err = a.Apply(bson.D{}, update, Options{WasInsert: false})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if _, ok := bsonutil.GetField(got, "created"); ok {
		t.Error("$setOnInsert applied to an existing document")
	}
}

func TestApplyArrayOperators(t *testing.T) {
	tests := []struct {
		name   string
		doc    bson.D
		update bson.D
		want   any
	}{
		{
			name:   "push appends",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1)}}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: int64(2)}}}},
			want:   bson.A{int64(1), int64(2)},
		},
		{
			name: "push each",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1)}}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$each", Value: bson.A{int64(2), int64(3)}},
			}}}}},
			want: bson.A{int64(1), int64(2), int64(3)},
		},
		{
			name: "push each with position",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1), int64(4)}}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$each", Value: bson.A{int64(2), int64(3)}},
				{Key: "$position", Value: int64(1)},
			}}}}},
			want: bson.A{int64(1), int64(2), int64(3), int64(4)},
		},
		{
			name: "push each with slice keeps tail",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1), int64(2)}}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$each", Value: bson.A{int64(3), int64(4)}},
				{Key: "$slice", Value: int64(-2)},
			}}}}},
			want: bson.A{int64(3), int64(4)},
		},
		{
			name: "push each with sort",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(3)}}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$each", Value: bson.A{int64(1), int64(2)}},
				{Key: "$sort", Value: int64(1)},
			}}}}},
			want: bson.A{int64(1), int64(2), int64(3)},
		},
		{
			name:   "push to missing field creates array",
			doc:    bson.D{},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: int64(1)}}}},
			want:   bson.A{int64(1)},
		},
		{
			name:   "addToSet skips duplicates",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1), int64(2)}}},
			update: bson.D{{Key: "$addToSet", Value: bson.D{{Key: "a", Value: int64(2)}}}},
			want:   bson.A{int64(1), int64(2)},
		},
		{
			name: "addToSet each",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1)}}},
			update: bson.D{{Key: "$addToSet", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$each", Value: bson.A{int64(1), int64(2)}},
			}}}}},
			want: bson.A{int64(1), int64(2)},
		},
		{
			name:   "pull by equality",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1), int64(2), int64(1)}}},
			update: bson.D{{Key: "$pull", Value: bson.D{{Key: "a", Value: int64(1)}}}},
			want:   bson.A{int64(2)},
		},
		{
			name: "pull by condition",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1), int64(5), int64(9)}}},
			update: bson.D{{Key: "$pull", Value: bson.D{{Key: "a", Value: bson.D{
				{Key: "$gte", Value: int64(5)},
			}}}}},
			want: bson.A{int64(1)},
		},
		{
			name: "pullAll removes listed values",
			doc:  bson.D{{Key: "a", Value: bson.A{int64(1), int64(2), int64(3)}}},
			update: bson.D{{Key: "$pullAll", Value: bson.D{{Key: "a", Value: bson.A{
				int64(1), int64(3),
			}}}}},
			want: bson.A{int64(2)},
		},
		{
			name:   "pop last",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1), int64(2)}}},
			update: bson.D{{Key: "$pop", Value: bson.D{{Key: "a", Value: int64(1)}}}},
			want:   bson.A{int64(1)},
		},
		{
			name:   "pop first",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1), int64(2)}}},
			update: bson.D{{Key: "$pop", Value: bson.D{{Key: "a", Value: int64(-1)}}}},
			want:   bson.A{int64(2)},
		},
	}
	a := newTestApplier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Apply(tt.doc, tt.update, Options{})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			arr, _ := bsonutil.GetField(got, "a")
			if !bsonutil.Equal(arr, tt.want) {
				t.Errorf("got %v, want %v", arr, tt.want)
			}
		})
	}
}

func TestApplyPositional(t *testing.T) {
	tests := []struct {
		name   string
		doc    bson.D
		filter bson.D
		update bson.D
		want   bson.A
	}{
		{
			name:   "match at first element",
			doc:    bson.D{{Key: "grades", Value: bson.A{int64(80), int64(92), int64(80)}}},
			filter: bson.D{{Key: "grades", Value: int64(80)}},
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "grades.$", Value: int64(82)}}}},
			want:   bson.A{int64(82), int64(92), int64(80)},
		},
		{
			name:   "match at later element",
			doc:    bson.D{{Key: "grades", Value: bson.A{int64(80), int64(85), int64(90)}}},
			filter: bson.D{{Key: "grades", Value: int64(85)}},
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "grades.$", Value: int64(100)}}}},
			want:   bson.A{int64(80), int64(100), int64(90)},
		},
		{
			name:   "operator condition picks the first qualifying element",
			doc:    bson.D{{Key: "grades", Value: bson.A{int64(80), int64(85), int64(90)}}},
			filter: bson.D{{Key: "grades", Value: bson.D{{Key: "$gte", Value: int64(85)}}}},
			update: bson.D{{Key: "$inc", Value: bson.D{{Key: "grades.$", Value: int64(1)}}}},
			want:   bson.A{int64(80), int64(86), int64(90)},
		},
	}
	a := newTestApplier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Apply(tt.doc, tt.update, Options{Filter: tt.filter})
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			arr, _ := bsonutil.GetField(got, "grades")
			if !bsonutil.Equal(arr, tt.want) {
				t.Errorf("got %v, want %v", arr, tt.want)
			}
		})
	}
}

func TestApplyPositionalSubdocument(t *testing.T) {
	a := newTestApplier(t)
	doc := bson.D{{Key: "items", Value: bson.A{
		bson.D{{Key: "sku", Value: "a"}, {Key: "qty", Value: int64(1)}},
		bson.D{{Key: "sku", Value: "b"}, {Key: "qty", Value: int64(2)}},
	}}}
	filter := bson.D{{Key: "items.sku", Value: "b"}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "items.$.qty", Value: int64(7)}}}}

	got, err := a.Apply(doc, update, Options{Filter: filter})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	v, ok := bsonutil.LookupPath(got, "items.1.qty")
	if !ok || v != int64(7) {
		t.Errorf("items.1.qty = %v, want 7", v)
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     bson.D
		update  bson.D
		notImpl bool
	}{
		{
			name:    "bit is gated",
			doc:     bson.D{{Key: "n", Value: int64(1)}},
			update:  bson.D{{Key: "$bit", Value: bson.D{{Key: "n", Value: bson.D{{Key: "and", Value: int64(1)}}}}}},
			notImpl: true,
		},
		{
			name: "rename with dots is gated",
			doc:  bson.D{{Key: "a", Value: bson.D{{Key: "b", Value: int64(1)}}}},
			update: bson.D{{Key: "$rename", Value: bson.D{
				{Key: "a.b", Value: "c"},
			}}},
			notImpl: true,
		},
		{
			name:   "inc non-numeric field",
			doc:    bson.D{{Key: "n", Value: "x"}},
			update: bson.D{{Key: "$inc", Value: bson.D{{Key: "n", Value: int64(1)}}}},
		},
		{
			name:   "push to non-array",
			doc:    bson.D{{Key: "a", Value: int64(1)}},
			update: bson.D{{Key: "$push", Value: bson.D{{Key: "a", Value: int64(2)}}}},
		},
		{
			name:   "pop bad argument",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1)}}},
			update: bson.D{{Key: "$pop", Value: bson.D{{Key: "a", Value: int64(2)}}}},
		},
		{
			name:   "positional without matching filter",
			doc:    bson.D{{Key: "a", Value: bson.A{int64(1)}}},
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "a.$", Value: int64(2)}}}},
		},
	}
	a := newTestApplier(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Apply(tt.doc, tt.update, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.notImpl && !mongoerr.IsNotImplemented(err) {
				t.Errorf("expected not-implemented error, got %v", err)
			}
		})
	}
}

func TestValidateForUpdate(t *testing.T) {
	tests := []struct {
		name    string
		update  bson.D
		wantErr bool
	}{
		{
			name:   "operators only",
			update: bson.D{{Key: "$set", Value: bson.D{{Key: "a", Value: int64(1)}}}},
		},
		{
			name:   "plain replacement",
			update: bson.D{{Key: "a", Value: int64(1)}},
		},
		{
			name: "mixed is rejected",
			update: bson.D{
				{Key: "$set", Value: bson.D{{Key: "a", Value: int64(1)}}},
				{Key: "b", Value: int64(2)},
			},
			wantErr: true,
		},
		{
			name:    "empty is rejected",
			update:  bson.D{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateForUpdate(tt.update)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateForUpdate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateForReplace(t *testing.T) {
	if err := ValidateForReplace(bson.D{{Key: "a", Value: int64(1)}}); err != nil {
		t.Errorf("plain document rejected: %v", err)
	}
	if err := ValidateForReplace(bson.D{{Key: "$set", Value: bson.D{}}}); err == nil {
		t.Error("operator document accepted as replacement")
	}
}
