package aggregate

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	return NewRunner(catalog.NewGate(catalog.Default()))
}

func orders() []bson.D {
	return []bson.D{
		{{Key: "_id", Value: int64(1)}, {Key: "item", Value: "ale"}, {Key: "qty", Value: int64(2)}, {Key: "price", Value: int64(5)}},
		{{Key: "_id", Value: int64(2)}, {Key: "item", Value: "cola"}, {Key: "qty", Value: int64(10)}, {Key: "price", Value: int64(2)}},
		{{Key: "_id", Value: int64(3)}, {Key: "item", Value: "ale"}, {Key: "qty", Value: int64(5)}, {Key: "price", Value: int64(5)}},
	}
}

func TestRunMatchSortLimit(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$match", Value: bson.D{{Key: "item", Value: "ale"}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "qty", Value: int64(-1)}}}},
		bson.D{{Key: "$limit", Value: int64(1)}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d documents, want 1", len(got))
	}
	if id, _ := bsonutil.GetField(got[0], "_id"); id != int64(3) {
		t.Errorf("_id = %v, want 3", id)
	}
}

func TestRunLimitMustBePositive(t *testing.T) {
	r := newTestRunner(t)
	for _, n := range []int64{0, -1} {
		_, err := r.Run(orders(), bson.A{
			bson.D{{Key: "$limit", Value: n}},
		})
		if !mongoerr.IsOperationFailure(err) {
			t.Errorf("$limit %d: error = %v, want operation failure", n, err)
		}
	}

	// $skip 0 stays legal.
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$skip", Value: int64(0)}},
	})
	if err != nil {
		t.Fatalf("$skip 0: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("$skip 0 returned %d documents, want 3", len(got))
	}
}

func TestRunSkip(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: int64(1)}}}},
		bson.D{{Key: "$skip", Value: int64(2)}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d documents, want 1", len(got))
	}
}

func TestRunProjectInclusion(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "item", Value: int64(1)},
			{Key: "total", Value: bson.D{{Key: "$multiply", Value: bson.A{"$qty", "$price"}}}},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bson.D{
		{Key: "_id", Value: int64(1)},
		{Key: "item", Value: "ale"},
		{Key: "total", Value: int64(10)},
	}
	if !bsonutil.Equal(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
}

func TestRunProjectExclusion(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "qty", Value: int64(0)},
			{Key: "price", Value: int64(0)},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bson.D{{Key: "_id", Value: int64(1)}, {Key: "item", Value: "ale"}}
	if !bsonutil.Equal(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
}

func TestRunProjectExcludeID(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: int64(0)},
			{Key: "item", Value: int64(1)},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bson.D{{Key: "item", Value: "ale"}}
	if !bsonutil.Equal(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}
}

func TestRunProjectMixedRejected(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "item", Value: int64(1)},
			{Key: "qty", Value: int64(0)},
		}}},
	})
	if err == nil {
		t.Fatal("expected error for mixed projection")
	}
}

func TestRunAddFields(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "total", Value: bson.D{{Key: "$multiply", Value: bson.A{"$qty", "$price"}}}},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v, _ := bsonutil.GetField(got[0], "total"); v != int64(10) {
		t.Errorf("total = %v, want 10", v)
	}
	// The original fields survive.
	if v, _ := bsonutil.GetField(got[0], "item"); v != "ale" {
		t.Errorf("item = %v, want ale", v)
	}
}

func TestRunGroup(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$item"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: int64(1)}}},
			{Key: "totalQty", Value: bson.D{{Key: "$sum", Value: "$qty"}}},
			{Key: "avgQty", Value: bson.D{{Key: "$avg", Value: "$qty"}}},
			{Key: "minQty", Value: bson.D{{Key: "$min", Value: "$qty"}}},
			{Key: "maxQty", Value: bson.D{{Key: "$max", Value: "$qty"}}},
			{Key: "firstID", Value: bson.D{{Key: "$first", Value: "$_id"}}},
			{Key: "allQty", Value: bson.D{{Key: "$push", Value: "$qty"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: int64(1)}}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	ale := got[0]
	checks := []struct {
		field string
		want  any
	}{
		{field: "_id", want: "ale"},
		{field: "count", want: int64(2)},
		{field: "totalQty", want: int64(7)},
		{field: "avgQty", want: 3.5},
		{field: "minQty", want: int64(2)},
		{field: "maxQty", want: int64(5)},
		{field: "firstID", want: int64(1)},
		{field: "allQty", want: bson.A{int64(2), int64(5)}},
	}
	for _, c := range checks {
		v, _ := bsonutil.GetField(ale, c.field)
		if !bsonutil.Equal(v, c.want) {
			t.Errorf("%s = %v, want %v", c.field, v, c.want)
		}
	}
}

func TestRunGroupNullID(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: int64(1)}}},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d groups, want 1", len(got))
	}
	if v, _ := bsonutil.GetField(got[0], "n"); v != int64(3) {
		t.Errorf("n = %v, want 3", v)
	}
}

func TestRunCount(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$count", Value: "n"}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d documents, want 1", len(got))
	}
	if v, _ := bsonutil.GetField(got[0], "n"); v != int32(3) {
		t.Errorf("n = %v, want 3", v)
	}
}

func TestRunCountEmptyInput(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(nil, bson.A{bson.D{{Key: "$count", Value: "n"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d documents, want 0", len(got))
	}
}

func TestRunUnwind(t *testing.T) {
	docs := []bson.D{
		{{Key: "_id", Value: int64(1)}, {Key: "tags", Value: bson.A{"a", "b"}}},
		{{Key: "_id", Value: int64(2)}, {Key: "tags", Value: bson.A{}}},
		{{Key: "_id", Value: int64(3)}},
	}
	r := newTestRunner(t)

	got, err := r.Run(docs, bson.A{bson.D{{Key: "$unwind", Value: "$tags"}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if v, _ := bsonutil.GetField(got[0], "tags"); v != "a" {
		t.Errorf("tags = %v, want a", v)
	}

	got, err = r.Run(docs, bson.A{bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$tags"},
		{Key: "preserveNullAndEmptyArrays", Value: true},
		{Key: "includeArrayIndex", Value: "i"},
	}}}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d documents, want 4", len(got))
	}
	if v, _ := bsonutil.GetField(got[0], "i"); v != int64(0) {
		t.Errorf("i = %v, want 0", v)
	}
}

func TestRunLookup(t *testing.T) {
	inventory := []bson.D{
		{{Key: "_id", Value: int64(1)}, {Key: "sku", Value: "ale"}, {Key: "stock", Value: int64(40)}},
		{{Key: "_id", Value: int64(2)}, {Key: "sku", Value: "cola"}, {Key: "stock", Value: int64(3)}},
	}
	r := newTestRunner(t)
	r.Collection = func(name string) ([]bson.D, error) {
		if name != "inventory" {
			t.Fatalf("unexpected collection %q", name)
		}
		return inventory, nil
	}
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "inventory"},
			{Key: "localField", Value: "item"},
			{Key: "foreignField", Value: "sku"},
			{Key: "as", Value: "stockInfo"},
		}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	joined, _ := bsonutil.GetField(got[0], "stockInfo")
	arr, ok := joined.(bson.A)
	if !ok || len(arr) != 1 {
		t.Fatalf("stockInfo = %v, want one match", joined)
	}
	if v, _ := bsonutil.GetField(arr[0].(bson.D), "stock"); v != int64(40) {
		t.Errorf("stock = %v, want 40", v)
	}
}

func TestRunLookupPipelineFormIsGated(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "inventory"},
			{Key: "pipeline", Value: bson.A{}},
			{Key: "as", Value: "x"},
		}}},
	})
	if !mongoerr.IsNotImplemented(err) {
		t.Errorf("expected not-implemented error, got %v", err)
	}
}

func TestRunReplaceRoot(t *testing.T) {
	docs := []bson.D{
		{{Key: "_id", Value: int64(1)}, {Key: "sub", Value: bson.D{{Key: "a", Value: int64(1)}}}},
	}
	r := newTestRunner(t)
	got, err := r.Run(docs, bson.A{
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$sub"}}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := bson.D{{Key: "a", Value: int64(1)}}
	if !bsonutil.Equal(got[0], want) {
		t.Errorf("got %v, want %v", got[0], want)
	}

	_, err = r.Run(docs, bson.A{
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$_id"}}}},
	})
	if err == nil {
		t.Error("expected error for non-document newRoot")
	}
}

func TestRunSample(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$sample", Value: bson.D{{Key: "size", Value: int64(2)}}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d documents, want 2", len(got))
	}
}

func TestRunUnsupportedStageFailsBeforeExecution(t *testing.T) {
	r := newTestRunner(t)
	// The $match would succeed, but the $graphLookup later in the
	// pipeline must reject the whole run up front.
	_, err := r.Run(orders(), bson.A{
		bson.D{{Key: "$match", Value: bson.D{}}},
		bson.D{{Key: "$graphLookup", Value: bson.D{}}},
	})
	if !mongoerr.IsNotImplemented(err) {
		t.Errorf("expected not-implemented error, got %v", err)
	}
}

func TestRunUnknownStage(t *testing.T) {
	r := newTestRunner(t)
	_, err := r.Run(orders(), bson.A{bson.D{{Key: "$bogusStage", Value: bson.D{}}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if mongoerr.IsNotImplemented(err) {
		t.Error("unknown stage must not be reported as not-implemented")
	}
}

func TestRunSetAlias(t *testing.T) {
	r := newTestRunner(t)
	got, err := r.Run(orders()[:1], bson.A{
		bson.D{{Key: "$set", Value: bson.D{{Key: "flag", Value: true}}}},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v, _ := bsonutil.GetField(got[0], "flag"); v != true {
		t.Errorf("flag = %v, want true", v)
	}
}
