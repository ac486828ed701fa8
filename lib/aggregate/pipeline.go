package aggregate

import (
	"fmt"
	"math/rand"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
	"github.com/mongomock/mongomock/lib/query"
)

// Runner executes aggregation pipelines over an in-memory document slice.
type Runner struct {
	gate    *catalog.Gate
	matcher *query.Matcher

	// Collection resolves another collection of the same database for
	// $lookup. Left nil, $lookup fails.
	Collection func(name string) ([]bson.D, error)
}

// NewRunner creates a pipeline runner deciding against the given gate.
func NewRunner(gate *catalog.Gate) *Runner {
	return &Runner{gate: gate, matcher: query.NewMatcher(gate)}
}

// Run executes the pipeline and returns the resulting documents. All stage
// names are gated up front, so a pipeline containing an unsupported stage
// fails before the first stage touches a document.
func (r *Runner) Run(docs []bson.D, pipeline bson.A) ([]bson.D, error) {
	stages := make([]bson.E, 0, len(pipeline))
	for _, raw := range pipeline {
		stage, ok := raw.(bson.D)
		if !ok || len(stage) != 1 {
			return nil, mongoerr.OperationFailure(
				"A pipeline stage specification object must contain exactly one field.", 40323)
		}
		if err := r.gate.Check(catalog.CategoryStage, stage[0].Key); err != nil {
			return nil, err
		}
		stages = append(stages, stage[0])
	}

	out := make([]bson.D, len(docs))
	copy(out, docs)
	var err error
	for _, stage := range stages {
		switch stage.Key {
		case "$match":
			out, err = r.runMatch(out, stage.Value)
		case "$project":
			out, err = r.runProject(out, stage.Value)
		case "$addFields", "$set":
			out, err = r.runAddFields(out, stage.Value)
		case "$group":
			out, err = r.runGroup(out, stage.Value)
		case "$sort":
			spec, ok := stage.Value.(bson.D)
			if !ok {
				return nil, mongoerr.OperationFailure("the $sort key specification must be an object", 15973)
			}
			err = query.Sort(out, spec)
		case "$skip":
			out, err = runSkip(out, stage.Value)
		case "$limit":
			out, err = runLimit(out, stage.Value)
		case "$count":
			out, err = runCount(out, stage.Value)
		case "$unwind":
			out, err = r.runUnwind(out, stage.Value)
		case "$lookup":
			out, err = r.runLookup(out, stage.Value)
		case "$replaceRoot":
			out, err = r.runReplaceRoot(out, stage.Value)
		case "$sample":
			out, err = runSample(out, stage.Value)
		default:
			err = mongoerr.NotImplemented("aggregation stage " + stage.Key)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Filtering and Shaping Stages
// --------------------------------------------------------------------------

func (r *Runner) runMatch(docs []bson.D, spec any) ([]bson.D, error) {
	filter, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("the match filter must be an expression in an object", 15959)
	}
	out := []bson.D{}
	for _, doc := range docs {
		matched, err := r.matcher.Matches(filter, doc)
		if err != nil {
			return nil, err
		}
		if matched {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (r *Runner) runProject(docs []bson.D, spec any) ([]bson.D, error) {
	proj, ok := spec.(bson.D)
	if !ok || len(proj) == 0 {
		return nil, mongoerr.OperationFailure("$project specification must be a non-empty object", 51272)
	}

	// A projection is either inclusive or exclusive; _id may be excluded
	// from an inclusive projection but nothing else mixes.
	inclusive := false
	for _, field := range proj {
		if field.Key == "_id" {
			continue
		}
		if !isExclusion(field.Value) {
			inclusive = true
			break
		}
	}
	for _, field := range proj {
		if field.Key == "_id" {
			continue
		}
		if inclusive && isExclusion(field.Value) {
			return nil, mongoerr.OperationFailure(fmt.Sprintf(
				"Cannot do exclusion on field %s in inclusion projection", field.Key), 31396)
		}
	}

	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		ev := newEvaluator(r.gate, doc)
		var result bson.D
		if inclusive {
			result = bson.D{}
			includeID := true
			if v, ok := bsonutil.GetField(proj, "_id"); ok && isExclusion(v) {
				includeID = false
			}
			if includeID {
				if id, ok := bsonutil.GetField(doc, "_id"); ok {
					result = append(result, bson.E{Key: "_id", Value: id})
				}
			}
			for _, field := range proj {
				if field.Key == "_id" {
					continue
				}
				val, err := projectField(ev, doc, field)
				if err != nil {
					return nil, err
				}
				if !bsonutil.IsMissing(val) {
					result = bsonutil.SetPath(result, field.Key, val)
				}
			}
		} else {
			result = bsonutil.CloneDoc(doc)
			for _, field := range proj {
				result = bsonutil.UnsetPath(result, field.Key)
			}
		}
		out = append(out, result)
	}
	return out, nil
}

// projectField resolves one inclusive projection entry: a truthy literal
// includes the document's own value, anything else is a computed
// expression.
func projectField(ev *evaluator, doc bson.D, field bson.E) (any, error) {
	if isInclusion(field.Value) {
		v, ok := bsonutil.LookupPath(doc, field.Key)
		if !ok {
			return bsonutil.Missing, nil
		}
		return v, nil
	}
	return ev.eval(field.Value, doc)
}

func isExclusion(v any) bool {
	if b, ok := v.(bool); ok {
		return !b
	}
	if f, ok := bsonutil.ToFloat(v); ok {
		return f == 0
	}
	return false
}

func isInclusion(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := bsonutil.ToFloat(v); ok {
		return f != 0
	}
	return false
}

func (r *Runner) runAddFields(docs []bson.D, spec any) ([]bson.D, error) {
	fields, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("$addFields specification must be an object", 40272)
	}
	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		ev := newEvaluator(r.gate, doc)
		result := bsonutil.CloneDoc(doc)
		for _, field := range fields {
			val, err := ev.eval(field.Value, doc)
			if err != nil {
				return nil, err
			}
			if bsonutil.IsMissing(val) {
				continue
			}
			result = bsonutil.SetPath(result, field.Key, val)
		}
		out = append(out, result)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Slicing Stages
// --------------------------------------------------------------------------

func runSkip(docs []bson.D, spec any) ([]bson.D, error) {
	n, ok := bsonutil.ToInt(spec)
	if !ok || n < 0 {
		return nil, mongoerr.OperationFailure("invalid argument to $skip stage", 5107200)
	}
	if n >= int64(len(docs)) {
		return []bson.D{}, nil
	}
	return docs[n:], nil
}

func runLimit(docs []bson.D, spec any) ([]bson.D, error) {
	n, ok := bsonutil.ToInt(spec)
	if !ok || n <= 0 {
		return nil, mongoerr.OperationFailure("the limit must be positive", 15958)
	}
	if n < int64(len(docs)) {
		return docs[:n], nil
	}
	return docs, nil
}

func runCount(docs []bson.D, spec any) ([]bson.D, error) {
	name, ok := spec.(string)
	if !ok || name == "" {
		return nil, mongoerr.OperationFailure("the count field must be a non-empty string", 40156)
	}
	if strings.HasPrefix(name, "$") {
		return nil, mongoerr.OperationFailure("the count field cannot be a $-prefixed path", 40158)
	}
	if strings.Contains(name, ".") {
		return nil, mongoerr.OperationFailure("the count field cannot contain '.'", 40160)
	}
	if len(docs) == 0 {
		return []bson.D{}, nil
	}
	return []bson.D{{{Key: name, Value: int32(len(docs))}}}, nil
}

func runSample(docs []bson.D, spec any) ([]bson.D, error) {
	d, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("the $sample stage specification must be an object", 28745)
	}
	sizeRaw, ok := bsonutil.GetField(d, "size")
	if !ok {
		return nil, mongoerr.OperationFailure("$sample stage must specify a size", 28749)
	}
	n, ok := bsonutil.ToInt(sizeRaw)
	if !ok || n < 0 {
		return nil, mongoerr.OperationFailure("size argument to $sample must be a non-negative number", 28747)
	}
	if n >= int64(len(docs)) {
		return docs, nil
	}
	out := make([]bson.D, 0, n)
	for _, i := range rand.Perm(len(docs))[:n] {
		out = append(out, docs[i])
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Restructuring Stages
// --------------------------------------------------------------------------

func (r *Runner) runUnwind(docs []bson.D, spec any) ([]bson.D, error) {
	var path string
	var indexField string
	preserveEmpty := false
	switch s := spec.(type) {
	case string:
		path = s
	case bson.D:
		p, ok := bsonutil.GetField(s, "path")
		if !ok {
			return nil, mongoerr.OperationFailure("no path specified to $unwind stage", 28812)
		}
		path, ok = p.(string)
		if !ok {
			return nil, mongoerr.OperationFailure("expected a string as the path for $unwind stage", 28808)
		}
		if v, ok := bsonutil.GetField(s, "includeArrayIndex"); ok {
			name, ok := v.(string)
			if !ok || strings.HasPrefix(name, "$") {
				return nil, mongoerr.OperationFailure(
					"includeArrayIndex option to $unwind stage should not be prefixed with a '$'", 28822)
			}
			indexField = name
		}
		if v, ok := bsonutil.GetField(s, "preserveNullAndEmptyArrays"); ok {
			b, ok := v.(bool)
			if !ok {
				return nil, mongoerr.OperationFailure(
					"expected a boolean for the preserveNullAndEmptyArrays option to $unwind stage", 28809)
			}
			preserveEmpty = b
		}
	default:
		return nil, mongoerr.OperationFailure(
			"expected either a string or an object as specification for $unwind stage", 15981)
	}
	if !strings.HasPrefix(path, "$") {
		return nil, mongoerr.OperationFailure("path option to $unwind stage should be prefixed with a '$'", 28818)
	}
	path = path[1:]

	out := []bson.D{}
	for _, doc := range docs {
		v, found := bsonutil.LookupPath(doc, path)
		arr, isArr := v.(bson.A)
		switch {
		case !found || v == nil || (isArr && len(arr) == 0):
			if preserveEmpty {
				kept := bsonutil.CloneDoc(doc)
				if isArr {
					kept = bsonutil.UnsetPath(kept, path)
				}
				if indexField != "" {
					kept = bsonutil.SetPath(kept, indexField, nil)
				}
				out = append(out, kept)
			}
		case !isArr:
			kept := bsonutil.CloneDoc(doc)
			if indexField != "" {
				kept = bsonutil.SetPath(kept, indexField, nil)
			}
			out = append(out, kept)
		default:
			for i, item := range arr {
				unwound := bsonutil.SetPath(bsonutil.CloneDoc(doc), path, item)
				if indexField != "" {
					unwound = bsonutil.SetPath(unwound, indexField, int64(i))
				}
				out = append(out, unwound)
			}
		}
	}
	return out, nil
}

func (r *Runner) runLookup(docs []bson.D, spec any) ([]bson.D, error) {
	s, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("the $lookup specification must be an object", 4569)
	}
	if bsonutil.HasPath(s, "let") || bsonutil.HasPath(s, "pipeline") {
		return nil, mongoerr.NotImplementedMsg(
			"the $lookup let/pipeline form is not implemented; only equality joins " +
				"with localField and foreignField are")
	}
	from, okFrom := stringField(s, "from")
	local, okLocal := stringField(s, "localField")
	foreign, okForeign := stringField(s, "foreignField")
	as, okAs := stringField(s, "as")
	if !okFrom || !okLocal || !okForeign || !okAs {
		return nil, mongoerr.OperationFailure(
			"must specify 'from', 'localField', 'foreignField' and 'as' fields for a $lookup", 4572)
	}
	if strings.Contains(local, ".") || strings.Contains(as, ".") {
		return nil, mongoerr.NotImplementedMsg(
			"dotted localField or as paths in $lookup are not implemented")
	}
	if r.Collection == nil {
		return nil, mongoerr.OperationFailure("cannot resolve $lookup collection '"+from+"'", 4569)
	}
	foreignDocs, err := r.Collection(from)
	if err != nil {
		return nil, err
	}

	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		lv, found := bsonutil.LookupPath(doc, local)
		if !found {
			lv = nil
		}
		locals, ok := lv.(bson.A)
		if !ok {
			locals = bson.A{lv}
		}
		matches := bson.A{}
		for _, fd := range foreignDocs {
			fv, found := bsonutil.LookupPath(fd, foreign)
			if !found {
				fv = nil
			}
			foreigns, ok := fv.(bson.A)
			if !ok {
				foreigns = bson.A{fv}
			}
			if anyOverlap(locals, foreigns) {
				matches = append(matches, bsonutil.CloneDoc(fd))
			}
		}
		out = append(out, bsonutil.SetPath(bsonutil.CloneDoc(doc), as, matches))
	}
	return out, nil
}

func anyOverlap(a, b bson.A) bool {
	for _, x := range a {
		for _, y := range b {
			if bsonutil.Equal(x, y) {
				return true
			}
		}
	}
	return false
}

func stringField(doc bson.D, name string) (string, bool) {
	v, ok := bsonutil.GetField(doc, name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (r *Runner) runReplaceRoot(docs []bson.D, spec any) ([]bson.D, error) {
	s, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("the $replaceRoot stage specification must be an object", 40229)
	}
	newRoot, ok := bsonutil.GetField(s, "newRoot")
	if !ok {
		return nil, mongoerr.OperationFailure("no newRoot specified for the $replaceRoot stage", 40231)
	}
	out := make([]bson.D, 0, len(docs))
	for _, doc := range docs {
		ev := newEvaluator(r.gate, doc)
		v, err := ev.eval(newRoot, doc)
		if err != nil {
			return nil, err
		}
		root, ok := v.(bson.D)
		if !ok {
			return nil, mongoerr.OperationFailure(fmt.Sprintf(
				"'newRoot' expression must evaluate to an object, but resulting value was: %v", v), 40228)
		}
		out = append(out, root)
	}
	return out, nil
}
