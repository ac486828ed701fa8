package catalog

// This file is the executable form of the project's feature-gap
// documentation: one entry per operator the library recognizes, with the
// status the engines actually deliver. Flipping an entry to Supported
// without the matching implementation and test breaks the compatibility
// contract, so don't.

func entries(category Category, status Status, names ...string) []Entry {
	out := make([]Entry, 0, len(names))
	for _, n := range names {
		out = append(out, Entry{Name: n, Category: category, Status: status})
	}
	return out
}

// Default returns the catalog matching the engines shipped in this module.
func Default() *Catalog {
	var all []Entry

	// Query operators (lib/query).
	all = append(all, entries(CategoryQuery, StatusSupported,
		"$eq", "$ne", "$gt", "$gte", "$lt", "$lte",
		"$in", "$nin", "$exists", "$regex", "$size", "$all",
		"$mod", "$type", "$elemMatch", "$not", "$and", "$or", "$nor",
	)...)
	all = append(all, entries(CategoryQuery, StatusUnsupported,
		"$text", "$where", "$expr", "$jsonSchema",
		"$near", "$nearSphere", "$geoWithin", "$geoIntersects",
		"$bitsAllClear", "$bitsAllSet", "$bitsAnyClear", "$bitsAnySet",
		"$comment", "$options",
	)...)

	// Update operators (lib/update).
	all = append(all, entries(CategoryUpdate, StatusSupported,
		"$set", "$unset", "$inc", "$mul", "$min", "$max",
		"$currentDate", "$setOnInsert",
		"$push", "$addToSet", "$pull", "$pullAll", "$pop",
	)...)
	all = append(all, Entry{
		Name: "$rename", Category: CategoryUpdate, Status: StatusPartial,
		Note: "dotted source or target field names are not implemented",
	})
	all = append(all, entries(CategoryUpdate, StatusUnsupported, "$bit")...)

	// Aggregation pipeline stages (lib/aggregate).
	all = append(all, entries(CategoryStage, StatusSupported,
		"$match", "$project", "$addFields", "$set", "$group",
		"$sort", "$skip", "$limit", "$count", "$unwind",
		"$replaceRoot", "$sample",
	)...)
	all = append(all, Entry{
		Name: "$lookup", Category: CategoryStage, Status: StatusPartial,
		Note: "equality joins only; the let/pipeline form is not implemented",
	})
	all = append(all, entries(CategoryStage, StatusUnsupported,
		"$bucket", "$bucketAuto", "$collStats", "$currentOp", "$facet",
		"$geoNear", "$graphLookup", "$indexStats", "$listLocalSessions",
		"$listSessions", "$merge", "$out", "$planCacheStats", "$redact",
		"$replaceWith", "$sortByCount", "$unset",
	)...)

	// Aggregation expressions (lib/aggregate).
	all = append(all, entries(CategoryExpression, StatusSupported,
		// arithmetic
		"$abs", "$add", "$ceil", "$divide", "$floor", "$mod",
		"$multiply", "$pow", "$sqrt", "$subtract", "$trunc",
		// comparison
		"$cmp", "$eq", "$ne", "$gt", "$gte", "$lt", "$lte",
		// boolean and control flow
		"$and", "$or", "$not", "$cond", "$ifNull", "$switch",
		// string
		"$concat", "$toLower", "$toUpper", "$split",
		"$strLenCP", "$strcasecmp", "$substrCP",
		// array and set
		"$size", "$filter", "$slice", "$isArray", "$concatArrays",
		"$arrayElemAt", "$indexOfArray", "$range", "$reverseArray", "$in",
		// literal and type conversion
		"$literal", "$toString", "$toInt",
		// date
		"$year", "$month", "$dayOfMonth", "$hour", "$minute",
		"$second", "$millisecond", "$dayOfWeek", "$dayOfYear",
	)...)
	all = append(all, entries(CategoryExpression, StatusUnsupported,
		"$exp", "$ln", "$log", "$log10",
		"$map", "$let", "$reduce", "$zip", "$mergeObjects", "$meta",
		"$dateToString", "$dateFromString", "$isoDayOfWeek", "$isoWeek",
		"$isoWeekYear", "$week",
		"$indexOfBytes", "$indexOfCP", "$strLenBytes", "$substr",
		"$substrBytes", "$regexMatch",
		"$setEquals", "$setIntersection", "$setDifference", "$setUnion",
		"$setIsSubset", "$anyElementTrue", "$allElementsTrue",
		"$toDecimal", "$toLong", "$toDouble", "$toBool", "$toDate",
		"$toObjectId", "$arrayToObject", "$objectToArray", "$type",
	)...)

	// Group accumulators (lib/aggregate).
	all = append(all, entries(CategoryAccumulator, StatusSupported,
		"$sum", "$avg", "$min", "$max", "$first", "$last", "$push", "$addToSet",
	)...)
	all = append(all, entries(CategoryAccumulator, StatusUnsupported,
		"$stdDevPop", "$stdDevSamp", "$mergeObjects",
	)...)

	c, err := New(all)
	if err != nil {
		// The default entry set is a compile-time constant; a duplicate is
		// a bug in this file.
		panic(err)
	}
	return c
}
