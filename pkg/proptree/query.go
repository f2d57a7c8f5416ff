package proptree

// FilterQuery applies a get-property query tree to full, returning only
// the requested subtree (spec.md §4.5: "a query tree, possibly partial —
// a shape specifying which subtrees to include"). An absent, null, or
// empty-map query means "all properties": full is returned unchanged. A
// non-empty map query selects only its keys from full; a key whose query
// value is itself a non-empty map recurses into that subtree, any other
// query value (typically null) selects the whole of full's value for that
// key. Keys named in the query but absent from full are skipped.
func FilterQuery(full, query Value) Value {
	qm, ok := query.Map()
	if !ok || len(qm) == 0 {
		return full
	}
	fm, ok := full.Map()
	if !ok {
		return full
	}
	result := make(map[string]Value, len(qm))
	for key, subQuery := range qm {
		fullChild, present := fm[key]
		if !present {
			continue
		}
		if subMap, isMap := subQuery.Map(); isMap && len(subMap) > 0 {
			result[key] = FilterQuery(fullChild, subQuery)
		} else {
			result[key] = fullChild
		}
	}
	return Map(result)
}
