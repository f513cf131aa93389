package store

// MergeResults implements spec.md §4.1 "merge_results(inputs[]) -> output":
// merges multiple complete sub-databases entry-by-entry into outPath. For
// duplicate keys, payloads are concatenated in input order with a single
// null-byte separator (spec.md §4.1 guarantee: "the merge is associative and
// order-deterministic").
func MergeResults(inputPaths []string, outPath string, order SortOrder) error {
	type openInput struct {
		store *Store
	}
	inputs := make([]openInput, len(inputPaths))
	var dbType byte
	for i, p := range inputPaths {
		s, err := Open(p, DataAndIndex, false)
		if err != nil {
			return err
		}
		inputs[i] = openInput{store: s}
		if i == 0 {
			dbType = s.DBType()
		} else if s.DBType() != dbType {
			return newFormatError("store: merge inputs have mismatched dbtype:", p)
		}
	}
	defer func() {
		for _, in := range inputs {
			in.store.Close() // nolint: errcheck
		}
	}()

	// Collect (key -> ordered list of payloads) preserving input order, then
	// flush in a single deterministic pass. Memory cost is bounded by the
	// total merged database size, matching spec.md §4.1's description of
	// merge_results as a whole-database operation (as opposed to the
	// bounded-memory streaming merge of the split/merge orchestrator's run
	// files, see package orchestrator).
	type mergedEntry struct {
		key      uint32
		payloads [][]byte
	}
	order1 := []uint32{}
	byKey := map[uint32]*mergedEntry{}
	for _, in := range inputs {
		for _, key := range in.store.Keys() {
			payload, err := in.store.Get(key)
			if err != nil {
				return err
			}
			e, ok := byKey[key]
			if !ok {
				e = &mergedEntry{key: key}
				byKey[key] = e
				order1 = append(order1, key)
			}
			e.payloads = append(e.payloads, payload)
		}
	}

	out, err := NewShardWriter(outPath, 0, false)
	if err != nil {
		return err
	}
	for _, key := range order1 {
		e := byKey[key]
		payload := e.payloads[0]
		for _, p := range e.payloads[1:] {
			joined := make([]byte, 0, len(payload)+1+len(p))
			joined = append(joined, payload...)
			joined = append(joined, 0)
			joined = append(joined, p...)
			payload = joined
		}
		out.Append(key, payload)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return CloseShards(outPath, 1, dbType, order)
}
