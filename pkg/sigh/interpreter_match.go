package sigh

// The case statement and its pattern matcher. The wildcard "_" matches
// zero or more consecutive elements in array patterns; in string
// patterns the same role is played by the in-band "\f" character, which
// is how the wildcard stringifies.

func (i *Interpreter) caseStmt(node *Case) (any, error) {
	scope := i.reactor.Get(node, "scope").(*Scope)
	i.storage = NewScopeStorage(scope, i.storage)
	i.storage.Set(scope, SymbolicName, Symbolic)

	element, err := i.eval(node.Element)
	if err != nil {
		return nil, err
	}

	for _, body := range node.Bodies {
		pattern, err := i.eval(body.Pattern)
		if err != nil {
			return nil, err
		}
		matched, err := checkPattern(node, pattern, element)
		if err != nil {
			return nil, err
		}
		if matched {
			if _, err := i.eval(body.Statements); err != nil {
				return nil, err
			}
			i.storage = i.storage.Parent
			return nil, nil
		}
	}

	if _, err := i.eval(node.DefaultBlock); err != nil {
		return nil, err
	}
	i.storage = i.storage.Parent
	return nil, nil
}

func checkPattern(node Node, pattern, element any) (bool, error) {
	if _, wildcard := pattern.(SymbolicValue); wildcard {
		return true, nil
	}

	if cells, ok := asCells(element); ok {
		patternCells, ok := asCells(pattern)
		if !ok {
			return false, NewRuntimeError(node, "matching a non-array pattern against an array")
		}
		return matchCells(patternCells, cells), nil
	}

	if subject, ok := element.(string); ok {
		text, ok := pattern.(string)
		if !ok {
			return false, NewRuntimeError(node, "matching a non-string pattern against a string")
		}
		return matchString(text, subject), nil
	}

	return structuralEquals(pattern, element), nil
}

// asCells views arrays and matrices uniformly as a sequence of
// elements, with matrix rows surfacing as arrays.
func asCells(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case [][]any:
		cells := make([]any, len(arr))
		for i, row := range arr {
			cells[i] = row
		}
		return cells, true
	}
	return nil, false
}

func isWildcard(v any) bool {
	_, ok := v.(SymbolicValue)
	return ok
}

// matchCells matches a pattern against a subject position by position.
// A wildcard in the pattern matches zero or more consecutive subject
// elements: it is either consumed alone or left in place while the
// subject advances. The pattern must not contain two consecutive
// wildcards (rejected during analysis).
func matchCells(pattern, subject []any) bool {
	if len(pattern) == 0 && len(subject) == 0 {
		return true
	}

	// elements following a wildcard still need subject elements to
	// match against
	if len(pattern) > 1 && isWildcard(pattern[0]) && len(subject) == 0 {
		return false
	}

	if len(pattern) != 0 && len(subject) != 0 {
		patternHead, patternIsArray := asCells(pattern[0])
		subjectHead, subjectIsArray := asCells(subject[0])
		switch {
		case patternIsArray && subjectIsArray:
			if matchCells(patternHead, subjectHead) {
				return matchCells(pattern[1:], subject[1:])
			}
		case !patternIsArray && !subjectIsArray && !isWildcard(pattern[0]):
			if structuralEquals(pattern[0], subject[0]) {
				return matchCells(pattern[1:], subject[1:])
			}
		}
	}

	if len(pattern) > 0 && isWildcard(pattern[0]) {
		return matchCells(pattern[1:], subject) ||
			(len(subject) > 0 && matchCells(pattern, subject[1:]))
	}
	return false
}

// matchString is the same algorithm over characters, with '\f' as the
// wildcard.
func matchString(pattern, subject string) bool {
	if len(pattern) == 0 && len(subject) == 0 {
		return true
	}

	if len(pattern) > 1 && pattern[0] == '\f' && len(subject) == 0 {
		return false
	}

	if len(pattern) != 0 && len(subject) != 0 && pattern[0] != '\f' && pattern[0] == subject[0] {
		return matchString(pattern[1:], subject[1:])
	}

	if len(pattern) > 0 && pattern[0] == '\f' {
		return matchString(pattern[1:], subject) ||
			(len(subject) > 0 && matchString(pattern, subject[1:]))
	}
	return false
}
