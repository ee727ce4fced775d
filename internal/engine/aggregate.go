package engine

// aggregate folds the per-record values of one group. values holds the
// evaluated aggregate argument for every row in the group; groupSize is
// the row count, used by COUNT(*).
//
// Numeric coercion is uniform: SUM and AVG treat non-numeric values as
// 0, MIN and MAX skip them, COUNT counts non-null values.
func aggregate(fn string, star bool, values []any, groupSize int) any {
	switch fn {
	case "COUNT":
		if star {
			return float64(groupSize)
		}
		n := 0
		for _, v := range values {
			if !isNull(v) {
				n++
			}
		}
		return float64(n)

	case "SUM":
		sum := 0.0
		for _, v := range values {
			if f, ok := toFloat(v); ok {
				sum += f
			}
		}
		return sum

	case "AVG":
		if len(values) == 0 {
			return nil
		}
		sum := 0.0
		for _, v := range values {
			if f, ok := toFloat(v); ok {
				sum += f
			}
		}
		return sum / float64(len(values))

	case "MIN":
		var best *float64
		for _, v := range values {
			f, ok := toFloat(v)
			if !ok || v == nil {
				continue
			}
			if best == nil || f < *best {
				best = &f
			}
		}
		if best == nil {
			return nil
		}
		return *best

	case "MAX":
		var best *float64
		for _, v := range values {
			f, ok := toFloat(v)
			if !ok || v == nil {
				continue
			}
			if best == nil || f > *best {
				best = &f
			}
		}
		if best == nil {
			return nil
		}
		return *best

	default:
		return nil
	}
}
