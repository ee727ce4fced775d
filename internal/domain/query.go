package domain

// QueryResult is the terminal output of every statement execution:
// ordered columns, ordered rows, and any errors collected along the
// way. A result never mixes rows and errors; an error path returns only
// the errors slice.
type QueryResult struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Errors  []string `json:"errors,omitempty"`
}

// Failed reports whether the result carries errors instead of rows.
func (r *QueryResult) Failed() bool { return len(r.Errors) > 0 }

// FailedResult builds an error-only result from one or more errors.
func FailedResult(errs ...error) *QueryResult {
	out := &QueryResult{}
	for _, err := range errs {
		if err != nil {
			out.Errors = append(out.Errors, err.Error())
		}
	}
	return out
}

// MessageResult builds a single-column informational result, used by
// write statements and procedural statements that produce no rows.
func MessageResult(msg string) *QueryResult {
	return &QueryResult{
		Columns: []string{"result"},
		Rows:    [][]any{{msg}},
	}
}
