package internal

// PanicOnError panics with err when it is non-nil.
// Only for invariants an earlier phase already guaranteed, e.g. a base the
// resolver accepted missing from the resolved unit. User input never panics.
func PanicOnError(err error) {
	if err != nil {
		panic(err)
	}
}
