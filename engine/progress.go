package engine

// ProgressFunc receives stage updates during analysis. Completed counts the
// finished units of work within the stage; Total may be zero for stages
// without a known unit count. Callbacks must be fast; they are invoked
// inline from worker goroutines.
type ProgressFunc func(stage string, completed, total int)

func notify(fn ProgressFunc, stage string, completed, total int) {
	if fn != nil {
		fn(stage, completed, total)
	}
}
