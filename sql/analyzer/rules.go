package analyzer

// OnceBeforeDefault contains the rules that rewrite the plan into the shape
// the pruning rules understand. They're applied just once.
var OnceBeforeDefault = []Rule{
	{"replace_cross_joins", replaceCrossJoins},
}

// OnceAfterDefault contains the rules that annotate the final plan. They're
// applied just once.
var OnceAfterDefault = []Rule{
	{"dips_pruning", dipsPruning},
}
