package tool

// RegisterAll registers the five built-in tool handlers (spec.md §4.3) into
// r, in the canonical order the system prompt enumerates them.
func RegisterAll(r *Registry, maxExcerptLines int) error {
	defs := []*ToolDef{
		SearchChunksDef(),
		GetExcerptDef(maxExcerptLines),
		ListFilesDef(),
		GraphNeighborsDef(),
		GetRepoSummaryDef(),
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
