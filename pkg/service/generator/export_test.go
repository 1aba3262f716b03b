package generator

// BuildPrompt exposes prompt rendering for tests
func BuildPrompt(g any, question string, contexts []string) (string, error) {
	return g.(*generator).BuildPrompt(question, contexts)
}
