package ir

import "fmt"

// dataFetchingDirectives lists every directive that decides where a field's
// value comes from. conflicts must hold one entry per pair.
var dataFetchingDirectives = []string{"http", "const", "inline"}

type conflict struct {
	winner string
	loser  string
	// message renders the diagnostic for a field carrying both directives.
	message func(typeName, fieldName string) string
}

var conflicts = []conflict{
	{winner: "const", loser: "inline", message: resolverBlocksInline("const")},
	{winner: "http", loser: "inline", message: resolverBlocksInline("http")},
	{winner: "http", loser: "const", message: multipleResolvers("http", "const")},
}

func resolverBlocksInline(resolver string) func(string, string) string {
	return func(typeName, fieldName string) string {
		return messageInlineBlocked(resolver, typeName, fieldName)
	}
}

func multipleResolvers(a, b string) func(string, string) string {
	return func(typeName, fieldName string) string {
		return fmt.Sprintf("Multiple resolvers detected [@%s, @%s] at [%s.%s]", a, b, typeName, fieldName)
	}
}

func messageInlineBlocked(resolver, typeName, fieldName string) string {
	return fmt.Sprintf("Inline can't be done because of %s resolver at [%s.%s]", resolver, typeName, fieldName)
}

const messageInlinePathMissing = "Inline can't be done because provided path doesn't exist"

// findConflict returns the first table entry matched by the directives of f.
func findConflict(f *FieldDefinition) *conflict {
	present := make(map[string]bool, len(f.Directives))
	for _, d := range f.Directives {
		present[d.DirectiveName()] = true
	}
	for i := range conflicts {
		c := &conflicts[i]
		if present[c.winner] && present[c.loser] {
			return c
		}
	}
	return nil
}
