package ir

func (b *builder) checkSchema(doc *Document) error {
	if doc.Schema.Query == "" {
		b.addViolation(violationQueryRootMissing())
		return b.result()
	}
	roots := []struct{ kind, name string }{
		{"Query", doc.Schema.Query},
		{"Mutation", doc.Schema.Mutation},
	}
	for _, root := range roots {
		if root.name == "" {
			continue
		}
		def := doc.Definition(root.name)
		if def == nil {
			b.addViolation(violationRootTypeNotDefined(root.kind, root.name))
		} else if def.Object == nil {
			b.addViolation(violationRootTypeNotObject(root.kind, root.name))
		}
	}
	return b.result()
}
