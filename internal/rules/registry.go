package rules

// All returns fresh instances of every rule in evaluation order. Instances
// are never shared between files or passes because rules keep working
// state while checking.
func All() []Rule {
	return []Rule{
		&ImportDiscipline{},
		&ExportDiscipline{},
		&AnnotationDiscipline{},
	}
}
