package ram

// Relation declares a named relation with a fixed attribute list. Output
// relations are the ones a consumer is expected to surface after execution.
type Relation struct {
	Name       string
	Attributes []string
	Output     bool
}

func (r Relation) Arity() int {
	return len(r.Attributes)
}

// Program is a fully-formed RAM tree handed over by the translator: relation
// declarations plus one body statement. The optimizer mutates it by
// whole-subtree replacement only; no node is ever shared between positions.
type Program struct {
	Relations []Relation
	Body      Statement
}

// Relation finds a declaration by name.
func (p *Program) Relation(name string) (Relation, bool) {
	for i := range p.Relations {
		if p.Relations[i].Name == name {
			return p.Relations[i], true
		}
	}
	return Relation{}, false
}

// Clone returns a deep copy of the program. Passes rebuild subtrees out of
// fresh nodes, so a clone shares nothing with the original.
func (p *Program) Clone() Program {
	t := Transformers{}
	relations := make([]Relation, len(p.Relations))
	for i := range p.Relations {
		attributes := make([]string, len(p.Relations[i].Attributes))
		copy(attributes, p.Relations[i].Attributes)
		relations[i] = Relation{
			Name:       p.Relations[i].Name,
			Attributes: attributes,
			Output:     p.Relations[i].Output,
		}
	}
	return Program{
		Relations: relations,
		Body:      t.TransformStatement(p.Body),
	}
}
