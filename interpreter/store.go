// Package interpreter executes a RAM program directly against in-memory
// relations. It is the second consumer of the optimizer's output next to the
// code generator, and doubles as the oracle the optimizer tests compare
// rewritten programs against.
package interpreter

import (
	"github.com/google/btree"
	"github.com/pkg/errors"

	"github.com/datafuel/ramjet/ram"
)

// Tuple is one relation row: fixed-arity 64-bit words, ordered
// lexicographically.
type Tuple []int64

func (t Tuple) Less(than btree.Item) bool {
	other := than.(Tuple)
	for i := range t {
		if i >= len(other) {
			return false
		}
		if t[i] != other[i] {
			return t[i] < other[i]
		}
	}
	return len(t) < len(other)
}

const btreeDegree = 16

// storedRelation holds one relation's tuples in insertion-independent sorted
// order, so relation contents compare structurally regardless of the
// program shape that produced them.
type storedRelation struct {
	arity  int
	tuples *btree.BTree
}

func newStoredRelation(arity int) *storedRelation {
	return &storedRelation{
		arity:  arity,
		tuples: btree.New(btreeDegree),
	}
}

func (r *storedRelation) insert(tuple Tuple) {
	r.tuples.ReplaceOrInsert(tuple)
}

func (r *storedRelation) contains(tuple Tuple) bool {
	return r.tuples.Has(tuple)
}

func (r *storedRelation) size() int {
	return r.tuples.Len()
}

// ascend iterates tuples in sorted order until the callback returns false.
func (r *storedRelation) ascend(f func(tuple Tuple) bool) {
	r.tuples.Ascend(func(item btree.Item) bool {
		return f(item.(Tuple))
	})
}

// Store is the relation state a program runs against.
type Store struct {
	relations map[string]*storedRelation
}

// NewStore allocates empty relations for every declaration of the program.
func NewStore(program *ram.Program) *Store {
	relations := make(map[string]*storedRelation, len(program.Relations))
	for _, relation := range program.Relations {
		relations[relation.Name] = newStoredRelation(relation.Arity())
	}
	return &Store{relations: relations}
}

func (s *Store) relation(name string) (*storedRelation, error) {
	relation, ok := s.relations[name]
	if !ok {
		return nil, errors.Errorf("unknown relation %q", name)
	}
	return relation, nil
}

// Insert adds a tuple to a relation, typically to seed input facts.
func (s *Store) Insert(name string, tuple Tuple) error {
	relation, err := s.relation(name)
	if err != nil {
		return err
	}
	if len(tuple) != relation.arity {
		return errors.Errorf("tuple of length %d inserted into relation %q of arity %d",
			len(tuple), name, relation.arity)
	}
	own := make(Tuple, len(tuple))
	copy(own, tuple)
	relation.insert(own)
	return nil
}

// Contents returns a relation's tuples in sorted order.
func (s *Store) Contents(name string) ([]Tuple, error) {
	relation, err := s.relation(name)
	if err != nil {
		return nil, err
	}
	out := make([]Tuple, 0, relation.size())
	relation.ascend(func(tuple Tuple) bool {
		out = append(out, tuple)
		return true
	})
	return out, nil
}

func (s *Store) clear(name string) error {
	relation, err := s.relation(name)
	if err != nil {
		return err
	}
	s.relations[name] = newStoredRelation(relation.arity)
	return nil
}

func (s *Store) merge(target, source string) error {
	targetRelation, err := s.relation(target)
	if err != nil {
		return err
	}
	sourceRelation, err := s.relation(source)
	if err != nil {
		return err
	}
	// Collect first; target and source may be the same relation.
	tuples := make([]Tuple, 0, sourceRelation.size())
	sourceRelation.ascend(func(tuple Tuple) bool {
		tuples = append(tuples, tuple)
		return true
	})
	for _, tuple := range tuples {
		targetRelation.insert(tuple)
	}
	return nil
}

func (s *Store) swap(first, second string) error {
	firstRelation, err := s.relation(first)
	if err != nil {
		return err
	}
	secondRelation, err := s.relation(second)
	if err != nil {
		return err
	}
	s.relations[first], s.relations[second] = secondRelation, firstRelation
	return nil
}
