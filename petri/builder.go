package petri

import "fmt"

// Builder assembles a PetriNet incrementally. Unlike the teacher's
// coordinate-tracking builder (which also lays places/transitions out
// for SVG rendering), this one only accumulates the data model — layout
// is a presentation concern out of scope here.
type Builder struct {
	net  *PetriNet
	errs []error
}

// NewBuilder starts a fresh, empty net.
func NewBuilder() *Builder {
	return &Builder{net: newPetriNet()}
}

// Place adds a place with default NORMAL kind and no capacity limit.
func (b *Builder) Place(id, name string) *Builder {
	return b.PlaceWithKind(id, name, PlaceNormal, 0)
}

// PlaceWithKind adds a place with an explicit kind and capacity (0 = unbounded).
func (b *Builder) PlaceWithKind(id, name string, kind PlaceKind, capacity int) *Builder {
	if _, exists := b.net.Places[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("petri: duplicate place id %q", id))
		return b
	}
	b.net.Places[id] = &Place{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Capacity: capacity,
		Metadata: make(map[string]string),
	}
	return b
}

// Transition adds a transition with default ACTION kind.
func (b *Builder) Transition(id, name string) *Builder {
	return b.TransitionWithKind(id, name, TransitionAction)
}

// TransitionWithKind adds a transition with an explicit kind.
func (b *Builder) TransitionWithKind(id, name string, kind TransitionKind) *Builder {
	if _, exists := b.net.Transitions[id]; exists {
		b.errs = append(b.errs, fmt.Errorf("petri: duplicate transition id %q", id))
		return b
	}
	b.net.Transitions[id] = &Transition{
		ID:       id,
		Name:     name,
		Kind:     kind,
		Metadata: make(map[string]string),
	}
	return b
}

// Guard sets the guard expression on an already-added transition.
func (b *Builder) Guard(transitionID, expr string) *Builder {
	t, ok := b.net.Transitions[transitionID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("petri: guard set on unknown transition %q", transitionID))
		return b
	}
	t.Guard = expr
	return b
}

// ActionRef sets the external side-effect reference on an
// already-added transition.
func (b *Builder) ActionRef(transitionID, ref string) *Builder {
	t, ok := b.net.Transitions[transitionID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("petri: actionRef set on unknown transition %q", transitionID))
		return b
	}
	t.ActionRef = ref
	return b
}

// Priority sets the firing priority on an already-added transition.
func (b *Builder) Priority(transitionID string, priority int) *Builder {
	t, ok := b.net.Transitions[transitionID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("petri: priority set on unknown transition %q", transitionID))
		return b
	}
	t.Priority = priority
	return b
}

// TransitionMetadata sets a metadata key/value pair on an
// already-added transition.
func (b *Builder) TransitionMetadata(transitionID, key, value string) *Builder {
	t, ok := b.net.Transitions[transitionID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("petri: metadata set on unknown transition %q", transitionID))
		return b
	}
	t.Metadata[key] = value
	return b
}

// Arc adds a NORMAL-weight-1 arc between source and target.
func (b *Builder) Arc(source, target string) *Builder {
	return b.ArcWithKind(source, target, ArcNormal, 1)
}

// ArcWithKind adds an arc of the given kind and weight.
func (b *Builder) ArcWithKind(source, target string, kind ArcKind, weight int) *Builder {
	if weight <= 0 {
		b.errs = append(b.errs, fmt.Errorf("petri: arc %s->%s has non-positive weight %d", source, target, weight))
		return b
	}
	b.net.Arcs = append(b.net.Arcs, &Arc{Source: source, Target: target, Weight: weight, Kind: kind})
	return b
}

// InhibitorArc is a convenience for ArcWithKind(source, target, ArcInhibitor, weight).
func (b *Builder) InhibitorArc(source, target string, weight int) *Builder {
	return b.ArcWithKind(source, target, ArcInhibitor, weight)
}

// InitialTokens sets the starting token count at place.
func (b *Builder) InitialTokens(place string, count int) *Builder {
	if b.net.InitialMarking == nil {
		b.net.InitialMarking = make(Marking)
	}
	b.net.InitialMarking.Set(place, count)
	return b
}

// WithOriginIntent stamps provenance metadata onto the net.
func (b *Builder) WithOriginIntent(intentID, schemaVersion string) *Builder {
	b.net.Metadata.OriginIntent = intentID
	b.net.Metadata.SchemaVersion = schemaVersion
	return b
}

// Build validates accumulated construction errors and structural
// invariants, returning the finished net only if both are clean.
func (b *Builder) Build() (*PetriNet, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("petri: build failed with %d error(s): %w", len(b.errs), b.errs[0])
	}
	if b.net.InitialMarking == nil {
		b.net.InitialMarking = make(Marking)
	}
	if issues := b.net.StructuralIssues(); len(issues) > 0 {
		return nil, fmt.Errorf("petri: build failed structural validation: %w", issues[0])
	}
	return b.net, nil
}
