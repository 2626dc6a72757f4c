package resources

import "fmt"

// ReadyState is the fetch lifecycle of a cached list.
//
//	Initial ──List──> Fetching ──done──> Ready ──List──> Updating ──done──> Ready
type ReadyState int

const (
	Initial ReadyState = iota
	Fetching
	Ready
	Updating
)

// ReadyStates lists every ready-state, for comparison in consumers.
var ReadyStates = []ReadyState{Initial, Fetching, Ready, Updating}

func (r ReadyState) String() string {
	switch r {
	case Initial:
		return "INITIAL"
	case Fetching:
		return "FETCHING"
	case Ready:
		return "READY"
	case Updating:
		return "UPDATING"
	default:
		return "UNKNOWN"
	}
}

// State is the cached list and its lifecycle flags. The booleans are
// derived from ReadyState.
type State[T Entity] struct {
	ReadyState ReadyState
	Initial    bool
	Fetching   bool
	Pending    bool
	Ready      bool
	Updating   bool
	Items      []T
}

func newState[T Entity](rs ReadyState, items []T) *State[T] {
	return &State[T]{
		ReadyState: rs,
		Initial:    rs == Initial,
		Fetching:   rs == Fetching,
		Pending:    rs == Initial || rs == Fetching,
		Ready:      rs == Ready || rs == Updating,
		Updating:   rs == Updating,
		Items:      items,
	}
}

// Find returns the cached item with id.
func (s State[T]) Find(id string) (T, bool) {
	for _, it := range s.Items {
		if it.ResourceID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

type action interface{ isResourceAction() }

type (
	fetchStarted[T Entity] struct{}
	fetchSettled[T Entity] struct {
		items []T
		ok    bool
	}
	itemUpserted[T Entity] struct{ item T }
	itemAppended[T Entity] struct{ item T }
	itemReplaced[T Entity] struct {
		id   string
		item T
	}
	itemRemoved[T Entity] struct{ id string }
)

func (fetchStarted[T]) isResourceAction() {}
func (fetchSettled[T]) isResourceAction() {}
func (itemUpserted[T]) isResourceAction() {}
func (itemAppended[T]) isResourceAction() {}
func (itemReplaced[T]) isResourceAction() {}
func (itemRemoved[T]) isResourceAction()  {}

func reduce[T Entity](s *State[T], a action) *State[T] {
	switch a := a.(type) {
	case fetchStarted[T]:
		if s.ReadyState == Ready || s.ReadyState == Updating {
			return newState(Updating, s.Items)
		}
		return newState(Fetching, s.Items)
	case fetchSettled[T]:
		if a.ok {
			return newState(Ready, cloneItems(a.items))
		}
		if s.ReadyState == Ready {
			return s
		}
		return newState(Ready, s.Items)
	case itemUpserted[T]:
		id := a.item.ResourceID()
		for i, it := range s.Items {
			if it.ResourceID() == id {
				items := cloneItems(s.Items)
				items[i] = a.item
				return newState(s.ReadyState, items)
			}
		}
		return newState(s.ReadyState, append(cloneItems(s.Items), a.item))
	case itemAppended[T]:
		return newState(s.ReadyState, append(cloneItems(s.Items), a.item))
	case itemReplaced[T]:
		for i, it := range s.Items {
			if it.ResourceID() == a.id {
				items := cloneItems(s.Items)
				items[i] = a.item
				return newState(s.ReadyState, items)
			}
		}
		return s
	case itemRemoved[T]:
		items := make([]T, 0, len(s.Items))
		for _, it := range s.Items {
			if it.ResourceID() != a.id {
				items = append(items, it)
			}
		}
		if len(items) == len(s.Items) {
			return s
		}
		return newState(s.ReadyState, items)
	default:
		panic(fmt.Sprintf("resources: unknown action %T", a))
	}
}

func cloneItems[T Entity](items []T) []T {
	if items == nil {
		return nil
	}
	dup := make([]T, len(items), len(items)+1)
	copy(dup, items)
	return dup
}
