package metro

import "slices"

// arena is the map-owned station store. It remembers insertion order so
// that iteration is deterministic.
type arena struct {
	byID  map[string]*Station
	order []string
}

func newArena() *arena {
	return &arena{byID: make(map[string]*Station)}
}

func (a *arena) add(s *Station) bool {
	if s.ID == "" {
		return false
	}
	if _, ok := a.byID[s.ID]; ok {
		return false
	}
	a.byID[s.ID] = s
	a.order = append(a.order, s.ID)
	return true
}

// freshID draws ids from gen until one is not taken. Short ids collide
// on large maps.
func (a *arena) freshID(gen func() string) string {
	for {
		if id := gen(); id != "" && a.byID[id] == nil {
			return id
		}
	}
}

func (a *arena) get(id string) *Station {
	return a.byID[id]
}

func (a *arena) remove(id string) {
	if _, ok := a.byID[id]; !ok {
		return
	}
	delete(a.byID, id)
	a.order = slices.DeleteFunc(a.order, func(x string) bool { return x == id })
}

// resolve maps ids to stations, skipping ids that are not in the arena.
func (a *arena) resolve(ids []string) []*Station {
	out := make([]*Station, 0, len(ids))
	for _, id := range ids {
		if s := a.byID[id]; s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (a *arena) all() []*Station {
	return a.resolve(a.order)
}
