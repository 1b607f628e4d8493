package gmt

import (
	"strings"
)

// LookupItem is one customer or activity row from the service's lookup
// tables.
type LookupItem struct {
	ID     int
	Name   string
	Active bool
}

// Lookups is the immutable name/id mapping built once at login and passed by
// reference into validation and entry parsing. Name lookups are
// case-insensitive.
type Lookups struct {
	customersByName map[string]int
	tasksByName     map[string]int
	customersByID   map[int]string
	tasksByID       map[int]string

	// Lowercased first segments of colon-delimited names that have at least
	// one sub-segment. Entries must never be filed directly under these.
	topCustomers map[string]struct{}
	topTasks     map[string]struct{}

	activeCustomers []string
	activeTasks     []string
}

// NewLookups builds the lookup object from customer and task tables.
func NewLookups(customers, tasks []LookupItem) *Lookups {
	l := &Lookups{
		customersByName: make(map[string]int, len(customers)),
		tasksByName:     make(map[string]int, len(tasks)),
		customersByID:   make(map[int]string, len(customers)),
		tasksByID:       make(map[int]string, len(tasks)),
		topCustomers:    make(map[string]struct{}),
		topTasks:        make(map[string]struct{}),
	}
	for _, c := range customers {
		l.customersByName[strings.ToLower(c.Name)] = c.ID
		l.customersByID[c.ID] = c.Name
		if c.Active {
			l.activeCustomers = append(l.activeCustomers, c.Name)
		}
		addTopLevel(l.topCustomers, c.Name)
	}
	for _, t := range tasks {
		l.tasksByName[strings.ToLower(t.Name)] = t.ID
		l.tasksByID[t.ID] = t.Name
		if t.Active {
			l.activeTasks = append(l.activeTasks, t.Name)
		}
		addTopLevel(l.topTasks, t.Name)
	}
	return l
}

// addTopLevel records the first segment of a colon-delimited name, but only
// when the name actually has a sub-segment.
func addTopLevel(set map[string]struct{}, name string) {
	parts := strings.SplitN(name, ":", 2)
	if len(parts) > 1 {
		set[strings.ToLower(parts[0])] = struct{}{}
	}
}

// CustomerID resolves a customer name (case-insensitive) to its remote id.
func (l *Lookups) CustomerID(name string) (int, bool) {
	id, ok := l.customersByName[strings.ToLower(name)]
	return id, ok
}

// TaskID resolves a task/activity name (case-insensitive) to its remote id.
func (l *Lookups) TaskID(name string) (int, bool) {
	id, ok := l.tasksByName[strings.ToLower(name)]
	return id, ok
}

// CustomerName resolves a remote customer id to its name.
func (l *Lookups) CustomerName(id int) (string, bool) {
	name, ok := l.customersByID[id]
	return name, ok
}

// TaskName resolves a remote task id to its name.
func (l *Lookups) TaskName(id int) (string, bool) {
	name, ok := l.tasksByID[id]
	return name, ok
}

// TopLevelCustomer reports whether name is itself a parent prefix of other
// customer names.
func (l *Lookups) TopLevelCustomer(name string) bool {
	_, ok := l.topCustomers[strings.ToLower(name)]
	return ok
}

// TopLevelTask reports whether name is itself a parent prefix of other task
// names.
func (l *Lookups) TopLevelTask(name string) bool {
	_, ok := l.topTasks[strings.ToLower(name)]
	return ok
}

// CustomerNames returns the active customer names in table order.
func (l *Lookups) CustomerNames() []string { return l.activeCustomers }

// TaskNames returns the active task names in table order.
func (l *Lookups) TaskNames() []string { return l.activeTasks }
