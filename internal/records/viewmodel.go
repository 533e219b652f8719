package records

import "sync"

// Renderer repaints whatever displays the view model. Both calls take no
// arguments; implementations read the current state back from the model.
type Renderer interface {
	RenderRecords()
	UpdateSelectedCount()
}

type nopRenderer struct{}

func (nopRenderer) RenderRecords()       {}
func (nopRenderer) UpdateSelectedCount() {}

// ViewModel holds the visible records of a room and the ids picked for the
// next batch operation.
//
// Selected ids are always a subset of the visible ids: Replace prunes the
// selection and no other method removes records.
type ViewModel struct {
	mu       sync.Mutex
	visible  []Record
	selected map[ID]struct{}
	renderer Renderer
}

// NewViewModel builds an empty model. A nil renderer is allowed.
func NewViewModel(renderer Renderer) *ViewModel {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	return &ViewModel{
		selected: make(map[ID]struct{}),
		renderer: renderer,
	}
}

// SetRenderer swaps the repaint target.
func (vm *ViewModel) SetRenderer(renderer Renderer) {
	if renderer == nil {
		renderer = nopRenderer{}
	}
	vm.mu.Lock()
	vm.renderer = renderer
	vm.mu.Unlock()
}

// Replace loads a fresh list. Duplicate ids keep their first occurrence and
// selected ids that are no longer visible are dropped.
func (vm *ViewModel) Replace(list []Record) {
	vm.mu.Lock()
	seen := make(map[ID]struct{}, len(list))
	visible := make([]Record, 0, len(list))
	for _, r := range list {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		visible = append(visible, r)
	}
	vm.visible = visible
	for id := range vm.selected {
		if _, ok := seen[id]; !ok {
			delete(vm.selected, id)
		}
	}
	renderer := vm.renderer
	vm.mu.Unlock()

	renderer.RenderRecords()
	renderer.UpdateSelectedCount()
}

// Records returns a copy of the visible list.
func (vm *ViewModel) Records() []Record {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]Record, len(vm.visible))
	copy(out, vm.visible)
	return out
}

// Record looks up one visible record.
func (vm *ViewModel) Record(id ID) (Record, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if i := vm.indexOf(id); i >= 0 {
		return vm.visible[i], true
	}
	return Record{}, false
}

func (vm *ViewModel) Len() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.visible)
}

// Toggle flips the selection of a visible id and returns the new state.
// Unknown ids are ignored.
func (vm *ViewModel) Toggle(id ID) bool {
	vm.mu.Lock()
	if vm.indexOf(id) < 0 {
		vm.mu.Unlock()
		return false
	}
	_, on := vm.selected[id]
	if on {
		delete(vm.selected, id)
	} else {
		vm.selected[id] = struct{}{}
	}
	renderer := vm.renderer
	vm.mu.Unlock()

	renderer.UpdateSelectedCount()
	return !on
}

// Select adds visible ids to the selection and returns how many were added.
func (vm *ViewModel) Select(ids ...ID) int {
	vm.mu.Lock()
	added := 0
	for _, id := range ids {
		if vm.indexOf(id) < 0 {
			continue
		}
		if _, ok := vm.selected[id]; ok {
			continue
		}
		vm.selected[id] = struct{}{}
		added++
	}
	renderer := vm.renderer
	vm.mu.Unlock()

	if added > 0 {
		renderer.UpdateSelectedCount()
	}
	return added
}

// ToggleAll selects every visible record, or clears the selection when all
// of them are already selected.
func (vm *ViewModel) ToggleAll() {
	vm.mu.Lock()
	if len(vm.visible) > 0 && len(vm.selected) == len(vm.visible) {
		vm.selected = make(map[ID]struct{})
	} else {
		for _, r := range vm.visible {
			vm.selected[r.ID] = struct{}{}
		}
	}
	renderer := vm.renderer
	vm.mu.Unlock()

	renderer.UpdateSelectedCount()
}

// ClearSelection empties the selection.
func (vm *ViewModel) ClearSelection() {
	vm.mu.Lock()
	vm.selected = make(map[ID]struct{})
	renderer := vm.renderer
	vm.mu.Unlock()

	renderer.UpdateSelectedCount()
}

func (vm *ViewModel) IsSelected(id ID) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := vm.selected[id]
	return ok
}

func (vm *ViewModel) SelectedCount() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return len(vm.selected)
}

// SelectedIDs returns the selected ids in visible order.
func (vm *ViewModel) SelectedIDs() []ID {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	out := make([]ID, 0, len(vm.selected))
	for _, r := range vm.visible {
		if _, ok := vm.selected[r.ID]; ok {
			out = append(out, r.ID)
		}
	}
	return out
}

// UpdateStatus overwrites the status of every visible record whose id is
// listed. Ids that are not visible are ignored. It returns the number of
// records changed and does not repaint.
func (vm *ViewModel) UpdateStatus(ids []ID, status Status) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	n := 0
	for _, id := range ids {
		if i := vm.indexOf(id); i >= 0 {
			vm.visible[i].Status = status
			n++
		}
	}
	return n
}

// ApplyStatuses writes per-record statuses, ignoring ids that are not visible.
func (vm *ViewModel) ApplyStatuses(updates []StatusUpdate) int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	n := 0
	for _, u := range updates {
		if i := vm.indexOf(u.RecordID); i >= 0 {
			vm.visible[i].Status = u.Status
			n++
		}
	}
	return n
}

// CommitBatch finishes a successful batch operation: status updates are
// applied, the selection is cleared and the renderer is called once for the
// list and once for the counter.
func (vm *ViewModel) CommitBatch(updates []StatusUpdate) {
	vm.ApplyStatuses(updates)

	vm.mu.Lock()
	vm.selected = make(map[ID]struct{})
	renderer := vm.renderer
	vm.mu.Unlock()

	renderer.RenderRecords()
	renderer.UpdateSelectedCount()
}

func (vm *ViewModel) indexOf(id ID) int {
	for i := range vm.visible {
		if vm.visible[i].ID == id {
			return i
		}
	}
	return -1
}

// StatusesFor fans a single status out to every id.
func StatusesFor(ids []ID, status Status) []StatusUpdate {
	out := make([]StatusUpdate, len(ids))
	for i, id := range ids {
		out[i] = StatusUpdate{RecordID: id, Status: status}
	}
	return out
}
