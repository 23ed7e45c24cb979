// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package object implements the object registry: stable IDs, name/ID
// dictionaries, static and dynamic field storage, group/set membership and
// the delete-notification graph described by the data model's Object type.
package object

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
	mapset "github.com/deckarep/golang-set"

	"github.com/probechain/korkscript/intern"
	"github.com/probechain/korkscript/value"
)

// ID range conventions, matching the DataBlock/dynamic split in the data
// model.
const (
	DataBlockFirst = 100
	DataBlockLast  = 0xFFFFF
	DynamicFirst   = 0x100000
	RootGroupID    = 1
)

var (
	// ErrNotFound is returned when a lookup by id/name/path fails.
	ErrNotFound = errors.New("object: not found")
	// ErrAlreadyRegistered is returned when registering an object that is
	// already registered.
	ErrAlreadyRegistered = errors.New("object: already registered")
	// ErrRefused is returned when a class's on-add hook rejects registration.
	ErrRefused = errors.New("object: registration refused")
	// ErrArrayIndex is returned when a static field array access is out of
	// bounds.
	ErrArrayIndex = errors.New("object: array index out of range")
	// ErrNotInSameSet is returned by set reorder operations when either
	// object is not a member.
	ErrNotInSameSet = errors.New("object: objects not members of the same set")
)

// Flags are per-object state bits.
type Flags uint32

const (
	FlagAdded Flags = 1 << iota
	FlagRemoved
	FlagDeleted
	FlagSelected
	FlagExpanded
	FlagModStaticFields
	FlagModDynamicFields
)

// FieldValidator is called after a cast succeeds but before the field is
// committed, and may reject the write.
type FieldValidator func(obj *Object, newValue string) bool

// FieldGetOverride/FieldSetOverride let a class route field access through
// host code instead of the default storage slot.
type FieldGetOverride func(obj *Object, index int) string
type FieldSetOverride func(obj *Object, index int, raw string) bool

// FieldDesc describes one static field declared by a Class.
type FieldDesc struct {
	Name         string
	Type         value.TypeID
	ElementCount int // > 1 for fixed-size arrays
	Validator    FieldValidator
	GetOverride  FieldGetOverride
	SetOverride  FieldSetOverride
}

// Class is the static descriptor shared by every instance of a kind of
// object: its static fields, its name, and optional lifecycle hooks.
type Class struct {
	Name       string
	Fields     []FieldDesc
	fieldIndex map[string]int

	// OnAdd is called during Register; returning false aborts registration.
	OnAdd func(obj *Object) bool
	// OnRemove is called during Delete, before notifications fire.
	OnRemove func(obj *Object)
}

func (c *Class) prepare() {
	if c.fieldIndex != nil {
		return
	}
	c.fieldIndex = make(map[string]int, len(c.Fields))
	for i, f := range c.Fields {
		c.fieldIndex[strings.ToLower(f.Name)] = i
	}
}

func (c *Class) field(name string) (*FieldDesc, int) {
	c.prepare()
	idx, ok := c.fieldIndex[strings.ToLower(name)]
	if !ok {
		return nil, -1
	}
	return &c.Fields[idx], idx
}

// dynamicField is one entry in an object's dynamic-field map.
type dynamicField struct {
	value string
	typ   value.TypeID
	typed bool
}

// Object is a single registered (or about-to-be-registered) instance.
type Object struct {
	ID    uint32
	Name  string
	Class *Class
	Flags Flags

	statics    []string // parallel to Class.Fields, flattened by ElementCount
	dynamic    map[string]*dynamicField
	dynSeq     []string // insertion order, for stable dump/iteration
	version    uint64   // bumped on every mutation (DataBlock modifiedKey)
	group      *Group
	notifyList []notifyEntry

	mu sync.Mutex
}

type notifyKind int

const (
	notifyDelete notifyKind = iota
	notifyClear
)

type notifyEntry struct {
	kind notifyKind
	fn   func(*Object)
}

func (o *Object) staticSlot(idx, elemIdx int) int {
	base := 0
	for i := 0; i < idx; i++ {
		n := o.Class.Fields[i].ElementCount
		if n < 1 {
			n = 1
		}
		base += n
	}
	return base + elemIdx
}

// Version returns the object's monotonically increasing mutation counter,
// the "modifiedKey" used by DataBlock ghost-once semantics.
func (o *Object) Version() uint64 { return o.version }

// IsDeleted reports whether o has been removed from its registry. Events
// targeting a deleted object are dropped by the scheduler rather than
// dispatched.
func (o *Object) IsDeleted() bool { return o.Flags&FlagDeleted != 0 }

// NotifyOnDelete registers fn to be called exactly once, when o is deleted.
func (o *Object) NotifyOnDelete(fn func(*Object)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notifyList = append(o.notifyList, notifyEntry{kind: notifyDelete, fn: fn})
}

// GetFieldValue returns the string form of static field name, optionally
// indexed (name like "points[2]"); empty string if absent, matching the
// "missing fields read as empty" contract.
func (o *Object) GetFieldValue(name string) string {
	fieldName, idx := splitIndex(name)
	fd, fidx := o.Class.field(fieldName)
	if fd == nil {
		return ""
	}
	if idx >= maxElem(fd) {
		return ""
	}
	if fd.GetOverride != nil {
		return fd.GetOverride(o, idx)
	}
	slot := o.staticSlot(fidx, idx)
	if slot >= len(o.statics) {
		return ""
	}
	return o.statics[slot]
}

// SetFieldValue assigns raw to static field name (optionally indexed),
// returning false if the field doesn't exist, the index is out of range, a
// validator rejects the value, or a set-override rejects it.
func (o *Object) SetFieldValue(name string, raw string) bool {
	fieldName, idx := splitIndex(name)
	fd, fidx := o.Class.field(fieldName)
	if fd == nil {
		return false
	}
	if idx >= maxElem(fd) {
		return false
	}
	if fd.Validator != nil && !fd.Validator(o, raw) {
		return false
	}
	if fd.SetOverride != nil {
		ok := fd.SetOverride(o, idx, raw)
		if ok {
			o.bump()
		}
		return ok
	}
	slot := o.staticSlot(fidx, idx)
	for slot >= len(o.statics) {
		o.statics = append(o.statics, "")
	}
	o.statics[slot] = raw
	o.Flags |= FlagModStaticFields
	o.bump()
	return true
}

// FieldCount reports the number of declared static fields.
func (o *Object) FieldCount() int { return len(o.Class.Fields) }

// GetFieldType returns the declared type name of static field name if
// present, else the captured type of a same-named dynamic field, else "".
func (o *Object) GetFieldType(name string, typeName func(value.TypeID) string) string {
	fieldName, _ := splitIndex(name)
	if fd, _ := o.Class.field(fieldName); fd != nil {
		return typeName(fd.Type)
	}
	if df, ok := o.dynamic[strings.ToLower(fieldName)]; ok && df.typed {
		return typeName(df.typ)
	}
	return ""
}

// GetDynamicField returns the dynamic field's raw value, or "" if absent.
func (o *Object) GetDynamicField(name string) string {
	if df, ok := o.dynamic[strings.ToLower(name)]; ok {
		return df.value
	}
	return ""
}

// SetDynamicField assigns a dynamic field. An empty raw value with no typ
// set deletes the field instead of storing it.
func (o *Object) SetDynamicField(name string, raw string, typ value.TypeID, typed bool) {
	key := strings.ToLower(name)
	if raw == "" && !typed {
		if _, ok := o.dynamic[key]; ok {
			delete(o.dynamic, key)
			o.dynSeq = removeString(o.dynSeq, key)
		}
		o.Flags |= FlagModDynamicFields
		o.bump()
		return
	}
	if o.dynamic == nil {
		o.dynamic = make(map[string]*dynamicField)
	}
	if _, exists := o.dynamic[key]; !exists {
		o.dynSeq = append(o.dynSeq, key)
	}
	o.dynamic[key] = &dynamicField{value: raw, typ: typ, typed: typed}
	o.Flags |= FlagModDynamicFields
	o.bump()
}

// DynamicFieldCount reports the number of set dynamic fields.
func (o *Object) DynamicFieldCount() int { return len(o.dynamic) }

// DynamicFieldNames returns dynamic field names in insertion order.
func (o *Object) DynamicFieldNames() []string {
	out := make([]string, len(o.dynSeq))
	copy(out, o.dynSeq)
	return out
}

func (o *Object) bump() { o.version++ }

func splitIndex(name string) (string, int) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, 0
	}
	idxStr := name[open+1 : len(name)-1]
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 {
		return name[:open], 0
	}
	return name[:open], idx
}

func maxElem(fd *FieldDesc) int {
	if fd.ElementCount < 1 {
		return 1
	}
	return fd.ElementCount
}

func removeString(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// Group is an ordered container of objects; at most one parent per object.
type Group struct {
	ID       uint32
	Name     string
	children []*Object
}

// Children returns the group's members in order.
func (g *Group) Children() []*Object {
	out := make([]*Object, len(g.children))
	copy(out, g.children)
	return out
}

func (g *Group) add(o *Object) {
	g.children = append(g.children, o)
	o.group = g
}

func (g *Group) remove(o *Object) {
	for i, c := range g.children {
		if c == o {
			g.children = append(g.children[:i], g.children[i+1:]...)
			break
		}
	}
	if o.group == g {
		o.group = nil
	}
}

// ReorderChild moves a immediately before b. Both must already be children
// of g.
func (g *Group) ReorderChild(a, b *Object) error {
	ai, bi := -1, -1
	for i, c := range g.children {
		if c == a {
			ai = i
		}
		if c == b {
			bi = i
		}
	}
	if ai < 0 || bi < 0 {
		return ErrNotInSameSet
	}
	g.children = append(g.children[:ai], g.children[ai+1:]...)
	if ai < bi {
		bi--
	}
	tail := append([]*Object{a}, g.children[bi:]...)
	g.children = append(g.children[:bi], tail...)
	return nil
}

// Set is a deckarep/golang-set-backed unique membership collection,
// distinct from Group in that membership order is not preserved and an
// object may belong to many sets at once.
type Set struct {
	ID      uint32
	Name    string
	members mapset.Set
}

func newSet(id uint32, name string) *Set {
	return &Set{ID: id, Name: name, members: mapset.NewSet()}
}

// Add inserts o into the set; a no-op if already present.
func (s *Set) Add(o *Object) { s.members.Add(o) }

// Remove deletes o from the set.
func (s *Set) Remove(o *Object) { s.members.Remove(o) }

// Contains reports set membership.
func (s *Set) Contains(o *Object) bool { return s.members.Contains(o) }

// Len reports the set's cardinality.
func (s *Set) Len() int { return s.members.Cardinality() }

// Registry is the VM-global object dictionary: IDs, names, groups, sets.
type Registry struct {
	mu sync.RWMutex

	byID   map[uint32]*Object
	byName map[string]*Object
	groups map[uint32]*Group
	sets   map[uint32]*Set

	nextDataBlockID uint32
	nextDynamicID   uint32
	nextGroupID     uint32
	modifiedKey     uint64

	instantGroup string

	intern *intern.Table
}

// NewRegistry returns an empty registry with the root group pre-created.
func NewRegistry(it *intern.Table) *Registry {
	r := &Registry{
		byID:            make(map[uint32]*Object),
		byName:          make(map[string]*Object),
		groups:          make(map[uint32]*Group),
		sets:            make(map[uint32]*Set),
		nextDataBlockID: DataBlockFirst,
		nextDynamicID:   DynamicFirst,
		nextGroupID:     RootGroupID + 1,
		intern:          it,
	}
	r.groups[RootGroupID] = &Group{ID: RootGroupID, Name: "RootGroup"}
	return r
}

// SetInstantGroup sets the name of the group ($instantGroup) new objects
// join by default when no explicit group is supplied at registration.
func (r *Registry) SetInstantGroup(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instantGroup = name
}

// NewDataBlock constructs an unregistered object with a DataBlock-range ID
// reserved (not yet assigned — assignment happens at Register time).
func NewDataBlock(class *Class) *Object {
	return &Object{Class: class}
}

// NewObject constructs an unregistered dynamic-range object.
func NewObject(class *Class) *Object {
	return &Object{Class: class}
}

// Register assigns o an ID (DataBlock range if isDataBlock, else dynamic
// range), links its name if non-empty, invokes the class's OnAdd hook, and
// inserts it into the named or instant or root group.
func (r *Registry) Register(o *Object, name string, isDataBlock bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.ID != 0 {
		return ErrAlreadyRegistered
	}
	if isDataBlock {
		o.ID = r.nextDataBlockID
		r.nextDataBlockID++
	} else {
		o.ID = r.nextDynamicID
		r.nextDynamicID++
	}

	if o.Class.OnAdd != nil && !o.Class.OnAdd(o) {
		o.ID = 0
		return ErrRefused
	}

	r.byID[o.ID] = o
	if name != "" {
		o.Name = name
		r.byName[strings.ToLower(name)] = o
	}

	group := r.groups[RootGroupID]
	if r.instantGroup != "" {
		if g, ok := r.findGroupLocked(r.instantGroup); ok {
			group = g
		}
	}
	group.add(o)
	o.Flags |= FlagAdded
	return nil
}

// Delete unregisters o: detaches it from its group, fires delete
// notifications, clears every registered reference, and removes it from the
// id/name dictionaries. Cancellation of pending events targeting o is the
// event scheduler's responsibility (it observes Deleted via IsDeleted).
func (r *Registry) Delete(o *Object) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o.Flags&FlagDeleted != 0 {
		return
	}
	if o.Class.OnRemove != nil {
		o.Class.OnRemove(o)
	}
	o.Flags |= FlagDeleted
	o.Flags &^= FlagAdded

	if o.group != nil {
		o.group.remove(o)
	}
	for _, n := range o.notifyList {
		if n.kind == notifyDelete {
			n.fn(o)
		}
	}
	o.notifyList = nil

	delete(r.byID, o.ID)
	if o.Name != "" {
		delete(r.byName, strings.ToLower(o.Name))
	}
}

// Find looks up an object by id.
func (r *Registry) Find(id uint32) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byID[id]
	return o, ok
}

// FindByName looks up an object by its unique name.
func (r *Registry) FindByName(name string) (*Object, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.byName[strings.ToLower(name)]
	return o, ok
}

// FindPath resolves a slash-separated group traversal, e.g. "Parent/Child".
func (r *Registry) FindPath(path string) (*Object, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 {
		return nil, false
	}
	o, ok := r.FindByName(parts[0])
	if !ok {
		return nil, false
	}
	for _, seg := range parts[1:] {
		grp, ok := r.GroupOf(o)
		if !ok {
			return nil, false
		}
		found := false
		for _, c := range grp.Children() {
			if strings.EqualFold(c.Name, seg) {
				o = c
				found = true
				break
			}
		}
		if !found {
			return nil, false
		}
	}
	return o, true
}

// GroupOf treats o itself as a group container if the registry has a group
// keyed by o's ID (SimGroup-style objects); used by FindPath traversal.
func (r *Registry) GroupOf(o *Object) (*Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[o.ID]
	return g, ok
}

// NewGroup allocates and registers a new named group.
func (r *Registry) NewGroup(name string) *Group {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextGroupID
	r.nextGroupID++
	g := &Group{ID: id, Name: name}
	r.groups[id] = g
	return g
}

// MoveToGroup detaches o from its current group, if any, and attaches it to
// dest. Used by host-declared classes (ffi.Bridge) to place a newly
// created object somewhere other than the instant/root group Register
// chose by default.
func (r *Registry) MoveToGroup(o *Object, dest *Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.group != nil {
		o.group.remove(o)
	}
	dest.add(o)
}

func (r *Registry) findGroupLocked(name string) (*Group, bool) {
	for _, g := range r.groups {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return nil, false
}

// NewSet allocates and registers a new named set.
func (r *Registry) NewSet(name string) *Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextGroupID
	r.nextGroupID++
	s := newSet(id, name)
	r.sets[id] = s
	return s
}

// DeleteDataBlocks empties every object in the DataBlock id range and
// resets the monotonic modifiedKey counter and DataBlock id generator to
// their initial values.
func (r *Registry) DeleteDataBlocks() {
	r.mu.Lock()
	var toDelete []*Object
	for id, o := range r.byID {
		if id >= DataBlockFirst && id < DataBlockLast {
			toDelete = append(toDelete, o)
		}
	}
	r.mu.Unlock()

	for _, o := range toDelete {
		r.Delete(o)
	}

	r.mu.Lock()
	r.nextDataBlockID = DataBlockFirst
	r.modifiedKey = 0
	r.mu.Unlock()
}

// Dump renders obj's class name, static fields and dynamic fields as a
// human-readable multi-line "field = value" console listing.
func Dump(obj *Object) string {
	var b strings.Builder
	b.WriteString(obj.Class.Name)
	b.WriteString(" (id=")
	b.WriteString(strconv.Itoa(int(obj.ID)))
	b.WriteString(")\n")

	fields := append([]FieldDesc(nil), obj.Class.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	for _, fd := range fields {
		n := maxElem(&fd)
		for i := 0; i < n; i++ {
			name := fd.Name
			if fd.ElementCount > 1 {
				name = fd.Name + "[" + strconv.Itoa(i) + "]"
			}
			b.WriteString("  ")
			b.WriteString(name)
			b.WriteString(" = ")
			b.WriteString(obj.GetFieldValue(name))
			b.WriteString("\n")
		}
	}
	for _, name := range obj.DynamicFieldNames() {
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(obj.GetDynamicField(name))
		b.WriteString("\n")
	}
	return b.String()
}

// DumpClassHierarchy renders obj's full static+dynamic field map via spew,
// for deep/debug inspection (the "#obj.dumpClassHierarchy()" console
// method) rather than the terse one-line-per-field form Dump produces.
func DumpClassHierarchy(obj *Object) string {
	fields := make(map[string]string, len(obj.Class.Fields)+obj.DynamicFieldCount())
	for _, fd := range obj.Class.Fields {
		n := maxElem(&fd)
		for i := 0; i < n; i++ {
			name := fd.Name
			if fd.ElementCount > 1 {
				name = fd.Name + "[" + strconv.Itoa(i) + "]"
			}
			fields[name] = obj.GetFieldValue(name)
		}
	}
	for _, name := range obj.DynamicFieldNames() {
		fields[name] = obj.GetDynamicField(name)
	}
	return spew.Sdump(map[string]interface{}{
		"class":  obj.Class.Name,
		"id":     obj.ID,
		"name":   obj.Name,
		"fields": fields,
	})
}
