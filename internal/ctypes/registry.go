package ctypes

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// Registry owns every record of one inference run and interns array and map
// types, so that registering an identical shape twice yields the same value.
type Registry struct {
	records  []*Record
	byBody   map[string]*Record
	interned map[string]Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byBody:   make(map[string]*Record),
		interned: make(map[string]Type),
	}
}

// Register returns the record whose canonical property list equals props,
// creating it when none exists. The hint names the record unless an equal
// record was registered first.
func (r *Registry) Register(hint string, props []Property) *Record {
	body := canonicalBody(props, true)
	if existing, ok := r.byBody[body]; ok {
		return existing
	}
	rec := &Record{
		id:    len(r.records) + 1,
		hint:  sanitizeIdent(hint),
		Props: slices.Clone(props),
	}
	r.records = append(r.records, rec)
	r.byBody[body] = rec
	return rec
}

// selfRef stands for the record being built in a property list. Registered
// records are numbered from 1, so its key never collides with theirs.
var selfRef = &Record{}

// Extend returns the record with rec's properties overlaid by added ones.
// Existing properties keep their position; new ones are appended in order.
// Properties named in self point at the extended record itself.
func (r *Registry) Extend(rec *Record, hint string, added []Property, self ...string) *Record {
	if len(added) == 0 && len(self) == 0 {
		return rec
	}
	if len(self) > 0 {
		added = slices.Clone(added)
		for _, name := range self {
			added = append(added, Property{Name: name, Type: selfRef})
		}
	}
	props := slices.Clone(rec.Props)
	for _, a := range added {
		idx := slices.IndexFunc(props, func(p Property) bool { return p.Name == a.Name })
		if idx >= 0 {
			props[idx].Type = a.Type
			continue
		}
		props = append(props, a)
	}
	if hint == "" {
		hint = rec.hint
	}
	out := r.Register(hint, props)
	for i, p := range out.Props {
		if p.Type == selfRef {
			out.Props[i].Type = out
		}
	}
	return out
}

// FixedArray returns the interned fixed array of elem with the given capacity.
func (r *Registry) FixedArray(elem Type, capacity int) *FixedArray {
	a := &FixedArray{Elem: elem, Capacity: capacity}
	return r.intern(a).(*FixedArray)
}

// DynamicArray returns the interned dynamic array of elem.
func (r *Registry) DynamicArray(elem Type) *DynamicArray {
	a := &DynamicArray{Elem: elem}
	return r.intern(a).(*DynamicArray)
}

// Map returns the interned dictionary of elem.
func (r *Registry) Map(elem Type) *Map {
	m := &Map{Elem: elem}
	return r.intern(m).(*Map)
}

func (r *Registry) intern(t Type) Type {
	key := t.Key()
	if existing, ok := r.interned[key]; ok {
		return existing
	}
	r.interned[key] = t
	return t
}

// Records returns every registered record in registration order.
func (r *Registry) Records() []*Record {
	return slices.Clone(r.records)
}

// Canonical returns the body serialization of rec: "<type> <name>;" for each
// property in declaration order.
func (r *Registry) Canonical(rec *Record) string {
	return canonicalBody(rec.Props, false)
}

// Finalize assigns struct names to every record reachable from roots and
// returns the reachable non-empty records in registration order. Named
// records become "<hint>_t", then "<hint>_2_t", "<hint>_3_t" on collision;
// anonymous ones become "struct_<N>_t".
func (r *Registry) Finalize(roots []Type) []*Record {
	reachable := set.New[*Record](len(r.records))
	var visit func(t Type)
	visit = func(t Type) {
		switch v := t.(type) {
		case *FixedArray:
			visit(v.Elem)
		case *DynamicArray:
			visit(v.Elem)
		case *Map:
			visit(v.Elem)
		case *Record:
			if !reachable.Insert(v) {
				return
			}
			for _, p := range v.Props {
				visit(p.Type)
			}
		}
	}
	for _, t := range roots {
		visit(t)
	}

	used := set.New[string](reachable.Size())
	anonymous := 0
	var out []*Record
	for _, rec := range r.records {
		if !reachable.Contains(rec) {
			continue
		}
		var name string
		if rec.hint == "" {
			for {
				name = fmt.Sprintf("struct_%d_t", anonymous)
				anonymous++
				if !used.Contains(name) {
					break
				}
			}
		} else {
			name = rec.hint + "_t"
			for i := 2; used.Contains(name); i++ {
				name = fmt.Sprintf("%s_%d_t", rec.hint, i)
			}
		}
		used.Insert(name)
		rec.name = name
		if !rec.Empty() {
			out = append(out, rec)
		}
	}
	return out
}

func canonicalBody(props []Property, keyed bool) string {
	var sb strings.Builder
	for _, p := range props {
		sb.WriteString(renderElem(p.Type, keyed))
		sb.WriteByte(' ')
		sb.WriteString(p.Name)
		sb.WriteByte(';')
	}
	return sb.String()
}

func sanitizeIdent(s string) string {
	var sb strings.Builder
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			sb.WriteRune(c)
		case c >= '0' && c <= '9':
			if i == 0 {
				sb.WriteByte('_')
			}
			sb.WriteRune(c)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
