package dxf

// Entity is the view of a document record the auditor works with.
// Attributes must be probed with Supports before Get is trusted.
type Entity interface {
	DXFType() string
	Handle() Handle
	Supports(a Attr) bool
	// Get returns the attribute value; unset supported attributes yield the
	// kind default. ok is false when the attribute is not supported.
	Get(a Attr) (v Value, ok bool)
	Tags() Tags
}

// Record is the concrete Entity stored in an EntityDB.
type Record struct {
	kind   *Kind
	attrs  AttrSet
	handle Handle
	values map[Attr]Value
	tags   Tags
}

// NewRecord creates a record of the given type. Legacy (R12) records have no
// owner, so the owner capability is dropped for them.
func NewRecord(dxftype string, handle Handle, version Version) *Record {
	k := LookupKind(dxftype)
	attrs := k.Attrs
	if !version.IsModern() {
		attrs = attrs.Without(AttrOwner)
	}
	return &Record{
		kind:   k,
		attrs:  attrs,
		handle: handle,
		values: make(map[Attr]Value),
	}
}

func (r *Record) DXFType() string { return r.kind.Name }

func (r *Record) Handle() Handle { return r.handle }

func (r *Record) Kind() *Kind { return r.kind }

func (r *Record) Supports(a Attr) bool {
	return r.attrs.Has(a)
}

func (r *Record) Get(a Attr) (Value, bool) {
	if !r.Supports(a) {
		return Value{}, false
	}
	if a == AttrHandle {
		return StringValue(string(r.handle)), true
	}
	if v, ok := r.values[a]; ok {
		return v, true
	}
	return r.kind.Defaults[a], true
}

// Set stores an attribute value. Unsupported attributes are ignored and
// reported by the false result.
func (r *Record) Set(a Attr, v Value) bool {
	if !r.Supports(a) || a == AttrHandle {
		return false
	}
	r.values[a] = v
	return true
}

// IsSet reports whether the attribute was set explicitly.
func (r *Record) IsSet(a Attr) bool {
	_, ok := r.values[a]
	return ok
}

// DetachOwner drops the owner capability of a top level object such as the
// root dictionary.
func (r *Record) DetachOwner() {
	r.attrs = r.attrs.Without(AttrOwner)
	delete(r.values, AttrOwner)
}

func (r *Record) Tags() Tags { return r.tags }

// AppendTags adds raw tags at the end of the tag sequence.
func (r *Record) AppendTags(tags ...Tag) {
	r.tags = append(r.tags, tags...)
}

// Name is a shortcut for the "name" attribute of table entries.
func (r *Record) Name() string {
	v, _ := r.Get(AttrName)
	return v.Str()
}

// Owner is a shortcut for the owner handle; NullHandle when unsupported.
func (r *Record) Owner() Handle {
	v, ok := r.Get(AttrOwner)
	if !ok {
		return NullHandle
	}
	return NormalizeHandle(v.Str())
}
