package diag

// EntityRef points at the offending record by handle. It never holds the
// record itself; callers re-resolve the handle against the document they
// still own.
// The zero value means "no entity".
type EntityRef struct {
	Handle  string
	DXFType string
}

func (r EntityRef) String() string {
	return r.DXFType + " #" + r.Handle
}

// Diagnostic is one recorded finding. It is a value: once appended to a Sink
// it is never changed.
type Diagnostic struct {
	Code    Code
	Message string
	Entity  EntityRef
	Data    any
}

// New builds a diagnostic. A zero ref means the finding has no entity.
func New(code Code, msg string, ref EntityRef, data any) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: msg,
		Entity:  ref,
		Data:    data,
	}
}

// HasEntity reports whether the diagnostic references a record.
func (d Diagnostic) HasEntity() bool {
	return d.Entity.Handle != ""
}
