package audit

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"dxfaudit/internal/diag"
	"dxfaudit/internal/dxf"
	"dxfaudit/internal/observ"
)

// ErrBrokenDocument is returned by Run when the document object itself is
// unusable (missing entity database, R13+ document without root dictionary,
// database key without record). It is not a finding about document content.
var ErrBrokenDocument = errors.New("broken document")

// auditedTables are checked in this order; block_records only for R13+.
var auditedTables = []string{
	dxf.TableLayers,
	dxf.TableLinetypes,
	dxf.TableStyles,
	dxf.TableDimStyles,
	dxf.TableUCS,
	dxf.TableAppIDs,
	dxf.TableViews,
}

// Auditor checks a loaded document and collects diagnostics. It never
// modifies the document. An Auditor is not safe for concurrent use; audit
// independent documents with independent Auditors.
type Auditor struct {
	doc        *dxf.Document
	sink       *diag.Sink
	strictZero bool
	validLayer func(string) bool
	logger     *slog.Logger
	timer      *observ.Timer
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithStrictZeroPointers makes the unset pointer "0" a missing pointer target.
func WithStrictZeroPointers(strict bool) Option {
	return func(a *Auditor) { a.strictZero = strict }
}

// WithLayerNameValidator replaces dxf.IsValidLayerName for entity layer
// references and layer table entries.
func WithLayerNameValidator(fn func(string) bool) Option {
	return func(a *Auditor) {
		if fn != nil {
			a.validLayer = fn
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Auditor) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithTimer records the durations of the audit phases into t.
func WithTimer(t *observ.Timer) Option {
	return func(a *Auditor) { a.timer = t }
}

// New creates an Auditor for doc.
func New(doc *dxf.Document, opts ...Option) *Auditor {
	a := &Auditor{
		doc:        doc,
		sink:       diag.NewSink(),
		validLayer: dxf.IsValidLayerName,
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run audits doc with a fresh Auditor.
func Run(doc *dxf.Document, opts ...Option) (*Auditor, error) {
	a := New(doc, opts...)
	return a, a.Run()
}

// Run resets previous findings and audits the whole document: the root
// dictionary (R13+ only), the symbol tables and every record of the entity
// database. Findings are diagnostics, not errors; the returned error is
// non-nil only for ErrBrokenDocument, in which case no findings are kept.
func (a *Auditor) Run() error {
	a.sink.Reset()
	if err := a.checkDocument(); err != nil {
		return err
	}

	version := a.doc.Version()
	a.logger.Debug("audit started",
		slog.String("version", version.String()),
		slog.Bool("modern", version.IsModern()),
		slog.Int("entities", a.doc.EntityDB().Len()))

	if version.IsModern() {
		idx := a.timer.Begin("root_dict")
		a.checkRootDict()
		a.timer.End(idx, "")
	}

	idx := a.timer.Begin("tables")
	checked := a.checkTableEntries()
	a.timer.End(idx, fmt.Sprintf("%d tables", checked))

	idx = a.timer.Begin("entities")
	if err := a.checkDatabaseEntities(); err != nil {
		a.sink.Reset()
		a.timer.End(idx, "aborted")
		return err
	}
	a.timer.End(idx, fmt.Sprintf("%d records", a.doc.EntityDB().Len()))

	a.logger.Debug("audit finished", slog.Int("issues", a.sink.Len()))
	return nil
}

func (a *Auditor) checkDocument() error {
	switch {
	case a.doc == nil:
		return fmt.Errorf("%w: nil document", ErrBrokenDocument)
	case a.doc.EntityDB() == nil:
		return fmt.Errorf("%w: no entity database", ErrBrokenDocument)
	case a.doc.Version().IsModern() && a.doc.RootDict() == nil:
		return fmt.Errorf("%w: %s document without root dictionary", ErrBrokenDocument, a.doc.Version())
	}
	return nil
}

func (a *Auditor) checkRootDict() {
	root := a.doc.RootDict()
	for _, name := range dxf.RequiredRootDictEntries {
		if root.Contains(name) {
			continue
		}
		a.AddError(diag.MissingRequiredRootDictEntry,
			fmt.Sprintf("Missing root dict entry: %s", name), root, name)
	}
}

func (a *Auditor) checkTableEntries() int {
	tables := a.doc.Tables()
	names := auditedTables
	if a.doc.Version().IsModern() {
		names = append(names[:len(names):len(names)], dxf.TableBlockRecords)
	}
	checked := 0
	for _, name := range names {
		t := tables.Get(name)
		if t == nil {
			continue
		}
		t.Audit(a)
		checked++
	}
	return checked
}

func (a *Auditor) checkDatabaseEntities() error {
	db := a.doc.EntityDB()
	for _, h := range db.Keys() {
		e, ok := db.Get(h)
		if !ok || e == nil {
			return fmt.Errorf("%w: handle #%s has no record", ErrBrokenDocument, h)
		}
		a.CheckEntity(e)
	}
	return nil
}

// CheckEntity applies every entity rule to e.
func (a *Auditor) CheckEntity(e dxf.Entity) {
	for _, rule := range entityRules {
		rule(a, e)
	}
}

// AddError records a finding. It implements dxf.Reporter so tables can
// report into the same sink. e may be nil.
func (a *Auditor) AddError(code diag.Code, msg string, e dxf.Entity, data any) {
	var ref diag.EntityRef
	if e != nil {
		ref = diag.EntityRef{Handle: string(e.Handle()), DXFType: e.DXFType()}
	}
	a.sink.Add(code, msg, ref, data)
}

func (a *Auditor) Document() *dxf.Document { return a.doc }

// ValidLayerName applies the configured layer name rule. It implements
// dxf.LayerNameValidator.
func (a *Auditor) ValidLayerName(name string) bool { return a.validLayer(name) }

// Sink exposes the collected diagnostics.
func (a *Auditor) Sink() *diag.Sink { return a.sink }

func (a *Auditor) Len() int { return a.sink.Len() }

func (a *Auditor) Empty() bool { return a.sink.Empty() }

// Diagnostics returns a copy of the findings in detection order.
func (a *Auditor) Diagnostics() []diag.Diagnostic { return a.sink.Items() }

// Filter yields the findings with the given code.
func (a *Auditor) Filter(code diag.Code) iter.Seq[diag.Diagnostic] {
	return a.sink.Filter(code)
}

// Resolve looks up the record a diagnostic refers to in the audited
// document.
func (a *Auditor) Resolve(d diag.Diagnostic) (dxf.Entity, bool) {
	if !d.HasEntity() || a.doc == nil || a.doc.EntityDB() == nil {
		return nil, false
	}
	return a.doc.EntityDB().Get(dxf.Handle(d.Entity.Handle))
}
