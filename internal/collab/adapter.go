package collab

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/richsync/internal/delta"
	"github.com/dshills/richsync/internal/editor"
	"github.com/dshills/richsync/internal/logging"
	"github.com/dshills/richsync/internal/richtext"
)

// Adapter binds one editor view to one replicated document. Local view
// changes come out of the ops sink as replicated operations; operations
// from other replicas go in through ApplyOps. The adapter is not safe for
// concurrent use; callers serialize access the same way they serialize the
// editor itself.
type Adapter struct {
	replica string
	doc     *richtext.Document
	view    *editor.View
	guard   guard
	tr      translator
	rp      replayer
	onOps   func([]Op)
	onErr   func(error)
	log     *logging.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithReplica sets the replica identity. The default is a random UUID,
// which is what a fresh session wants: two adapters must never share an
// identity while both are live.
func WithReplica(id string) Option {
	return func(a *Adapter) { a.replica = id }
}

// WithLocalOps registers the sink that receives the replicated operations
// produced by local edits. Without a sink local edits stay local.
func WithLocalOps(fn func([]Op)) Option {
	return func(a *Adapter) { a.onOps = fn }
}

// WithErrorHandler registers the sink for translation failures on local
// edits, which surface asynchronously because the view has already
// accepted the change by the time translation runs.
func WithErrorHandler(fn func(error)) Option {
	return func(a *Adapter) { a.onErr = fn }
}

// WithLogger sets the adapter's logger. The default discards everything.
func WithLogger(log *logging.Logger) Option {
	return func(a *Adapter) { a.log = log }
}

// WithView supplies a preconfigured view, usually to adjust its
// capability table. The view must be fresh: the adapter primes it from
// the loaded document during construction.
func WithView(v *editor.View) Option {
	return func(a *Adapter) { a.view = v }
}

// New builds an adapter over a saved document state. The state must render
// to non-empty text ending in the line terminator; New fails rather than
// repairs, since a malformed state means the caller's persistence is
// already damaged. Use Genesis for the starting state of a new session.
func New(state []byte, opts ...Option) (*Adapter, error) {
	a := &Adapter{
		replica: uuid.NewString(),
		log:     logging.Null,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.view == nil {
		a.view = editor.NewView()
	}

	doc, err := richtext.Load(state, richtext.WithReplica(a.replica), richtext.WithExpand(ExpandRule))
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(doc.Text(), "\n") {
		return nil, fmt.Errorf("%w: state renders to %q", ErrMissingTerminator, doc.Text())
	}
	a.doc = doc
	a.tr = translator{doc: doc}
	a.rp = replayer{doc: doc}

	if err := a.prime(); err != nil {
		return nil, err
	}
	// Register after priming so the initial content does not replicate.
	a.view.OnChange(a.handleLocal)
	return a, nil
}

// Genesis returns the saved state of a document holding a single
// terminator, the starting point of a fresh session. Every replica of a
// session must load the same genesis state so the terminator occupies the
// same position everywhere.
func Genesis() ([]byte, error) {
	doc := richtext.New(richtext.WithReplica("genesis"))
	if _, err := doc.InsertAt(0, "\n", nil); err != nil {
		return nil, err
	}
	return doc.Save()
}

// prime loads the document into the fresh view. The view seeds itself with
// a lone terminator and the document carries its own, so the priming batch
// inserts every formatted run and drops the seed.
func (a *Adapter) prime() error {
	runs, err := a.doc.FormattedRuns()
	if err != nil {
		return err
	}
	b := delta.New()
	for _, run := range runs {
		enc, err := EncodeAttrs(run.Attrs)
		if err != nil {
			return err
		}
		b.Insert(run.Text, enc)
	}
	b.Delete(1)
	_, err = a.view.ApplyBatch(b, editor.SourceSilent)
	return err
}

// handleLocal translates one local view change into replicated operations.
// Batches the adapter itself replayed are recognized by the guard and
// skipped.
func (a *Adapter) handleLocal(ch editor.Change) {
	if a.guard.applying() {
		return
	}
	ops, err := a.tr.translate(ch.Batch)
	if err != nil {
		a.log.Error("translate local change: %v", err)
		if a.onErr != nil {
			a.onErr(err)
		}
		return
	}
	if len(ops) == 0 {
		return
	}
	a.log.Debug("local change produced %d ops", len(ops))
	if a.onOps != nil {
		a.onOps(ops)
	}
}

// ApplyOps applies a batch of operations from another replica to the
// document and reflects the visible effect into the editor view. Replay
// is idempotent: operations the document has already absorbed change
// nothing. Calling ApplyOps from inside a change handler fails with
// ErrReentrantApply.
func (a *Adapter) ApplyOps(ops []Op) error {
	release, err := a.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	batch, err := a.rp.apply(ops)
	if err != nil {
		return err
	}
	a.log.Debug("replayed %d ops into %d batch ops", len(ops), len(batch.Ops))
	_, err = a.view.ApplyBatch(batch, editor.SourceAPI)
	return err
}

// Replica returns the adapter's replica identity.
func (a *Adapter) Replica() string {
	return a.replica
}

// View returns the adapter's editor view.
func (a *Adapter) View() *editor.View {
	return a.view
}

// Text returns the document's visible text, terminator included.
func (a *Adapter) Text() string {
	return a.doc.Text()
}

// Runs returns the document as maximal uniformly formatted runs.
func (a *Adapter) Runs() ([]richtext.Run, error) {
	return a.doc.FormattedRuns()
}

// Snapshot serializes the full document state for persistence. Loading it
// into New resumes the session.
func (a *Adapter) Snapshot() ([]byte, error) {
	return a.doc.Save()
}
