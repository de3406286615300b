package query

import (
	"strconv"
	"sync"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/document"
	"github.com/auradb/aura/internal/storage/btree"
	"github.com/auradb/aura/internal/storage/index"
	"github.com/auradb/aura/internal/storage/page"
	"github.com/google/uuid"
)

// storePager is the subset of *pager.Pager the executor depends on.
type storePager interface {
	AllocatePage() uint32
	WritePage(pg *page.Page) error
	ReadPage(id uint32) (*page.Page, error)
}

// Engine executes parsed statements against a single database's storage.
// Table names are accepted but not otherwise enforced: spec.md's data
// model is single-table, so every table name shares the one primary index
// and B-tree.
//
// execMu is the cross-task exclusion primitive over the whole pager: at
// most one Execute call runs at a time, so a multi-step statement (page
// allocation, primary index sync, B-tree insert) never interleaves with
// another connection's statement. The per-call mutexes inside pager.Pager
// and index.PrimaryIndex only protect their own single operations, not the
// sequence of operations one statement performs.
type Engine struct {
	execMu  sync.Mutex
	pager   storePager
	primary *index.PrimaryIndex
	tree    *btree.Manager
}

// NewEngine wires an Engine on top of an already-open pager, loading (or
// initializing) the primary index and B-tree root.
func NewEngine(p storePager) (*Engine, error) {
	primary, err := index.Load(p)
	if err != nil {
		return nil, err
	}
	tree, err := btree.Open(p)
	if err != nil {
		return nil, err
	}
	return &Engine{pager: p, primary: primary, tree: tree}, nil
}

// Result is what an executed statement produced: either a written document
// id (INSERT) or a fetched document (SELECT, possibly not found).
type Result struct {
	InsertedID string
	Document   *document.Document
	Found      bool
}

// Execute parses and runs one SQL statement. The whole call, not any
// individual storage operation within it, is the unit of mutual exclusion:
// only one Execute runs at a time across every connection sharing this
// Engine.
func (e *Engine) Execute(sql string) (*Result, error) {
	e.execMu.Lock()
	defer e.execMu.Unlock()

	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	switch s := stmt.(type) {
	case *InsertStatement:
		return e.executeInsert(s)
	case *SelectStatement:
		return e.executeSelect(s)
	default:
		return nil, &aerr.Unimplemented{Reason: "unrecognized statement type"}
	}
}

func (e *Engine) executeInsert(stmt *InsertStatement) (*Result, error) {
	data := make(map[string]document.Value, len(stmt.Columns))
	id := ""
	hasID := false

	for i, col := range stmt.Columns {
		if col == "id" {
			hasID = true
			id = stmt.Values[i].Text
			continue
		}
		data[col] = literalToValue(stmt.Values[i])
	}

	if !hasID {
		id = uuid.New().String()
	}

	doc := document.New(id, data)
	pageID := e.pager.AllocatePage()

	pg := page.New(pageID, page.KindData)
	encoded := doc.ToBytes()
	if len(encoded) > page.DataSize {
		return nil, &aerr.Serialization{Reason: "document does not fit in one page"}
	}
	if err := pg.SetPayload(encoded); err != nil {
		return nil, err
	}
	if err := e.pager.WritePage(pg); err != nil {
		return nil, err
	}

	e.primary.Insert(id, pageID)
	if err := e.primary.Sync(e.pager); err != nil {
		return nil, err
	}
	if err := e.tree.Insert(id, pageID); err != nil {
		return nil, err
	}

	return &Result{InsertedID: id}, nil
}

func (e *Engine) executeSelect(stmt *SelectStatement) (*Result, error) {
	pageID, ok := e.primary.Get(stmt.ID)
	if !ok {
		var err error
		pageID, ok, err = e.tree.Search(stmt.ID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return &Result{Found: false}, nil
	}

	pg, err := e.pager.ReadPage(pageID)
	if err != nil {
		return nil, err
	}
	doc, err := document.FromBytes(pg.Payload())
	if err != nil {
		return nil, err
	}
	return &Result{Found: true, Document: &doc}, nil
}

// literalToValue converts a parsed INSERT literal into a document Value,
// matching the value-kind mapping in the original executor: Number ->
// Integer (a parse failure, e.g. a decimal like 3.14, collapses to 0 rather
// than falling through to float), SingleQuotedString -> Text, Boolean ->
// Boolean, everything else -> Null.
func literalToValue(lit Literal) document.Value {
	if lit.Quoted {
		return document.Text(lit.Text)
	}
	if isNumericLiteral(lit.Text) {
		i, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil {
			return document.Int(0)
		}
		return document.Int(i)
	}
	if lit.Text == "true" || lit.Text == "false" {
		return document.Bool(lit.Text == "true")
	}
	return document.Null()
}

// isNumericLiteral reports whether s has the lexical shape of a SQL number
// token: an optional sign, at least one digit, and otherwise only digits
// and decimal points. It does not guarantee s parses as an int64 — a
// decimal point or an out-of-range magnitude still counts as a Number
// token whose Integer parse simply collapses to 0.
func isNumericLiteral(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[0] == '-' || s[0] == '+' {
		i++
	}
	sawDigit := false
	for ; i < len(s); i++ {
		switch {
		case s[i] >= '0' && s[i] <= '9':
			sawDigit = true
		case s[i] == '.':
		default:
			return false
		}
	}
	return sawDigit
}
