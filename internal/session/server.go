package session

import (
	"fmt"
	"log"
	"net"
	"sort"
	"strings"

	"github.com/auradb/aura/internal/document"
	"github.com/auradb/aura/internal/query"
)

// Server accepts TCP connections, performs the PQC handshake on each, and
// dispatches every framed request to a shared query Engine.
type Server struct {
	listener net.Listener
	engine   *query.Engine
}

// NewServer binds addr and wraps it around engine. The caller owns engine
// and everything beneath it (pager, index, B-tree); Server only ever calls
// Engine.Execute, which already serializes writes through the pager.
func NewServer(addr string, engine *query.Engine) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: ln, engine: engine}, nil
}

// Addr reports the address the server is actually listening on, useful
// when addr was "host:0" and the OS picked a port.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until the listener is closed, handling each
// on its own goroutine.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConnection(conn)
	}
}

// Close stops accepting new connections.
func (s *Server) Close() error {
	return s.listener.Close()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr()

	sessionKey, err := ServerHandshake(conn)
	if err != nil {
		log.Printf("handshake failed for %s: %v", remote, err)
		return
	}
	log.Printf("session established with %s", remote)

	ch := NewChannel(conn, sessionKey)
	for {
		req, err := ch.Receive()
		if err != nil {
			log.Printf("session with %s ended: %v", remote, err)
			return
		}

		res, execErr := s.engine.Execute(string(req))
		var responseText string
		if execErr != nil {
			responseText = "ERROR: " + execErr.Error()
		} else {
			responseText = formatResult(res)
		}

		if err := ch.Send([]byte(responseText)); err != nil {
			log.Printf("failed to send response to %s: %v", remote, err)
			return
		}
	}
}

func formatResult(res *query.Result) string {
	if res.InsertedID != "" {
		return "OK: inserted " + res.InsertedID
	}
	if !res.Found {
		return "NOT FOUND"
	}
	return formatDocument(res.Document)
}

// formatDocument renders a document as a single line of sorted
// field=value pairs, good enough for the plain-text client in cmd/aura.
func formatDocument(doc *document.Document) string {
	fields := make([]string, 0, len(doc.Data)+1)
	keys := make([]string, 0, len(doc.Data))
	for k := range doc.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%s", k, formatValue(doc.Data[k])))
	}
	return fmt.Sprintf("id=%s version=%d %s", doc.ID, doc.Version, strings.Join(fields, " "))
}

func formatValue(v document.Value) string {
	switch v.Kind {
	case document.KindNull:
		return "null"
	case document.KindBoolean:
		return fmt.Sprintf("%t", v.Boolean)
	case document.KindInteger:
		return fmt.Sprintf("%d", v.Integer)
	case document.KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case document.KindText:
		return v.Text
	case document.KindBinary:
		return fmt.Sprintf("<%d bytes>", len(v.Binary))
	case document.KindEncrypted:
		return fmt.Sprintf("<encrypted %d bytes>", len(v.Encrypted))
	case document.KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case document.KindObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ":" + formatValue(v.Object[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	default:
		return "?"
	}
}
