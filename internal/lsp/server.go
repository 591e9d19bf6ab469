package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapsieve/internal/config"
	"github.com/leapstack-labs/leapsieve/pkg/capability"
	"github.com/leapstack-labs/leapsieve/pkg/sieve"
)

// Server implements the Language Server Protocol for Sieve scripts.
type Server struct {
	documents *DocumentStore

	// opts is replaced by the project configuration found under the
	// client's root URI.
	opts     sieve.Options
	optsMu   sync.RWMutex
	fromFile bool

	projectRoot string
	version     string

	reader  *bufio.Reader
	writer  io.Writer
	writeMu sync.Mutex

	logger *slog.Logger

	shutdown bool
	exited   bool
}

// Config configures a Server.
type Config struct {
	// Options are used until initialize finds a project configuration.
	Options sieve.Options
	Version string
	Logger  *slog.Logger
}

// NewServer creates a new LSP server instance reading requests from reader
// and writing responses to writer.
func NewServer(reader io.Reader, writer io.Writer, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		documents: NewDocumentStore(),
		opts:      cfg.Options,
		version:   cfg.Version,
		reader:    bufio.NewReader(reader),
		writer:    writer,
		logger:    logger,
	}
}

// Run processes JSON-RPC messages until the client exits or disconnects.
func (s *Server) Run() error {
	s.logger.Info("leapsieve LSP server starting")

	for !s.exited {
		msg, err := s.readMessage()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Info("client disconnected")
				return nil
			}
			s.logger.Error("error reading message", "error", err)
			continue
		}

		if err := s.handleMessage(msg); err != nil {
			s.logger.Error("error handling message", "method", msg.Method, "error", err)
		}
	}

	if !s.shutdown {
		return errors.New("exit before shutdown")
	}
	return nil
}

// JSONRPCMessage represents a JSON-RPC 2.0 message.
type JSONRPCMessage struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method,omitempty"`
	Params  json.RawMessage  `json:"params,omitempty"`
	Result  json.RawMessage  `json:"result,omitempty"`
	Error   *JSONRPCError    `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// JSON-RPC error codes.
const (
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInvalidRequest = -32600
)

// readMessage reads a JSON-RPC message from the input stream.
func (s *Server) readMessage() (*JSONRPCMessage, error) {
	var contentLength int
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			break // End of headers
		}

		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(name, "Content-Length") {
			contentLength, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("invalid Content-Length: %w", err)
			}
		}
	}

	if contentLength == 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(s.reader, body); err != nil {
		return nil, fmt.Errorf("error reading body: %w", err)
	}

	var msg JSONRPCMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}
	return &msg, nil
}

// sendResponse sends a JSON-RPC response.
func (s *Server) sendResponse(id *json.RawMessage, result any, rpcErr *JSONRPCError) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		ID:      id,
	}

	if rpcErr != nil {
		msg.Error = rpcErr
	} else {
		resultBytes, err := json.Marshal(result)
		if err != nil {
			msg.Error = &JSONRPCError{Code: codeInvalidRequest, Message: err.Error()}
		} else {
			msg.Result = resultBytes
		}
	}

	s.writeMessage(&msg)
}

// sendNotification sends a JSON-RPC notification (no ID).
func (s *Server) sendNotification(method string, params any) {
	msg := JSONRPCMessage{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		paramsBytes, _ := json.Marshal(params)
		msg.Params = paramsBytes
	}

	s.writeMessage(&msg)
}

// writeMessage writes a JSON-RPC message to the output stream.
func (s *Server) writeMessage(msg *JSONRPCMessage) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("error marshaling message", "error", err)
		return
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(body))
	_, _ = s.writer.Write([]byte(header))
	_, _ = s.writer.Write(body)
}

// handleMessage dispatches a message to the appropriate handler.
func (s *Server) handleMessage(msg *JSONRPCMessage) error {
	s.logger.Debug("received", "method", msg.Method)

	if s.shutdown && msg.Method != "exit" {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidRequest, Message: "server is shutting down"})
		}
		return nil
	}

	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		s.logger.Info("server initialized")
		return nil
	case "shutdown":
		s.shutdown = true
		s.sendResponse(msg.ID, nil, nil)
		return nil
	case "exit":
		s.exited = true
		return nil
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/formatting":
		return s.handleFormatting(msg)
	case "textDocument/codeAction":
		return s.handleCodeAction(msg)
	default:
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{
				Code:    codeMethodNotFound,
				Message: "Method not found: " + msg.Method,
			})
		}
		return nil
	}
}

// decodeParams unmarshals request params, answering invalid params itself.
func (s *Server) decodeParams(msg *JSONRPCMessage, v any) error {
	if err := json.Unmarshal(msg.Params, v); err != nil {
		if msg.ID != nil {
			s.sendResponse(msg.ID, nil, &JSONRPCError{Code: codeInvalidParams, Message: err.Error()})
		}
		return err
	}
	return nil
}

// --- Lifecycle handlers ---

func (s *Server) handleInitialize(msg *JSONRPCMessage) error {
	var params InitializeParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	if params.RootURI != "" {
		s.projectRoot = URIToPath(params.RootURI)
		s.loadProjectConfig()
	}

	result := InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync: &TextDocumentSyncOptions{
				OpenClose: true,
				Change:    TextDocumentSyncKindFull,
				Save:      &SaveOptions{IncludeText: true},
			},
			CompletionProvider: &CompletionOptions{
				TriggerCharacters: []string{":", "\""},
			},
			HoverProvider:              true,
			DocumentFormattingProvider: true,
			CodeActionProvider: &CodeActionOptions{
				CodeActionKinds: []CodeActionKind{CodeActionKindQuickFix},
			},
		},
		ServerInfo: &ServerInfo{Name: "leapsieve", Version: s.version},
	}

	s.sendResponse(msg.ID, result, nil)
	return nil
}

// loadProjectConfig replaces the options with the leapsieve.yaml found in
// the project root, if any.
func (s *Server) loadProjectConfig() {
	cfg, err := config.LoadFromDir(s.projectRoot)
	if err != nil {
		s.logger.Warn("invalid project configuration", "root", s.projectRoot, "error", err)
		s.sendNotification("window/showMessage", &ShowMessageParams{
			Type:    MessageTypeWarning,
			Message: fmt.Sprintf("leapsieve: ignoring invalid configuration: %v", err),
		})
		return
	}
	if cfg == nil {
		s.logger.Info("no project configuration", "root", s.projectRoot)
		return
	}

	s.optsMu.Lock()
	s.opts = cfg.SieveOptions()
	s.fromFile = true
	s.optsMu.Unlock()
	s.logger.Info("loaded project configuration", "root", s.projectRoot,
		"server_capabilities", len(cfg.Server.Capabilities))
}

func (s *Server) options() sieve.Options {
	s.optsMu.RLock()
	defer s.optsMu.RUnlock()
	return s.opts
}

func (s *Server) registry() *capability.Registry {
	reg := s.options().Registry
	if reg == nil {
		reg = capability.Default()
	}
	return reg
}

// --- Document handlers ---

func (s *Server) handleDidOpen(msg *JSONRPCMessage) error {
	var params DidOpenTextDocumentParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.documents.Open(params.TextDocument.URI, params.TextDocument.Text, params.TextDocument.Version)
	s.logger.Debug("opened", "uri", params.TextDocument.URI)

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidClose(msg *JSONRPCMessage) error {
	var params DidCloseTextDocumentParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.documents.Close(params.TextDocument.URI)
	s.logger.Debug("closed", "uri", params.TextDocument.URI)

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []Diagnostic{},
	})
	return nil
}

func (s *Server) handleDidChange(msg *JSONRPCMessage) error {
	var params DidChangeTextDocumentParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	// Full sync: the last change holds the whole document
	if len(params.ContentChanges) > 0 {
		lastChange := params.ContentChanges[len(params.ContentChanges)-1]
		s.documents.Update(params.TextDocument.URI, lastChange.Text, params.TextDocument.Version)
	}

	s.publishDiagnostics(params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidSave(msg *JSONRPCMessage) error {
	var params DidSaveTextDocumentParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	uri := params.TextDocument.URI
	if strings.HasSuffix(URIToPath(uri), config.ConfigFileName) && s.projectRoot != "" {
		s.loadProjectConfig()
		for _, open := range s.documents.List() {
			s.publishDiagnostics(open)
		}
		return nil
	}

	if doc := s.documents.Get(uri); doc != nil && params.Text != nil {
		s.documents.Update(uri, *params.Text, doc.Version)
	}
	s.publishDiagnostics(uri)
	return nil
}

// --- Feature handlers ---

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	items := s.getCompletions(params)
	s.sendResponse(msg.ID, &CompletionList{Items: items}, nil)
	return nil
}

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	s.sendResponse(msg.ID, s.getHover(params), nil)
	return nil
}

func (s *Server) handleFormatting(msg *JSONRPCMessage) error {
	var params DocumentFormattingParams
	if err := s.decodeParams(msg, &params); err != nil {
		return err
	}

	edits, err := s.formatDocument(params)
	if err != nil {
		// Unparseable documents are left alone; the diagnostics explain why.
		s.logger.Debug("format skipped", "uri", params.TextDocument.URI, "error", err)
		s.sendResponse(msg.ID, []TextEdit{}, nil)
		return nil
	}
	s.sendResponse(msg.ID, edits, nil)
	return nil
}
