package network

import (
	"errors"
	"io"
	"log"
	"net"

	"treestore/pkg/common"
	"treestore/pkg/core"
	"treestore/pkg/monitor"
	"treestore/pkg/protocol"
)

type TCPServer struct {
	store      *core.TreeStore
	stats      *monitor.WorkloadStats
	cycleGuard bool
}

func NewTCPServer(store *core.TreeStore, stats *monitor.WorkloadStats, cycleGuard bool) *TCPServer {
	if stats == nil {
		stats = monitor.NewWorkloadStats(nil)
	}
	return &TCPServer{store: store, stats: stats, cycleGuard: cycleGuard}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Printf("[TCP] Listening on %s (Binary Protocol)", addr)
	return s.Serve(listener)
}

// Serve accepts connections until the listener is closed.
func (s *TCPServer) Serve(listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("[TCP] Accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("[TCP] Decode error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if err := s.dispatch(conn, req); err != nil {
			log.Printf("[TCP] Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *TCPServer) dispatch(w io.Writer, req *protocol.Packet) error {
	var records []*common.Record

	switch req.Op {
	case protocol.OpAll:
		s.stats.RecordRead("all")
		data, err := protocol.EncodeRecordValues(s.store.All())
		return reply(w, data, err)
	case protocol.OpRoots:
		s.stats.RecordRead("roots")
		records = s.store.Roots()
	case protocol.OpGet, protocol.OpChildren, protocol.OpDescendants, protocol.OpAncestors:
		id, err := protocol.DecodeID(req.Key)
		if err != nil {
			return protocol.Encode(w, protocol.RespErr, nil, []byte(err.Error()))
		}
		if req.Op == protocol.OpGet {
			return s.get(w, id)
		}
		records, err = s.traverse(req.Op, id)
		if err != nil {
			return protocol.Encode(w, protocol.RespErr, nil, []byte(err.Error()))
		}
	default:
		return protocol.Encode(w, protocol.RespErr, nil, []byte("unknown op"))
	}

	data, err := protocol.EncodeRecords(records)
	return reply(w, data, err)
}

func (s *TCPServer) get(w io.Writer, id common.Identifier) error {
	s.stats.RecordRead("get")
	rec, ok := s.store.Get(id)
	if !ok {
		s.stats.RecordMiss()
		return protocol.Encode(w, protocol.RespNil, nil, nil)
	}
	s.stats.RecordHit()
	data, err := protocol.EncodeRecord(rec)
	return reply(w, data, err)
}

func (s *TCPServer) traverse(op byte, id common.Identifier) ([]*common.Record, error) {
	switch op {
	case protocol.OpChildren:
		s.stats.RecordRead("children")
		return s.store.Children(id), nil
	case protocol.OpDescendants:
		s.stats.RecordRead("descendants")
		if s.cycleGuard {
			return s.store.DescendantsChecked(id)
		}
		return s.store.Descendants(id), nil
	default:
		s.stats.RecordRead("ancestors")
		if s.cycleGuard {
			return s.store.AncestorsChecked(id)
		}
		return s.store.Ancestors(id), nil
	}
}

func reply(w io.Writer, payload []byte, err error) error {
	if err == nil {
		err = protocol.Encode(w, protocol.RespVal, nil, payload)
		if !errors.Is(err, protocol.ErrFrameTooLarge) {
			return err
		}
	}
	return protocol.Encode(w, protocol.RespErr, nil, []byte(err.Error()))
}
