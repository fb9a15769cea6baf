package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"treestore/pkg/common"
	"treestore/pkg/protocol"
)

var ErrNotFound = errors.New("record not found")

// Client talks to a treestore TCP server. It is not safe for concurrent use.
type Client struct {
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

func (c *Client) All() ([]common.Record, error) {
	return c.list(protocol.OpAll, nil)
}

func (c *Client) Roots() ([]common.Record, error) {
	return c.list(protocol.OpRoots, nil)
}

// Get returns ErrNotFound when no record has the id.
func (c *Client) Get(id common.Identifier) (*common.Record, error) {
	key, err := protocol.EncodeID(id)
	if err != nil {
		return nil, err
	}
	pkg, err := c.roundTrip(protocol.OpGet, key)
	if err != nil {
		return nil, err
	}

	switch pkg.Op {
	case protocol.RespVal:
		return protocol.DecodeRecord(pkg.Value)
	case protocol.RespNil:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case protocol.RespErr:
		return nil, errors.New(string(pkg.Value))
	default:
		return nil, errors.New("unknown response")
	}
}

func (c *Client) Children(id common.Identifier) ([]common.Record, error) {
	return c.listByID(protocol.OpChildren, id)
}

func (c *Client) Descendants(id common.Identifier) ([]common.Record, error) {
	return c.listByID(protocol.OpDescendants, id)
}

func (c *Client) Ancestors(id common.Identifier) ([]common.Record, error) {
	return c.listByID(protocol.OpAncestors, id)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) listByID(op byte, id common.Identifier) ([]common.Record, error) {
	key, err := protocol.EncodeID(id)
	if err != nil {
		return nil, err
	}
	return c.list(op, key)
}

func (c *Client) list(op byte, key []byte) ([]common.Record, error) {
	pkg, err := c.roundTrip(op, key)
	if err != nil {
		return nil, err
	}
	switch pkg.Op {
	case protocol.RespVal:
		return protocol.DecodeRecords(pkg.Value)
	case protocol.RespErr:
		return nil, errors.New(string(pkg.Value))
	default:
		return nil, errors.New("unknown response")
	}
}

// roundTrip sends one request and reads the reply, redialing once if the
// connection turned out to be broken. Requests that cannot be framed are
// rejected without touching the connection.
func (c *Client) roundTrip(op byte, key []byte) (*protocol.Packet, error) {
	err := protocol.Encode(c.conn, op, key, nil)
	if errors.Is(err, protocol.ErrFrameTooLarge) {
		return nil, err
	}
	if err == nil {
		if pkg, err := protocol.Decode(c.conn); err == nil {
			return pkg, nil
		}
	}
	return c.reconnectAndRetry(op, key)
}

func (c *Client) reconnectAndRetry(op byte, key []byte) (*protocol.Packet, error) {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, 5*time.Second)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	// Re-send
	if err := protocol.Encode(c.conn, op, key, nil); err != nil {
		return nil, err
	}
	// Re-read
	return protocol.Decode(c.conn)
}
