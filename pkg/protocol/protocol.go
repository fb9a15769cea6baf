package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

const (
	MagicNumber = 0x54

	OpAll         = 0x01
	OpGet         = 0x02
	OpChildren    = 0x03
	OpDescendants = 0x04
	OpAncestors   = 0x05
	OpRoots       = 0x06

	RespVal = 0x01
	RespNil = 0x02
	RespErr = 0xFF
)

var (
	ErrInvalidMagic  = errors.New("invalid magic number")
	ErrFrameTooLarge = errors.New("frame field exceeds its length prefix")
)

// [Magic 1B] [Op 1B] [KeyLen 2B] [ValLen 4B] [Key] [Value], big endian.
type Packet struct {
	Op    byte
	Key   []byte
	Value []byte
}

// Encode writes one frame. Keys longer than 65535 bytes or values longer than
// 4 GiB fail with ErrFrameTooLarge before anything is written.
func Encode(w io.Writer, op byte, key []byte, value []byte) error {
	if len(key) > math.MaxUint16 {
		return fmt.Errorf("%w: key is %d bytes", ErrFrameTooLarge, len(key))
	}
	if uint64(len(value)) > math.MaxUint32 {
		return fmt.Errorf("%w: value is %d bytes", ErrFrameTooLarge, len(value))
	}

	frame := make([]byte, 8, 8+len(key)+len(value))
	frame[0] = MagicNumber
	frame[1] = op
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(key)))
	binary.BigEndian.PutUint32(frame[4:8], uint32(len(value)))
	frame = append(frame, key...)
	frame = append(frame, value...)

	_, err := w.Write(frame)
	return err
}

func Decode(r io.Reader) (*Packet, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	if header[0] != MagicNumber {
		return nil, ErrInvalidMagic
	}

	op := header[1]
	kLen := binary.BigEndian.Uint16(header[2:4])
	vLen := binary.BigEndian.Uint32(header[4:8])

	key := make([]byte, kLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}

	val := make([]byte, vLen)
	if _, err := io.ReadFull(r, val); err != nil {
		return nil, err
	}

	return &Packet{Op: op, Key: key, Value: val}, nil
}
