package protocol

import (
	"fmt"

	"treestore/pkg/common"

	"github.com/fxamacker/cbor/v2"
)

// Payloads (identifiers in keys, records in values) are CBOR with core
// deterministic encoding, so equal values always produce equal bytes.
var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("protocol: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("protocol: CBOR decoder initialization failed: " + err.Error())
	}
}

func EncodeID(id common.Identifier) ([]byte, error) {
	return encMode.Marshal(id)
}

func DecodeID(data []byte) (common.Identifier, error) {
	var id common.Identifier
	if err := decMode.Unmarshal(data, &id); err != nil {
		return common.Identifier{}, fmt.Errorf("decode identifier: %w", err)
	}
	return id, nil
}

func EncodeRecord(rec *common.Record) ([]byte, error) {
	return encMode.Marshal(rec)
}

func DecodeRecord(data []byte) (*common.Record, error) {
	var rec common.Record
	if err := decMode.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// EncodeRecords encodes a query result as a CBOR array of records.
func EncodeRecords(records []*common.Record) ([]byte, error) {
	if records == nil {
		records = []*common.Record{}
	}
	return encMode.Marshal(records)
}

// EncodeRecordValues is EncodeRecords for the slice returned by All.
func EncodeRecordValues(records []common.Record) ([]byte, error) {
	if records == nil {
		records = []common.Record{}
	}
	return encMode.Marshal(records)
}

func DecodeRecords(data []byte) ([]common.Record, error) {
	records := make([]common.Record, 0)
	if err := decMode.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}
