package pager

import (
	"encoding/binary"
	"fmt"
)

// Row is an ordered tuple of typed values matching a schema's column
// order. Rows are never persisted structurally (spec.md §3) — only the
// encoded byte buffer below is.
type Row []Value

// EncodeRow encodes row into the compact wire format of spec.md §4.4:
// the concatenation, in column order, of
//
//	value_len:uint16 (big-endian) | value_bytes:value_len
//
// Every value must be non-null; a missing value for any column is
// ENCODE_ERROR (ErrNullValue from the engine layer — this function itself
// reports it as a plain error since pager has no notion of "which error
// kind the engine should surface").
func EncodeRow(cols []Column, row Row) ([]byte, error) {
	if len(row) != len(cols) {
		return nil, fmt.Errorf("encode row: have %d values for %d columns", len(row), len(cols))
	}
	var buf []byte
	for i, col := range cols {
		v := row[i]
		if v.IsNull() {
			return nil, fmt.Errorf("encode row: column %q is null", col.Name)
		}
		var payload []byte
		switch col.Type {
		case ColumnInteger:
			payload = make([]byte, 4)
			binary.BigEndian.PutUint32(payload, uint32(v.Int))
		case ColumnText:
			payload = []byte(v.Text)
		default:
			return nil, fmt.Errorf("encode row: column %q has unknown type", col.Name)
		}
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(payload)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, payload...)
	}
	return buf, nil
}

// DecodeRow decodes a row strictly schema-driven: read value_len, then
// value_len bytes, interpreted per the column's declared type; advance and
// repeat. Decode is defensive — if the remaining buffer is shorter than
// value_len+2 for any column, it stops and returns the partially decoded
// row rather than erroring, tolerating format evolution (spec.md §4.4).
func DecodeRow(cols []Column, data []byte) Row {
	row := make(Row, 0, len(cols))
	off := 0
	for _, col := range cols {
		if off+2 > len(data) {
			break
		}
		valueLen := int(binary.BigEndian.Uint16(data[off : off+2]))
		if off+2+valueLen > len(data) {
			break
		}
		payload := data[off+2 : off+2+valueLen]
		off += 2 + valueLen

		switch col.Type {
		case ColumnInteger:
			if len(payload) != 4 {
				return row
			}
			row = append(row, IntValue(int32(binary.BigEndian.Uint32(payload))))
		case ColumnText:
			row = append(row, TextValue(string(payload)))
		default:
			return row
		}
	}
	return row
}
