package pager

import "testing"

func TestRowCodec_RoundTrip(t *testing.T) {
	cols := []Column{
		{Name: "id", Type: ColumnInteger},
		{Name: "name", Type: ColumnText},
		{Name: "age", Type: ColumnInteger},
	}
	tests := []struct {
		name string
		row  Row
	}{
		{"basic", Row{IntValue(1), TextValue("Alice"), IntValue(30)}},
		{"empty-text", Row{IntValue(0), TextValue(""), IntValue(-5)}},
		{"negative-int", Row{IntValue(-42), TextValue("x"), IntValue(0)}},
		{"unicode-text", Row{IntValue(7), TextValue("héllo wörld"), IntValue(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeRow(cols, tt.row)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			decoded := DecodeRow(cols, encoded)
			if len(decoded) != len(tt.row) {
				t.Fatalf("length mismatch: got %d want %d", len(decoded), len(tt.row))
			}
			for i := range tt.row {
				if !decoded[i].Equal(tt.row[i]) {
					t.Errorf("[%d] got %+v want %+v", i, decoded[i], tt.row[i])
				}
			}
		})
	}
}

func TestRowCodec_EncodeRejectsNull(t *testing.T) {
	cols := []Column{{Name: "id", Type: ColumnInteger}, {Name: "name", Type: ColumnText}}
	_, err := EncodeRow(cols, Row{IntValue(1), Null})
	if err == nil {
		t.Fatal("expected error encoding a null column value")
	}
}

func TestRowCodec_DecodeTruncatedBufferStopsEarly(t *testing.T) {
	cols := []Column{
		{Name: "id", Type: ColumnInteger},
		{Name: "name", Type: ColumnText},
		{Name: "age", Type: ColumnInteger},
	}
	full, err := EncodeRow(cols, Row{IntValue(1), TextValue("Bob"), IntValue(25)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// Truncate mid-way through the third column's value bytes (its
	// length prefix stays intact, but fewer than value_len bytes follow).
	truncated := full[:len(full)-3]
	decoded := DecodeRow(cols, truncated)
	if len(decoded) != 2 {
		t.Fatalf("expected 2 decoded columns from truncated buffer, got %d", len(decoded))
	}
	if decoded[0].Int != 1 || decoded[1].Text != "Bob" {
		t.Fatalf("unexpected partial decode: %+v", decoded)
	}
}

func TestRowCodec_DecodeEmptyBuffer(t *testing.T) {
	cols := []Column{{Name: "id", Type: ColumnInteger}}
	decoded := DecodeRow(cols, nil)
	if len(decoded) != 0 {
		t.Fatalf("expected 0 columns from empty buffer, got %d", len(decoded))
	}
}
