package schema

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

type position struct {
	ID        string  `json:"id,omitempty"`
	Code      string  `json:"code"`
	CostNoFee float64 `json:"costNoFee"`
	Lots      int     `json:"lots"`
}

var positions = Mapping{
	Table: "positions",
	Fields: []Field{
		{App: "id", Remote: "id", ReadOnly: true},
		{App: "code", Remote: "code"},
		{App: "costNoFee", Remote: "cost_no_fee", Coerce: Numeric},
		{App: "lots", Remote: "lots", Coerce: Integer},
	},
}

func TestToRemote(t *testing.T) {
	row, err := positions.ToRemote(position{ID: "ignored", Code: "2330", CostNoFee: 580.5, Lots: 2}, Row{"user_id": "u1"})
	if err != nil {
		t.Fatalf("ToRemote: %v", err)
	}
	if _, ok := row["id"]; ok {
		t.Error("read-only id must not be written")
	}
	want := Row{"code": "2330", "cost_no_fee": 580.5, "lots": int64(2), "user_id": "u1"}
	if !reflect.DeepEqual(row, want) {
		t.Errorf("row = %#v, want %#v", row, want)
	}
}

func TestToRemoteFromMap(t *testing.T) {
	row, err := positions.ToRemote(map[string]any{"code": "0050", "unknown": true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 1 || row["code"] != "0050" {
		t.Errorf("row = %#v", row)
	}
}

func TestToRemoteRejectsNonObject(t *testing.T) {
	if _, err := positions.ToRemote([]int{1, 2}, nil); err == nil {
		t.Error("expected error for non-object record")
	}
}

func TestFromRemoteCoercesText(t *testing.T) {
	row := Row{"id": json.Number("17"), "code": "2330", "cost_no_fee": "580.50", "lots": "3", "user_id": "u1"}
	var p position
	if err := positions.FromRemote(row, &p); err != nil {
		t.Fatalf("FromRemote: %v", err)
	}
	want := position{ID: "17", Code: "2330", CostNoFee: 580.5, Lots: 3}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}
}

func TestFromRemoteBadNumber(t *testing.T) {
	var p position
	err := positions.FromRemote(Row{"cost_no_fee": "n/a"}, &p)
	if err == nil || !strings.Contains(err.Error(), "positions.cost_no_fee") {
		t.Errorf("expected column in error, got %v", err)
	}
}

func TestFromRemoteList(t *testing.T) {
	rows := []Row{
		{"id": "a", "code": "1", "cost_no_fee": json.Number("10"), "lots": json.Number("1")},
		{"id": "b", "code": "2", "cost_no_fee": 20.25, "lots": nil},
	}
	var out []position
	if err := positions.FromRemoteList(rows, &out); err != nil {
		t.Fatalf("FromRemoteList: %v", err)
	}
	want := []position{
		{ID: "a", Code: "1", CostNoFee: 10, Lots: 1},
		{ID: "b", Code: "2", CostNoFee: 20.25},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %+v, want %+v", out, want)
	}
}

func TestFromRemoteListEmpty(t *testing.T) {
	out := []position{}
	if err := positions.FromRemoteList(nil, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 0 {
		t.Errorf("len = %d, want 0", len(out))
	}
}

func TestRoundTrip(t *testing.T) {
	in := position{Code: "2603", CostNoFee: 123.45, Lots: 4}
	row, err := positions.ToRemote(in, nil)
	if err != nil {
		t.Fatal(err)
	}
	row["id"] = "x"
	var out position
	if err := positions.FromRemote(row, &out); err != nil {
		t.Fatal(err)
	}
	in.ID = "x"
	if out != in {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestColumns(t *testing.T) {
	if got := positions.Columns(); got != "id,code,cost_no_fee,lots" {
		t.Errorf("Columns = %q", got)
	}
}
