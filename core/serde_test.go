package core

import (
	"strings"
	"testing"
)

func TestToRecord(t *testing.T) {
	record, err := ToRecord(JSONCodec, []byte(diffBody))
	if err != nil {
		t.Fatal(err)
	}
	if record["diff_type"] != "changed" {
		t.Errorf("diff_type = %v", record["diff_type"])
	}

	record, err = ToRecord(JSONCodec, []byte(`["a","b"]`))
	if err != nil {
		t.Fatal(err)
	}
	if items, ok := record[customRawKey].([]any); !ok || len(items) != 2 {
		t.Errorf("non object body stored as %v", record)
	}

	record, err = ToRecord(JSONCodec, []byte("  "))
	if err != nil || !record.Empty() {
		t.Errorf("blank body gave %v, %v", record, err)
	}

	if _, err = ToRecord(JSONCodec, []byte("{")); err == nil {
		t.Error("malformed body accepted")
	}
}

func TestRecordFill(t *testing.T) {
	record := Record{"token": "jwt", "token_expiration": float64(1700000000)}
	var token struct {
		Token           string `json:"token"`
		TokenExpiration int64  `json:"token_expiration"`
	}
	if err := record.Fill(&token); err != nil {
		t.Fatal(err)
	}
	if token.Token != "jwt" || token.TokenExpiration != 1700000000 {
		t.Errorf("Fill = %+v", token)
	}
}

func TestRecordSetFrom(t *testing.T) {
	record, err := ToRecord(JSONCodec, []byte(diffBody))
	if err != nil {
		t.Fatal(err)
	}
	results, err := RecordSetFrom(record, "results")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0]["id"] != "v2" {
		t.Errorf("results = %v", results)
	}
	if _, err = RecordSetFrom(record, "diff_type"); err == nil {
		t.Error("scalar attribute split into a set")
	}
	if set, _ := RecordSetFrom(record, "absent"); !set.Empty() {
		t.Errorf("absent attribute gave %v", set)
	}
}

func TestRecordRendering(t *testing.T) {
	record := Record{"id": "v2", "operation": "WRITE", "operation_content": map[string]any{"mode": "Append"}}
	table := record.PrettyTable()
	for _, want := range []string{"id", "v2", "WRITE", "<<remaining attrs>>", `{"operation_content":{"mode":"Append"}}`} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
	if got := (Record{}).PrettyTable(); got != "<>" {
		t.Errorf("empty table = %q", got)
	}
	if got := record.PrettyJson(); !strings.HasPrefix(got, `{"id":"v2"`) {
		t.Errorf("PrettyJson = %s", got)
	}
	if got := record.PrettyJson("  "); !strings.Contains(got, "\n  \"id\": \"v2\"") {
		t.Errorf("indented PrettyJson = %s", got)
	}

	set := RecordSet{{"id": "v1", "operation_type": "create"}, {"id": "v2"}}
	table = set.PrettyTable()
	for _, want := range []string{"id", "operation_type", "v1", "v2", "create"} {
		if !strings.Contains(table, want) {
			t.Errorf("set table missing %q:\n%s", want, table)
		}
	}
	if got := (RecordSet{}).PrettyTable(); got != "[]" {
		t.Errorf("empty set table = %q", got)
	}
	if got := set.PrettyJson(); !strings.HasPrefix(got, `[{"id":"v1"`) {
		t.Errorf("set PrettyJson = %s", got)
	}
}
