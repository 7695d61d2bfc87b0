package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRecord_RoundTripPreservesOrder(t *testing.T) {
	input := `{"zeta":1,"alpha":{"nested":[1,2]},"big":12345678901234567890,"text":"hi"}`

	var rec Record
	if err := json.Unmarshal([]byte(input), &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != input {
		t.Errorf("round trip = %s, want %s", out, input)
	}
}

func TestRecord_SetAppendsAndKeepsPosition(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"prompt":"p","text":"old","z":true}`), &rec); err != nil {
		t.Fatal(err)
	}

	if err := rec.Set("text", "new"); err != nil {
		t.Fatal(err)
	}
	if err := rec.Set("extra", []int{1}); err != nil {
		t.Fatal(err)
	}

	out, _ := json.Marshal(rec)
	want := `{"prompt":"p","text":"new","z":true,"extra":[1]}`
	if string(out) != want {
		t.Errorf("Marshal() = %s, want %s", out, want)
	}
}

func TestRecord_SetDoesNotEscapeHTML(t *testing.T) {
	rec := NewRecord()
	if err := rec.Set("text", "a < b && c"); err != nil {
		t.Fatal(err)
	}
	raw, _ := rec.Raw("text")
	if string(raw) != `"a < b && c"` {
		t.Errorf("Raw() = %s", raw)
	}
}

func TestRecord_CloneIsIndependent(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"prompt":"p"}`), &rec); err != nil {
		t.Fatal(err)
	}
	clone := rec.Clone()
	if err := clone.Set("text", "x"); err != nil {
		t.Fatal(err)
	}

	if rec.Has("text") {
		t.Errorf("mutating clone changed the original")
	}
	if rec.Len() != 1 || clone.Len() != 2 {
		t.Errorf("Len() original=%d clone=%d", rec.Len(), clone.Len())
	}
}

func TestRecord_NonObjectElements(t *testing.T) {
	var recs []Record
	if err := json.Unmarshal([]byte(`["a string", 42, null, {"text":"ok"}]`), &recs); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("len = %d, want 4", len(recs))
	}
	for i := 0; i < 3; i++ {
		if recs[i].IsObject() {
			t.Errorf("element %d should not be an object", i)
		}
	}
	if !recs[3].IsObject() {
		t.Errorf("element 3 should be an object")
	}

	if err := recs[0].Set("text", "x"); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("Set() on non-object error = %v, want ErrInvalidRecord", err)
	}

	out, _ := json.Marshal(recs)
	if string(out) != `["a string",42,null,{"text":"ok"}]` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestRecord_String(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"text":"hello","n":3,"none":null}`), &rec); err != nil {
		t.Fatal(err)
	}

	if s, ok := rec.String("text"); !ok || s != "hello" {
		t.Errorf("String(text) = %q, %v", s, ok)
	}
	if _, ok := rec.String("n"); ok {
		t.Errorf("String(n) should fail for a number")
	}
	if _, ok := rec.String("none"); ok {
		t.Errorf("String(none) should fail for null")
	}
	if _, ok := rec.String("missing"); ok {
		t.Errorf("String(missing) should fail")
	}
}

func TestRecord_Get(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"details":[{"query":"q","top_docs":[],"retrieval_runtime":0.5}]}`), &rec); err != nil {
		t.Fatal(err)
	}

	var details []DocDetail
	if err := rec.Get("details", &details); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(details) != 1 || details[0].Query != "q" || details[0].RetrievalRuntime != 0.5 {
		t.Errorf("Get() = %+v", details)
	}

	if err := rec.Get("nope", &details); !errors.Is(err, ErrMissingField) {
		t.Errorf("Get(nope) error = %v, want ErrMissingField", err)
	}
}

func TestRecord_DuplicateKeys(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"a":1,"b":2,"a":3}`), &rec); err != nil {
		t.Fatal(err)
	}
	out, _ := json.Marshal(rec)
	if string(out) != `{"a":3,"b":2}` {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestRecord_ZeroValueMarshalsEmptyObject(t *testing.T) {
	out, err := json.Marshal(Record{})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `{}` {
		t.Errorf("Marshal() = %s", out)
	}
}
