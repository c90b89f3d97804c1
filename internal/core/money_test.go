package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"3.5", "3.50", true},
		{"3.50", "3.50", true},
		{"4", "4.00", true},
		{"0", "0.00", true},
		{"12.345", "12.35", true}, // half away from zero
		{"12.344", "12.34", true},
		{" 2.50 ", "2.50", true},
		{"-1.5", "-1.50", true}, // negatives are not rejected
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
	}
	for _, in := range []string{`{"a":"3.5"}`, `{"a":3.5}`, `{"a":"3.50"}`} {
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if v.A.String() != "3.50" {
			t.Fatalf("%s: got %s", in, v.A)
		}
	}
	if err := json.Unmarshal([]byte(`{"a":"x"}`), &v); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	out, err := json.Marshal(MustParseAmount("10"))
	if err != nil || string(out) != `"10.00"` {
		t.Fatalf("marshal: %s %v", out, err)
	}
}

func TestAmountScanAndValue(t *testing.T) {
	inputs := []any{[]byte("3.50"), "3.5", float64(3.5), int64(3)}
	wants := []string{"3.50", "3.50", "3.50", "3.00"}
	for i, in := range inputs {
		var a Amount
		if err := a.Scan(in); err != nil {
			t.Fatalf("scan %v: %v", in, err)
		}
		if a.String() != wants[i] {
			t.Fatalf("scan %v: got %s, want %s", in, a, wants[i])
		}
	}

	v, err := MustParseAmount("3.5").Value()
	if err != nil || v != "3.50" {
		t.Fatalf("value: %v %v", v, err)
	}
}
