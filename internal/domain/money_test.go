package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/boddenberg/fintrack-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

func TestCoerceAmount(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		cents int64
		ok    bool
	}{
		{"integer", `12`, 1200, true},
		{"decimal", `12.34`, 1234, true},
		{"rounds half up", `0.005`, 1, true},
		{"numeric string", `"45.10"`, 4510, true},
		{"padded string", `" 7 "`, 700, true},
		{"zero", `0`, 0, true},
		{"null", `null`, 0, false},
		{"empty", ``, 0, false},
		{"garbage string", `"abc"`, 0, false},
		{"object", `{"value":1}`, 0, false},
		{"negative", `-5`, 0, false},
		{"huge", `1e30`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := domain.CoerceAmount(json.RawMessage(tt.raw))
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if m.Cents != tt.cents {
				t.Errorf("expected %d cents, got %d", tt.cents, m.Cents)
			}
		})
	}
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	in := domain.Cents(-1205)

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != "-12.05" {
		t.Errorf("expected -12.05, got %s", data)
	}

	var out domain.Money
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("expected %v, got %v", in, out)
	}
}

func TestMoney_UnmarshalRejectsGarbage(t *testing.T) {
	var m domain.Money
	if err := json.Unmarshal([]byte(`"twelve"`), &m); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

func TestMoneyFromDecimal(t *testing.T) {
	m := domain.MoneyFromDecimal(decimal.RequireFromString("19.999"))
	if m.Cents != 2000 {
		t.Errorf("expected 2000 cents, got %d", m.Cents)
	}
	if m.String() != "20.00" {
		t.Errorf("expected 20.00, got %s", m.String())
	}
}

func TestPercent_JSON(t *testing.T) {
	data, _ := json.Marshal(domain.UnboundedPercent())
	if string(data) != `"unbounded"` {
		t.Errorf("expected \"unbounded\", got %s", data)
	}

	data, _ = json.Marshal(domain.PercentOf(decimal.RequireFromString("33.333")))
	if string(data) != "33.33" {
		t.Errorf("expected 33.33, got %s", data)
	}

	var p domain.Percent
	if err := json.Unmarshal([]byte(`"unbounded"`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Unbounded {
		t.Error("expected unbounded percent")
	}

	if err := json.Unmarshal([]byte(`12.5`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Unbounded || !p.Value.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("expected 12.5, got %s", p)
	}
}
