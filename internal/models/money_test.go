package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoneyJSONFixedScale(t *testing.T) {
	raw, err := json.Marshal(NewMoney(6))
	if err != nil {
		t.Fatalf("marshal money failed: %v", err)
	}
	if string(raw) != `"6.00"` {
		t.Fatalf("unexpected money json: %s", raw)
	}

	var m Money
	if err := json.Unmarshal([]byte(`"12.345"`), &m); err != nil {
		t.Fatalf("unmarshal money string failed: %v", err)
	}
	if m.String() != "12.35" {
		t.Fatalf("money should round to 2dp, got %s", m.String())
	}
	if err := json.Unmarshal([]byte(`9.9`), &m); err != nil {
		t.Fatalf("unmarshal money number failed: %v", err)
	}
	if !m.Equal(decimal.RequireFromString("9.9")) {
		t.Fatalf("unexpected money value: %s", m.String())
	}
}

func TestCostKeepsFourDecimals(t *testing.T) {
	c := NewCostFromDecimal(decimal.NewFromInt(20).Div(decimal.NewFromInt(3)))
	if c.Decimal.String() != "6.6667" {
		t.Fatalf("cost should keep 4dp, got %s", c.Decimal.String())
	}
	value, err := c.Value()
	if err != nil {
		t.Fatalf("cost value failed: %v", err)
	}
	if value != "6.6667" {
		t.Fatalf("unexpected stored cost: %v", value)
	}
	raw, _ := json.Marshal(c)
	if string(raw) != `"6.67"` {
		t.Fatalf("cost json should display 2dp, got %s", raw)
	}
}

func TestStringArrayScan(t *testing.T) {
	var tags StringArray
	if err := tags.Scan(`["夏季","新品"]`); err != nil {
		t.Fatalf("scan string failed: %v", err)
	}
	if len(tags) != 2 || tags[1] != "新品" {
		t.Fatalf("unexpected tags: %v", tags)
	}
	if err := tags.Scan(nil); err != nil || len(tags) != 0 {
		t.Fatalf("nil scan should reset tags, got %v err=%v", tags, err)
	}
	value, _ := StringArray(nil).Value()
	if value != "[]" {
		t.Fatalf("nil tags should store empty array, got %v", value)
	}
}

func TestBuildSKU(t *testing.T) {
	if got := BuildSKU(" TS01 ", "白", "M"); got != "TS01-白-M" {
		t.Fatalf("unexpected sku: %s", got)
	}
}
