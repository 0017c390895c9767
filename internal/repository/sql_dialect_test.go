package repository

import (
	"strings"
	"testing"
)

func TestDayExprByDialect(t *testing.T) {
	if got := dayExprByDialect("sqlite", "sales.sold_at"); got != "strftime('%Y-%m-%d', sales.sold_at)" {
		t.Fatalf("sqlite day expr mismatch, got %s", got)
	}
	if got := dayExprByDialect("postgres", "sales.sold_at"); got != "TO_CHAR(sales.sold_at, 'YYYY-MM-DD')" {
		t.Fatalf("postgres day expr mismatch, got %s", got)
	}
}

func TestBuildLikeCondition(t *testing.T) {
	condition, argCount := buildLikeCondition(nil, []string{"products.name", " ", "products.base_code"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "(products.name LIKE ? OR products.base_code LIKE ?)" {
		t.Fatalf("unexpected condition: %s", condition)
	}

	condition, _ = buildLikeConditionByDialect("postgres", []string{"products.name"})
	if !strings.Contains(condition, "ILIKE") {
		t.Fatalf("postgres should use ILIKE, got %s", condition)
	}
	if condition, argCount = buildLikeCondition(nil, nil); condition != "" || argCount != 0 {
		t.Fatalf("empty columns should return empty condition")
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
