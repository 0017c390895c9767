package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "en-US,en;q=0.9", want: LocaleEnUS},
		{in: "en", want: LocaleEnUS},
		{in: "zh-CN,zh;q=0.9", want: LocaleZhCN},
		{in: "zh-TW", want: LocaleZhCN},
		{in: "!!!", want: LocaleZhCN},
	}
	for _, tc := range cases {
		if got := Match(tc.in); got != tc.want {
			t.Fatalf("match %q want %s got %s", tc.in, tc.want, got)
		}
	}
}

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/?lang=en-US", nil)
	c.Request.Header.Set("Accept-Language", "zh-CN")
	if got := ResolveLocale(c); got != LocaleEnUS {
		t.Fatalf("query lang should win, got %s", got)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("Accept-Language", "en-GB,en;q=0.8")
	if got := ResolveLocale(c); got != LocaleEnUS {
		t.Fatalf("accept-language en should match en-US, got %s", got)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ResolveLocale(c); got != DefaultLocale {
		t.Fatalf("default locale want %s got %s", DefaultLocale, got)
	}
}

func TestTAndSprintf(t *testing.T) {
	if got := T(LocaleEnUS, "error.sale_not_found"); got != "Sale not found" {
		t.Fatalf("unexpected en message: %s", got)
	}
	if got := T("fr-FR", "error.sale_not_found"); got != "销售单不存在" {
		t.Fatalf("unknown locale should fallback to zh-CN, got %s", got)
	}
	if got := T(LocaleZhCN, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should return key, got %s", got)
	}
	if got := Sprintf(LocaleEnUS, "error.password_min_length", 8); got != "Password must be at least 8 characters" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
	if got := Sprintf(LocaleZhCN, "error.stock_shortage", "TS01-黑-M", 1, 3); got != "TS01-黑-M 库存不足（可用 1，需要 3）" {
		t.Fatalf("unexpected formatted zh message: %s", got)
	}
}
