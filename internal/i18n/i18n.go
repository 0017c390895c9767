package i18n

import (
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"

	// DefaultLocale 未识别语言时的回退
	DefaultLocale = LocaleZhCN

	queryKey = "lang"
)

var supportedTags = []language.Tag{
	language.SimplifiedChinese,
	language.AmericanEnglish,
}

var matcher = language.NewMatcher(supportedTags)

// ResolveLocale 按 ?lang= 与 Accept-Language 解析请求语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query(queryKey)); lang != "" {
		return Match(lang)
	}
	if c.Request != nil {
		if header := strings.TrimSpace(c.GetHeader("Accept-Language")); header != "" {
			return Match(header)
		}
	}
	return DefaultLocale
}

// Match 将任意语言描述匹配到支持的 locale
func Match(raw string) string {
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLocale
	}
	switch supportedTags[index] {
	case language.AmericanEnglish:
		return LocaleEnUS
	default:
		return LocaleZhCN
	}
}

// T 返回 key 对应文案，缺失时回退默认语言，再回退 key 本身
func T(locale, key string) string {
	if msg, ok := lookup(locale, key); ok {
		return msg
	}
	return key
}

// Sprintf 按 locale 格式化带参数的文案
func Sprintf(locale, key string, args ...interface{}) string {
	format, ok := lookup(locale, key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return format
	}
	return message.NewPrinter(tagFor(locale)).Sprintf(format, args...)
}

func lookup(locale, key string) (string, bool) {
	if table, ok := catalog[normalizeLocale(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg, true
		}
	}
	msg, ok := catalog[DefaultLocale][key]
	return msg, ok
}

func normalizeLocale(locale string) string {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "en-us", "en":
		return LocaleEnUS
	default:
		return LocaleZhCN
	}
}

func tagFor(locale string) language.Tag {
	if normalizeLocale(locale) == LocaleEnUS {
		return language.AmericanEnglish
	}
	return language.SimplifiedChinese
}
