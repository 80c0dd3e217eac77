// Package parser interprets raw model output as a category and an answer.
package parser

import (
	"regexp"
	"strings"

	"smart-mail-reply-go/internal/model"
)

// Result is either Parsed or Malformed.
type Result interface {
	result()
}

// Parsed is output that carried both the category and answer markers.
type Parsed struct {
	Category model.Category
	Answer   string
}

// Malformed is output missing the answer marker or the category marker
// ahead of it.
type Malformed struct {
	Raw string
}

func (Parsed) result()    {}
func (Malformed) result() {}

var (
	answerMarker   = regexp.MustCompile(`(?i)(ANSWER|CEVAP):`)
	categoryMarker = regexp.MustCompile(`(?i)(CATEGORY|KATEGOR[Iİ]):`)

	thinkingTags = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// aliases maps localized category names onto the canonical vocabulary.
var aliases = map[string]model.Category{
	"IADE":    model.CategoryReturn,
	"İADE":    model.CategoryReturn,
	"KARGO":   model.CategoryShipping,
	"SORU":    model.CategoryQuestion,
	"SIKAYET": model.CategoryOther,
	"ŞIKAYET": model.CategoryOther,
	"ŞİKAYET": model.CategoryOther,
	"GENEL":   model.CategoryGeneral,
}

// Decode classifies raw output. Markers match case-insensitively. Output
// missing either marker is Malformed and keeps the raw text untouched.
func Decode(raw string) Result {
	text := thinkingTags.ReplaceAllString(raw, "")

	at := answerMarker.FindStringIndex(text)
	if at == nil {
		return Malformed{Raw: raw}
	}

	head := text[:at[0]]
	cats := categoryMarker.FindAllStringIndex(head, -1)
	if len(cats) == 0 {
		return Malformed{Raw: raw}
	}

	category := model.CategoryGeneral
	if c := normalize(head[cats[len(cats)-1][1]:]); c != "" {
		category = c
	}
	answer := strings.TrimSpace(strings.TrimLeft(text[at[1]:], "* \t"))

	return Parsed{Category: category, Answer: answer}
}

// Parse is Decode resolved to a category and answer. It never fails; output
// without both markers becomes GENERAL with the whole raw text as the answer.
func Parse(raw string) (model.Category, string) {
	switch r := Decode(raw).(type) {
	case Parsed:
		return r.Category, r.Answer
	case Malformed:
		return model.CategoryGeneral, r.Raw
	}
	return model.CategoryGeneral, raw
}

func normalize(s string) model.Category {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "*", "")
	s = strings.Trim(s, " \t_`#[]<>\"'.:")
	s = strings.ToUpper(strings.TrimSpace(s))

	if c, ok := aliases[s]; ok {
		return c
	}
	return model.Category(s)
}
