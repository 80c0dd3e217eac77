package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smart-mail-reply-go/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category model.Category
		answer   string
	}{
		{
			name:     "well formed",
			raw:      "CATEGORY: RETURN\nANSWER: Sorry, the 14 day window has passed.",
			category: model.CategoryReturn,
			answer:   "Sorry, the 14 day window has passed.",
		},
		{
			name:     "markdown decoration",
			raw:      "**CATEGORY:** **SHIPPING**\n\n**ANSWER:** Shipping is 50 TL.",
			category: model.CategoryShipping,
			answer:   "Shipping is 50 TL.",
		},
		{
			name:     "lower case markers",
			raw:      "category: question\nanswer: Yes, it is in stock.",
			category: model.CategoryQuestion,
			answer:   "Yes, it is in stock.",
		},
		{
			name:     "localized markers",
			raw:      "KATEGORI: IADE\nCEVAP: İade süreniz dolmuştur.",
			category: model.CategoryReturn,
			answer:   "İade süreniz dolmuştur.",
		},
		{
			name:     "bracketed category",
			raw:      "CATEGORY: [OTHER]\nANSWER: A colleague will contact you.",
			category: model.CategoryOther,
			answer:   "A colleague will contact you.",
		},
		{
			name:     "missing answer marker",
			raw:      "Thanks for your message, we will check.",
			category: model.CategoryGeneral,
			answer:   "Thanks for your message, we will check.",
		},
		{
			name:     "answer marker without category",
			raw:      "ANSWER: Hello there",
			category: model.CategoryGeneral,
			answer:   "ANSWER: Hello there",
		},
		{
			name:     "chatter before answer without category",
			raw:      "Sure, here you go.\nANSWER: Hello there",
			category: model.CategoryGeneral,
			answer:   "Sure, here you go.\nANSWER: Hello there",
		},
		{
			name:     "category after answer marker",
			raw:      "ANSWER: Hello\nCATEGORY: RETURN",
			category: model.CategoryGeneral,
			answer:   "ANSWER: Hello\nCATEGORY: RETURN",
		},
		{
			name:     "empty category value",
			raw:      "CATEGORY:\nANSWER: Hello",
			category: model.CategoryGeneral,
			answer:   "Hello",
		},
		{
			name:     "preamble before markers",
			raw:      "Sure!\nCATEGORY: SHIPPING\nANSWER: Free above 500 TL.",
			category: model.CategoryShipping,
			answer:   "Free above 500 TL.",
		},
		{
			name:     "answer keeps later markers",
			raw:      "CATEGORY: QUESTION\nANSWER: Our answer: yes.",
			category: model.CategoryQuestion,
			answer:   "Our answer: yes.",
		},
		{
			name:     "thinking tags removed",
			raw:      "<think>CATEGORY: OTHER</think>CATEGORY: RETURN\nANSWER: ok",
			category: model.CategoryReturn,
			answer:   "ok",
		},
		{
			name:     "engine error sentinel",
			raw:      "CATEGORY: ERROR\nANSWER: We are sorry.",
			category: model.CategoryError,
			answer:   "We are sorry.",
		},
		{
			name:     "empty input",
			raw:      "",
			category: model.CategoryGeneral,
			answer:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, answer := Parse(tt.raw)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.answer, answer)
		})
	}
}

func TestParseIsTotal(t *testing.T) {
	inputs := []string{
		"ANSWER:",
		"CATEGORY:",
		"answer:answer:answer:",
		"\x00\xff\xfe",
		"KATEGORİ: ŞİKAYET\nCEVAP: x",
		"ıııı ANSWER: ß",
		"Category: x Kategori: y ANSWER: z",
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			category, _ := Parse(raw)
			assert.NotEmpty(t, category)
		}, raw)
	}
}

func TestDecodeVariants(t *testing.T) {
	assert.Equal(t, Malformed{Raw: "  plain text \n"}, Decode("  plain text \n"))
	assert.Equal(t, Malformed{Raw: " ANSWER: hi"}, Decode(" ANSWER: hi"))
	assert.Equal(t, Parsed{Category: model.CategoryOther, Answer: "x"}, Decode("KATEGORİ: ŞİKAYET\nCEVAP: x"))
	assert.Equal(t, Parsed{Category: model.CategoryShipping, Answer: "ok"}, Decode("Kategori: kargo\nCevap: ok"))
	assert.Equal(t, Parsed{Category: model.CategoryReturn, Answer: "b"}, Decode("category: other\nCATEGORY: return\nanswer: b"))
}
