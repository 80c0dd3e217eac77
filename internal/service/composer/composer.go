// Package composer builds the rule-constrained prompt for a customer message.
package composer

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"smart-mail-reply-go/internal/model"
)

// DateLayout is how today's date is presented to the model.
const DateLayout = "2006-01-02"

// Composer renders prompts for one business.
type Composer struct {
	business string
}

func New(business string) *Composer {
	if business == "" {
		business = "our store"
	}
	return &Composer{business: business}
}

// Compose builds the prompt for msg. It is deterministic for fixed inputs.
func (c *Composer) Compose(msg model.InboundMessage, rules, catalog string, today time.Time) string {
	categories := strings.Join(lo.Map(model.PromptCategories, func(cat model.Category, _ int) string {
		return string(cat)
	}), ", ")

	if strings.TrimSpace(catalog) == "" {
		catalog = "(no product catalog available)"
	}
	if strings.TrimSpace(rules) == "" {
		rules = "(no business rules configured)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are the professional customer support assistant of %s.\n", c.business)
	fmt.Fprintf(&b, "Today's date: %s\n\n", today.Format(DateLayout))

	b.WriteString("BUSINESS RULES:\n")
	b.WriteString(rules)
	b.WriteString("\n\nPRODUCT CATALOG:\n")
	b.WriteString(catalog)

	b.WriteString("\n\nCUSTOMER MESSAGE:\n")
	fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(&b, "\"\"\"\n%s\n\"\"\"\n\n", msg.Body)

	b.WriteString("TASK:\n")
	b.WriteString("1. Write a polite, professional reply that follows the business rules strictly. " +
		"Compare any time period the customer mentions against the rules and today's date.\n")
	b.WriteString("2. Use only facts from the business rules and the product catalog. " +
		"Never invent prices, stock levels, order details or policies. " +
		"If the rules and catalog do not cover the request, tell the customer a member of the team will follow up, and choose OTHER.\n")
	fmt.Fprintf(&b, "3. Choose exactly one category: %s.\n", categories)
	b.WriteString("4. Reply in the customer's language.\n\n")

	b.WriteString("Answer in exactly this format and nothing else:\n")
	fmt.Fprintf(&b, "CATEGORY: <one of %s>\n", categories)
	b.WriteString("ANSWER: <your reply to the customer>\n")

	return b.String()
}
