package model

// Category is the classification assigned to a customer message.
type Category string

const (
	CategoryReturn   Category = "RETURN"
	CategoryShipping Category = "SHIPPING"
	CategoryQuestion Category = "QUESTION"
	CategoryOther    Category = "OTHER"

	// CategoryGeneral is used when the model output carries no category.
	CategoryGeneral Category = "GENERAL"
	// CategoryError marks a message for which no model produced an answer.
	CategoryError Category = "ERROR"
)

// PromptCategories is the closed set the model must choose from.
var PromptCategories = []Category{CategoryReturn, CategoryShipping, CategoryQuestion, CategoryOther}

func (c Category) String() string {
	return string(c)
}
