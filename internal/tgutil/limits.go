package tgutil

// Telegram Bot API limits.
// References: https://core.telegram.org/bots/api#sendmessage
const (
	MaxMessageLength      = 4096 // Text message length after entity parsing
	MaxCallbackDataLength = 64   // Inline button callback_data, in bytes
	MaxButtonTextLength   = 64   // Practical cap for inline button labels
)

// Application-defined limits that leave headroom under the API limits.
const (
	// TextListSafeBuffer is the budget for list bodies so headers and footers still fit.
	TextListSafeBuffer = 3900

	// MaxDescriptionRunes and MaxRequirementsRunes cap the free text on a
	// job card. FormatJobCard shrinks both further if the card is still too long.
	MaxDescriptionRunes  = 2000
	MaxRequirementsRunes = 1200

	// MaxJobCardLength leaves room for the apply hint appended under a card.
	MaxJobCardLength = MaxMessageLength - 96

	// MaxCardFieldRunes caps one-line job card fields such as company and salary.
	MaxCardFieldRunes = 120

	// ButtonLabelLimit is used for job titles inside inline buttons.
	ButtonLabelLimit = 32

	// CategoriesPerRow is the number of category buttons per keyboard row.
	CategoriesPerRow = 2
)
