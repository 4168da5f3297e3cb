package telegram

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton opens a URL or sends callback data.
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// KeyboardBuilder builds an inline keyboard row by row.
//
//	kb := telegram.NewKeyboard().
//		URL("Agendar demo", calendly).
//		Row().
//		Text("Menú", "main_menu").
//		Build()
type KeyboardBuilder struct {
	rows [][]InlineKeyboardButton
}

// NewKeyboard starts an empty keyboard.
func NewKeyboard() *KeyboardBuilder {
	return &KeyboardBuilder{rows: [][]InlineKeyboardButton{{}}}
}

// Text appends a callback button to the current row.
func (b *KeyboardBuilder) Text(text, data string) *KeyboardBuilder {
	return b.add(InlineKeyboardButton{Text: text, CallbackData: data})
}

// URL appends a link button to the current row.
func (b *KeyboardBuilder) URL(text, url string) *KeyboardBuilder {
	return b.add(InlineKeyboardButton{Text: text, URL: url})
}

// Row starts a new row.
func (b *KeyboardBuilder) Row() *KeyboardBuilder {
	if len(b.rows[len(b.rows)-1]) > 0 {
		b.rows = append(b.rows, []InlineKeyboardButton{})
	}
	return b
}

func (b *KeyboardBuilder) add(btn InlineKeyboardButton) *KeyboardBuilder {
	last := len(b.rows) - 1
	b.rows[last] = append(b.rows[last], btn)
	return b
}

// Build returns the markup, dropping a trailing empty row.
func (b *KeyboardBuilder) Build() *InlineKeyboardMarkup {
	rows := b.rows
	if len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	out := make([][]InlineKeyboardButton, len(rows))
	copy(out, rows)
	return &InlineKeyboardMarkup{InlineKeyboard: out}
}
