package models

// IncomingMessage is a text message received from a chat user.
type IncomingMessage struct {
	UserID int64  // Telegram user id, the session key
	ChatID int64  // chat the reply goes to
	Text   string // raw message text
}

// Reply is an outgoing chat message with an optional reply keyboard.
type Reply struct {
	Text           string
	Keyboard       [][]string // rows of button labels; nil keeps the current keyboard
	RemoveKeyboard bool       // hide the reply keyboard
}
