package game

import "errors"

// ValidationError marks input the caller can fix: an empty nickname,
// an empty response, joining a room whose game already started.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

var (
	ErrNicknameRequired = validationError("nickname is required")
	ErrResponseRequired = validationError("response is required")
	ErrInvalidType      = validationError("type must be truth or dare")
	ErrRoomActive       = validationError("game already started")

	ErrNoPromptsAvailable = errors.New("no prompts available")
	ErrNotHost            = errors.New("only the host can start the game")
	ErrNotEnoughPlayers   = errors.New("at least two players are required")
	ErrGameStarted        = errors.New("game already started")
	ErrGameNotStarted     = errors.New("game not started")
	ErrNotCurrentPlayer   = errors.New("not the current player")
	ErrNoPromptThisTurn   = errors.New("no prompt chosen this turn")
	ErrAlreadyResponded   = errors.New("already responded this turn")
)
