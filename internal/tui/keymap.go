package tui

// Key binding constants used in handleKey.
const (
	KeyQuit       = "q"
	KeyQuitUpper  = "Q"
	KeyCtrlC      = "ctrl+c"
	KeySpace      = " "
	KeyRegenerate = "r"
	KeyReplay     = "p"
	KeyBack       = "b"
	KeyEsc        = "esc"
	KeyEnter      = "enter"
	KeyRight      = "right"
	KeyLeft       = "left"
	KeyL          = "l"
	KeyH          = "h"
	KeySkip       = "s"
)
