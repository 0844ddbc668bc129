// Package color styles CLI output.
package color

import (
	"github.com/fatih/color"
)

var (
	promptColor  = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed, color.Bold)
	replyColor   = color.New(color.FgHiYellow, color.Bold)
	sourcesColor = color.New(color.FgHiBlack)
)

func Prompt(s string) string {
	return promptColor.Sprint(s)
}

func Info(s string) string {
	return infoColor.Sprint(s)
}

func Error(s string) string {
	return errorColor.Sprint(s)
}

func Reply(s string) string {
	return replyColor.Sprint(s)
}

// Sources dims the cited snippet trailer.
func Sources(s string) string {
	return sourcesColor.Sprint(s)
}

// Disable turns colouring off, e.g. when stdout is not a terminal.
func Disable() {
	color.NoColor = true
}
