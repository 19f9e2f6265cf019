package command

import (
	"fmt"
	"strings"
)

// ResponseFormatter renders command replies as the Markdown subset the chat
// channels understand.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Info(title string) string {
	return fmt.Sprintf("**%s**\n", title)
}

func (f *ResponseFormatter) Success(message string) string {
	return fmt.Sprintf("✅ %s\n", message)
}

func (f *ResponseFormatter) Error(command string, err error) string {
	return fmt.Sprintf("❌ /%s failed: %s\n", command, err)
}

func (f *ResponseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s: `%s`\n", label, value)
}

func (f *ResponseFormatter) List(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("• ")
		sb.WriteString(item)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	return strings.Join(sections, "\n")
}
