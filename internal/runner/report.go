package runner

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"goblin/internal/notify"
)

const (
	// MaxFieldLength caps each captured stream inside a report.
	MaxFieldLength = 500

	fieldTruncated   = "\n... (truncated)"
	messageTruncated = "..."

	// StreamedPlaceholder stands in for stdout when output went to the terminal.
	StreamedPlaceholder = "Output was streamed to terminal."
	// OmittedPlaceholder stands in for stdout when output was captured but not requested.
	OmittedPlaceholder = "No output specified."
)

// ExecutionReport summarizes one finished subprocess.
type ExecutionReport struct {
	Command          string
	ExitCode         int
	Duration         time.Duration
	CPUPercent       float64
	MemoryMB         float64
	ResourcesSampled bool
	Stdout           string
	Stderr           string
}

// Succeeded reports whether the child exited with status 0.
func (r ExecutionReport) Succeeded() bool {
	return r.ExitCode == 0
}

// Format renders the report as Discord markdown, bounded to notify.MaxContentLength code points.
func (r ExecutionReport) Format() string {
	var b strings.Builder

	if r.Succeeded() {
		b.WriteString("✅ **Command SUCCESS**\n\n")
	} else {
		b.WriteString("❌ **Command FAILED**\n\n")
	}

	fmt.Fprintf(&b, "**Command:** `%s`\n", r.Command)
	fmt.Fprintf(&b, "**Exit Code:** %d\n", r.ExitCode)
	fmt.Fprintf(&b, "**Duration:** %.2fs\n", r.Duration.Seconds())
	if r.ResourcesSampled {
		fmt.Fprintf(&b, "**CPU:** %.1f%%\n", r.CPUPercent)
		fmt.Fprintf(&b, "**Memory:** %.1fMB\n", r.MemoryMB)
	} else {
		b.WriteString("**CPU:** n/a\n")
		b.WriteString("**Memory:** n/a\n")
	}

	writeBlock(&b, "Output", r.Stdout)
	writeBlock(&b, "Errors", r.Stderr)

	return notify.Truncate(b.String(), notify.MaxContentLength, messageTruncated)
}

// Message wraps the formatted report in a notify.Message.
func (r ExecutionReport) Message(username string) notify.Message {
	return notify.Message{Content: r.Format(), Username: username}
}

func writeBlock(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	if utf8.RuneCountInString(body) > MaxFieldLength {
		body = string([]rune(body)[:MaxFieldLength]) + fieldTruncated
	}
	fmt.Fprintf(b, "\n**%s:**\n```\n%s\n```", title, body)
}

// StartMessage is the optional notification sent before launch.
func StartMessage(command, username string) notify.Message {
	return notify.Message{
		Content:  notify.Truncate(fmt.Sprintf("🚀 **Command Started**\n`%s`", command), notify.MaxContentLength, messageTruncated),
		Username: username,
	}
}
