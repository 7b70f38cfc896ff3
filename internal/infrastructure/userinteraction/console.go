package userinteraction

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"aura-runtime/internal/application/port/output"
	"aura-runtime/internal/domain/entity"

	"github.com/fatih/color"
)

var _ output.NotifierPort = (*ConsoleNotifier)(nil)

const defaultAnswerTimeout = 30 * time.Second

type ConsoleNotifier struct {
	in            io.Reader
	out           io.Writer
	answerTimeout time.Duration

	once  sync.Once
	lines chan string
}

func NewConsoleNotifier() *ConsoleNotifier {
	return NewConsoleNotifierWith(os.Stdin, color.Output, defaultAnswerTimeout)
}

func NewConsoleNotifierWith(in io.Reader, out io.Writer, answerTimeout time.Duration) *ConsoleNotifier {
	if answerTimeout <= 0 {
		answerTimeout = defaultAnswerTimeout
	}
	return &ConsoleNotifier{in: in, out: out, answerTimeout: answerTimeout}
}

// readLines feeds input lines to u.lines. The reader goroutine lives until
// input ends; a blocked terminal read cannot be interrupted.
func (u *ConsoleNotifier) readLines() <-chan string {
	u.once.Do(func() {
		u.lines = make(chan string)
		go func() {
			defer close(u.lines)
			sc := bufio.NewScanner(u.in)
			for sc.Scan() {
				u.lines <- sc.Text()
			}
		}()
	})
	return u.lines
}

func (u *ConsoleNotifier) OfferHelp(ctx context.Context, sig entity.StruggleSignal) bool {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintf(u.out, "\n🤔 Похоже, со страницей непросто (%s).\n", struggleText(sig.Kind))
	fmt.Fprint(u.out, "Адаптировать страницу? [y/N] > ")

	timer := time.NewTimer(u.answerTimeout)
	defer timer.Stop()

	select {
	case line, ok := <-u.readLines():
		if !ok {
			return false
		}
		return affirmative(line)
	case <-timer.C:
		dim := color.New(color.Faint)
		dim.Fprintln(u.out, "\n(нет ответа, пропускаем)")
		return false
	case <-ctx.Done():
		return false
	}
}

func (u *ConsoleNotifier) ShowDecision(ctx context.Context, d entity.Decision) {
	switch d.Action {
	case entity.ActionAdapt, entity.ActionApplyUI:
		cmd, ok := d.Command()
		if !ok {
			return
		}
		cyan := color.New(color.FgCyan, color.Bold)
		cyan.Fprintln(u.out, "\n🎨 Адаптация страницы")
		if summary := formatCommand(cmd); summary != "" {
			dim := color.New(color.Faint)
			dim.Fprintf(u.out, "   %s\n", summary)
		}
		if cmd.Explanation != "" {
			fmt.Fprintf(u.out, "   %s\n", truncate(cmd.Explanation, 300))
		}

	case entity.ActionCallUITool:
		icon, name := toolDisplay(d.Tool)
		yellow := color.New(color.FgYellow, color.Bold)
		yellow.Fprintf(u.out, "\n%s %s\n", icon, name)
		if len(d.Params) > 0 {
			dim := color.New(color.Faint)
			dim.Fprintf(u.out, "   %s\n", truncate(string(d.Params), 120))
		}

	default:
		if d.Message == "" {
			return
		}
		green := color.New(color.FgGreen)
		green.Fprintf(u.out, "\n✓ %s\n", truncate(d.Message, 300))
		return
	}

	if d.Message != "" {
		fmt.Fprintf(u.out, "   %s\n", truncate(d.Message, 300))
	}
}

func (u *ConsoleNotifier) ShowError(ctx context.Context, err error) {
	red := color.New(color.FgRed)
	red.Fprint(u.out, "\n❌ Ошибка: ")

	dim := color.New(color.Faint)
	dim.Fprintln(u.out, truncate(err.Error(), 300))
}

func struggleText(kind entity.StruggleKind) string {
	switch kind {
	case entity.StruggleRepetitiveClicks:
		return "повторные клики"
	case entity.StruggleScrollLoop:
		return "прокрутка туда-обратно"
	}
	return string(kind)
}

func toolDisplay(tool string) (string, string) {
	displays := map[string][2]string{
		"SetTheme":         {"🌓", "Смена темы"},
		"IncreaseFontSize": {"🔠", "Размер шрифта"},
	}
	if display, ok := displays[tool]; ok {
		return display[0], display[1]
	}
	return "🔧", tool
}

func formatCommand(cmd entity.AdaptationCommand) string {
	var parts []string
	if n := len(cmd.HideElements); n > 0 {
		parts = append(parts, fmt.Sprintf("скрыто: %d", n))
	}
	if n := len(cmd.HighlightElements); n > 0 {
		parts = append(parts, fmt.Sprintf("подсвечено: %d", n))
	}
	if mode, err := cmd.Layout(); err == nil && mode != entity.LayoutNone {
		parts = append(parts, "режим: "+mode.String())
	}
	if cmd.ApplyBionic {
		parts = append(parts, "bionic")
	}
	if cmd.Theme != nil {
		parts = append(parts, "тема: "+*cmd.Theme)
	}
	return strings.Join(parts, " | ")
}

func affirmative(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "д", "да":
		return true
	}
	return false
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
