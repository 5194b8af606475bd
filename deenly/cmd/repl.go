package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"deenly/deenly/services/chat"
	"deenly/deenly/services/threads"
	"deenly/deenly/utils/color"
)

// repl is the line-oriented chat loop. Threads are addressed by their
// position in the last /threads listing, or by id.
type repl struct {
	session *chat.Session
	in      *bufio.Scanner
	out     io.Writer
	listed  []threads.Thread
}

func newREPL(session *chat.Session, in io.Reader, out io.Writer) *repl {
	return &repl{session: session, in: bufio.NewScanner(in), out: out}
}

func (r *repl) Run(ctx context.Context) {
	for {
		fmt.Fprint(r.out, color.ColorPrompt("deenly> "))
		if !r.in.Scan() {
			break // EOF or error
		}
		line := strings.TrimSpace(r.in.Text())
		if line == "exit" || line == "quit" {
			fmt.Fprintln(r.out, "Ma'a as-salama!")
			return
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			r.command(ctx, line)
			continue
		}
		r.ask(ctx, line)
	}
}

func (r *repl) ask(ctx context.Context, text string) {
	res, err := r.session.HandleSend(ctx, text)
	if err != nil {
		fmt.Fprintln(r.out, color.ColorError(err.Error()))
		return
	}
	if res.Failed {
		fmt.Fprintln(r.out, color.ColorWarning(res.AssistantMessage.Content))
		return
	}
	fmt.Fprintln(r.out, color.ColorAssistant(res.AssistantMessage.Content))
}

func (r *repl) command(ctx context.Context, line string) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/threads":
		r.listThreads(arg)
	case "/open":
		id, ok := r.threadID(arg)
		if !ok {
			return
		}
		for _, m := range r.session.Messages(id) {
			r.printMessage(m)
		}
	case "/star", "/delete":
		id, ok := r.threadID(arg)
		if !ok {
			return
		}
		m := chat.MutationToggleStar
		if cmd == "/delete" {
			m = chat.MutationDelete
		}
		upd, err := r.session.ApplyToThread(ctx, id, m)
		if err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		switch {
		case upd.Deleted:
			fmt.Fprintln(r.out, color.ColorInfo(fmt.Sprintf("Deleted %d messages.", len(upd.MessageIDs))))
			r.listed = nil
		case upd.Starred:
			fmt.Fprintln(r.out, color.ColorInfo("Starred."))
		default:
			fmt.Fprintln(r.out, color.ColorInfo("Unstarred."))
		}
	case "/memory":
		if _, err := r.session.AddMemory(ctx, arg); err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		fmt.Fprintln(r.out, color.ColorInfo("Noted."))
	case "/clear":
		if err := r.session.ClearAll(ctx); err != nil {
			fmt.Fprintln(r.out, color.ColorError(err.Error()))
			return
		}
		r.listed = nil
		fmt.Fprintln(r.out, color.ColorInfo("History cleared."))
	default:
		fmt.Fprintln(r.out, color.ColorWarning("unknown command "+cmd))
	}
}

func (r *repl) listThreads(query string) {
	r.listed = r.session.Threads(query)
	if len(r.listed) == 0 {
		fmt.Fprintln(r.out, color.ColorDim("(no conversations)"))
		return
	}
	for i, t := range r.listed {
		star := " "
		if t.Starred {
			star = color.ColorStar("*")
		}
		fmt.Fprintf(r.out, "%2d %s %s %s\n", i+1, star, t.Title,
			color.ColorDim(fmt.Sprintf("(%s, %d messages)", t.StartTimestamp.Format("2006-01-02 15:04"), t.MessageCount)))
	}
}

func (r *repl) threadID(arg string) (string, bool) {
	if arg == "" {
		fmt.Fprintln(r.out, color.ColorWarning("which thread? run /threads first"))
		return "", false
	}
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(r.listed) {
			fmt.Fprintln(r.out, color.ColorWarning("no thread "+arg))
			return "", false
		}
		return r.listed[n-1].ID, true
	}
	return arg, true
}

func (r *repl) printMessage(m threads.Message) {
	ts := color.ColorDim(m.Timestamp.Format("15:04"))
	if m.Role == threads.RoleUser {
		fmt.Fprintf(r.out, "%s %s %s\n", ts, color.ColorPrompt("tú:"), m.Content)
		return
	}
	fmt.Fprintf(r.out, "%s %s %s\n", ts, color.ColorAssistant("deenly:"), m.Content)
}
