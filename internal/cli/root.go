package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

func (a *App) getStatus() string {
	if !a.isUnlocked() {
		return "(locked)"
	}
	if a.engine == nil {
		return "(local)"
	}
	return fmt.Sprintf("(%s)", a.engine.State())
}

// Root runs the interactive loop until the user exits or input ends.
func (a *App) Root(ctx context.Context) {

	fmt.Println("Journal CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	if err := a.Unlock(ctx); err != nil {
		fmt.Println("Unlock failed:", err.Error())
		return
	}

	for {
		fmt.Printf("journal %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			fmt.Println("Available commands: chat, addmsg, addnote, list, show, summary, query, setkey, export, import, sync, status, wipe, exit")

		case "chat":
			a.chat(ctx)
		case "addmsg":
			a.addMessage(ctx)
		case "addnote":
			a.addNote(ctx)
		case "list":
			a.list(ctx)
		case "show":
			a.show(ctx)
		case "summary":
			a.summary(ctx)
		case "query":
			a.query(ctx)
		case "setkey":
			a.setAPIKey(ctx)
		case "export":
			a.export(ctx)
		case "import":
			a.importFile(ctx)
		case "sync":
			a.sync(ctx)
		case "status":
			a.status(ctx)
		case "wipe":
			a.wipe(ctx)
		case "exit", "quit":
			fmt.Println("Bye!")
			return

		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

// today returns the current day id.
func today() string {
	return time.Now().Format("2006-01-02")
}

// promptDay asks for a day id, defaulting to today on empty input.
func (a *App) promptDay() (string, error) {
	day, err := GetSimpleText(a.reader, "Enter day (YYYY-MM-DD, empty for today)", os.Stdout)
	if err != nil {
		return "", err
	}
	if day == "" {
		day = today()
	}
	return day, nil
}
