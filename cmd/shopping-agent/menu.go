package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// menu drives the interactive tracking loop. Tracking sessions keep running
// between prompts; exiting stops every active session before returning.
type menu struct {
	app     *app
	scanner *bufio.Scanner
	out     io.Writer
	eof     bool
}

func runMenu(a *app, in io.Reader, out io.Writer) {
	m := &menu{app: a, scanner: bufio.NewScanner(in), out: out}

	divider := strings.Repeat("=", 60)
	fmt.Fprintf(out, "\n%s\n", divider)
	fmt.Fprintln(out, "🛒 PRICE TRACKING AGENT")
	fmt.Fprintln(out, "    Tracking runs in background - UI always available")
	fmt.Fprintln(out, divider)

	for {
		m.showActive()
		m.options()
		choice := m.prompt("Choice (1-7): ")
		if m.eof {
			break
		}
		if !m.dispatch(choice) {
			return
		}
		if m.eof {
			break
		}
	}

	// Input ended mid-menu; stop sessions so they complete cleanly.
	a.tracker.StopAll()
}

// prompt prints a label and reads one trimmed line. It sets eof when the
// input is exhausted.
func (m *menu) prompt(label string) string {
	fmt.Fprint(m.out, label)
	if !m.scanner.Scan() {
		m.eof = true
		return ""
	}
	return strings.TrimSpace(m.scanner.Text())
}

func (m *menu) showActive() {
	active := m.app.tracker.Active()
	if len(active) == 0 {
		return
	}
	fmt.Fprintf(m.out, "\n🟢 Active tracking: %d session(s)\n", len(active))
	for _, s := range active {
		state := "running"
		if s.Stopping {
			state = "stopping"
		}
		fmt.Fprintf(m.out, "   #%d: %s (every %dmin) [%s]\n", s.SessionID, s.ProductQuery, s.IntervalMinutes, state)
	}
}

func (m *menu) options() {
	divider := strings.Repeat("-", 40)
	fmt.Fprintf(m.out, "\n%s\n", divider)
	fmt.Fprintln(m.out, "1. Start new tracking")
	fmt.Fprintln(m.out, "2. View statistics")
	fmt.Fprintln(m.out, "3. View summary")
	fmt.Fprintln(m.out, "4. Stop tracking")
	fmt.Fprintln(m.out, "5. List all sessions")
	fmt.Fprintln(m.out, "6. Show active sessions")
	fmt.Fprintln(m.out, "7. Exit")
	fmt.Fprintln(m.out, divider)
}

// dispatch runs one menu choice. It returns false when the user exits.
func (m *menu) dispatch(choice string) bool {
	switch choice {
	case "1":
		m.startTracking()
	case "2":
		m.statistics()
	case "3":
		m.summary()
	case "4":
		m.stopTracking()
	case "5":
		m.listSessions()
	case "6":
		if len(m.app.tracker.Active()) == 0 {
			fmt.Fprintln(m.out, "\nNo active tracking sessions.")
		} else {
			m.showActive()
		}
	case "7":
		if len(m.app.tracker.Active()) > 0 {
			fmt.Fprintln(m.out, "\n⏹️ Stopping all active tracking sessions...")
			m.app.tracker.StopAll()
		}
		fmt.Fprintln(m.out, "\n👋 Goodbye!")
		return false
	default:
		fmt.Fprintln(m.out, "❌ Invalid choice")
	}
	return true
}

func (m *menu) startTracking() {
	product := m.prompt("Product to track (default: PlayStation 5): ")
	if m.eof {
		return
	}
	if product == "" {
		product = "PlayStation 5"
	}

	interval := m.app.cfg.Tracker.DefaultIntervalMinutes
	raw := m.prompt(fmt.Sprintf("Interval in minutes (default: %d): ", interval))
	if m.eof {
		return
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(m.out, "❌ Invalid number")
			return
		}
		interval = n
	}

	var durationHours *int
	raw = m.prompt("Duration in hours (empty = indefinite): ")
	if m.eof {
		return
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fmt.Fprintln(m.out, "❌ Invalid number")
			return
		}
		durationHours = &n
	}

	sessionID, err := m.app.tracker.Start(product, interval, durationHours)
	if err != nil {
		fmt.Fprintf(m.out, "❌ %v\n", err)
		return
	}

	duration := "indefinite"
	if durationHours != nil {
		duration = strconv.Itoa(*durationHours)
	}
	fmt.Fprintf(m.out, "\n✅ Started tracking session #%d\n", sessionID)
	fmt.Fprintf(m.out, "   Product: %s\n", product)
	fmt.Fprintf(m.out, "   Interval: %d minutes\n", interval)
	fmt.Fprintf(m.out, "   Duration: %s hours\n", duration)
	fmt.Fprintln(m.out, "\n   Tracking runs in background - menu stays available!")
}

func (m *menu) statistics() {
	raw := m.prompt("Session ID (or 'all' for list): ")
	if m.eof || raw == "" {
		return
	}
	if strings.EqualFold(raw, "all") {
		m.listSessions()
		return
	}
	id, err := parseSessionID(raw)
	if err != nil {
		fmt.Fprintln(m.out, "❌ Invalid number")
		return
	}
	if err := showStats(m.app, m.out, id); err != nil {
		fmt.Fprintf(m.out, "❌ %v\n", err)
	}
}

func (m *menu) summary() {
	raw := m.prompt("Session ID: ")
	if m.eof || raw == "" {
		return
	}
	id, err := parseSessionID(raw)
	if err != nil {
		fmt.Fprintln(m.out, "❌ Invalid number")
		return
	}
	if err := showSummary(m.app, m.out, id); err != nil {
		fmt.Fprintf(m.out, "❌ %v\n", err)
	}
}

func (m *menu) stopTracking() {
	raw := m.prompt("Session ID to stop: ")
	if m.eof || raw == "" {
		return
	}
	id, err := parseSessionID(raw)
	if err != nil {
		fmt.Fprintln(m.out, "❌ Invalid number")
		return
	}
	if m.app.tracker.Stop(id) {
		fmt.Fprintf(m.out, "⏹️ Stopping session #%d...\n", id)
	} else {
		fmt.Fprintf(m.out, "❌ Session #%d not active\n", id)
	}
}

func (m *menu) listSessions() {
	live := make(map[int64]bool)
	for _, s := range m.app.tracker.Active() {
		live[s.SessionID] = true
	}
	if err := showSessions(m.app, m.out, live); err != nil {
		fmt.Fprintf(m.out, "❌ %v\n", err)
	}
}
