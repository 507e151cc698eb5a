package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yurifrl/qfxsync/pkg/models"
)

// Choice is the action picked from the main menu.
type Choice int

const (
	FilterByDate Choice = iota + 1
	ImportAll
	ChangeCredential
	ReconfigureAccounts
	Reset
	Exit
)

var menuOptions = []struct {
	choice  Choice
	keyword string
	label   string
}{
	{FilterByDate, "date", "Import transactions after specific date (YYYY-MM-DD)"},
	{ImportAll, "all", "Import all transactions"},
	{ChangeCredential, "api_key", "Change API key only"},
	{ReconfigureAccounts, "config", "Reconfigure accounts"},
	{Reset, "reset", "Reset all configuration"},
	{Exit, "exit", "Quit the program"},
}

func (c Choice) String() string {
	for _, o := range menuOptions {
		if o.choice == c {
			return o.keyword
		}
	}
	return fmt.Sprintf("choice(%d)", int(c))
}

// ParseChoice accepts a menu number or keyword.
func ParseChoice(input string) (Choice, bool) {
	input = strings.ToLower(strings.TrimSpace(input))
	for i, o := range menuOptions {
		if input == o.keyword || input == fmt.Sprint(i+1) {
			return o.choice, true
		}
	}
	return 0, false
}

// Menu shows the main options until a valid one is picked. For FilterByDate
// the returned time is the inclusive start date.
func (p *Prompter) Menu(ctx context.Context) (Choice, time.Time, error) {
	for {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, optionStyle.Render("Options:"))
		for i, o := range menuOptions {
			fmt.Fprintf(p.w, "%s. %s\n", optionStyle.Render(fmt.Sprint(i+1)), o.label)
		}

		answer, err := p.Ask(ctx, fmt.Sprintf("\nEnter option (1-%d): ", len(menuOptions)))
		if err != nil {
			return 0, time.Time{}, err
		}
		choice, ok := ParseChoice(answer)
		if !ok {
			p.Error("Invalid option. Please select a number from the menu")
			continue
		}
		if choice != FilterByDate {
			return choice, time.Time{}, nil
		}

		raw, err := p.Ask(ctx, "Enter date (YYYY-MM-DD): ")
		if err != nil {
			return 0, time.Time{}, err
		}
		start, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			p.Error("Invalid date format. Use YYYY-MM-DD")
			continue
		}
		return choice, start, nil
	}
}
