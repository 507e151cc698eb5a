// Package ui renders the interactive session: headers, status lines, menus,
// previews and prompts.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yurifrl/qfxsync/pkg/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	optionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var money = message.NewPrinter(language.English)

// Printer writes styled output for the user. Nothing here is logged.
type Printer struct {
	w io.Writer
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

func (p *Printer) Welcome(name string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, titleStyle.Render("💰 "+name))
	fmt.Fprintln(p.w, successStyle.Render(strings.Repeat("=", 30)))
	fmt.Fprintln(p.w)
}

func (p *Printer) Header(text string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, headerStyle.Render(text))
	fmt.Fprintln(p.w, accentStyle.Render(strings.Repeat("-", len([]rune(text)))))
}

func (p *Printer) Success(text string) {
	fmt.Fprintln(p.w, successStyle.Render("✓ "+text))
}

func (p *Printer) Error(text string) {
	fmt.Fprintln(p.w, errorStyle.Render("✗ "+text))
}

func (p *Printer) Progress(text string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, progressStyle.Render("⏳ "+text+"..."))
}

// User shows who the credential belongs to.
func (p *Printer) User(u *models.User) {
	name := "Unknown"
	if u != nil && u.Name != "" {
		name = u.Name
	}
	line := "Connected as: " + accentStyle.Render(name)
	if u != nil && u.BudgetName != "" {
		line += mutedStyle.Render(" (" + u.BudgetName + ")")
	}
	fmt.Fprintln(p.w, line)
	fmt.Fprintln(p.w)
}

// Assets lists the remote accounts numbered from 1.
func (p *Printer) Assets(assets []models.Asset) {
	for i, a := range assets {
		fmt.Fprintf(p.w, "%d. %s - %s\n", i+1, accentStyle.Render(a.DisplayName()), a.Kind())
	}
}

// Transactions shows every pending record grouped by target asset, in the
// order assets first appear in records.
func (p *Printer) Transactions(records []models.InsertRecord, assets []models.Asset, mapping models.AccountMapping) {
	index := models.AssetIndex(assets)
	reverse := mapping.Reverse()

	var order []models.AssetID
	groups := make(map[models.AssetID][]models.InsertRecord)
	for _, r := range records {
		if _, ok := groups[r.AssetID]; !ok {
			order = append(order, r.AssetID)
		}
		groups[r.AssetID] = append(groups[r.AssetID], r)
	}

	p.Header("Transactions to import")
	rule := strings.Repeat("-", 80)
	total := 0
	for _, id := range order {
		accountID, ok := reverse[id]
		if !ok {
			accountID = "Unknown"
		}
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, rule)
		fmt.Fprintf(p.w, "Account: %s (Account # %s)\n", accentStyle.Render(assetName(index, id)), accountID)
		fmt.Fprintln(p.w, rule)

		for _, r := range groups[id] {
			style := successStyle
			if r.Amount.IsNegative() {
				style = errorStyle
			}
			amount := fmt.Sprintf("$%10s", r.Amount.Abs().StringFixed(2))
			fmt.Fprintf(p.w, "%s | %-40s | %s\n", r.Date, r.Payee, style.Render(amount))
		}
		fmt.Fprintf(p.w, "Account transactions: %d\n", len(groups[id]))
		total += len(groups[id])
	}
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, strings.Repeat("=", 80))
	fmt.Fprintf(p.w, "Total transactions to import: %d\n", total)
}

// Balance shows the remote and file balances of one account and diff, the
// file balance minus the remote one.
func (p *Printer) Balance(name, accountID string, current, file, diff decimal.Decimal) {
	style := mutedStyle
	switch diff.Sign() {
	case -1:
		style = errorStyle
	case 1:
		style = successStyle
	}
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "Account: %s (Account # %s)\n", accentStyle.Render(name), accountID)
	fmt.Fprintf(p.w, "Current balance: %s\n", FormatMoney(current))
	fmt.Fprintf(p.w, "QFX balance: %s\n", FormatMoney(file))
	fmt.Fprintf(p.w, "Difference: %s\n", style.Render(FormatMoney(diff)))
}

// FormatMoney renders an amount with two decimals and thousands separators,
// e.g. "-$1,234.50".
func FormatMoney(d decimal.Decimal) string {
	rounded := d.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}
	units := rounded.Truncate(0)
	cents := rounded.Sub(units).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, money.Sprintf("%d", units.IntPart()), cents)
}

func assetName(index map[models.AssetID]models.Asset, id models.AssetID) string {
	if a, ok := index[id]; ok {
		return a.DisplayName()
	}
	return "Asset " + string(id)
}
