package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
)

var (
	good    = color.New(color.FgGreen, color.Bold)
	waiting = color.New(color.FgYellow)
	bad     = color.New(color.FgRed)
	muted   = color.New(color.FgHiBlack)
)

// colorStatus highlights a transaction, transfer or account status.
func colorStatus(status string) string {
	switch strings.ToLower(status) {
	case "success", "completed", "active":
		return good.Sprint(status)
	case "pending", "processing":
		return waiting.Sprint(status)
	case "failed", "inactive", "deactivated":
		return bad.Sprint(status)
	case "cancelled", "reversed":
		return muted.Sprint(status)
	default:
		return status
	}
}

func money(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
}

func table(w io.Writer, title string, rows pterm.TableData) error {
	fmt.Fprint(w, pterm.DefaultSection.Sprintln(title))
	if len(rows) <= 1 {
		fmt.Fprint(w, pterm.Info.Sprintln("Nothing to show"))
		return nil
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, pterm.Success.Sprintfln(format, args...))
}

func warning(w io.Writer, format string, args ...any) {
	fmt.Fprint(w, pterm.Warning.Sprintfln(format, args...))
}
