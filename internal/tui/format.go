package tui

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// UsageWarnPercent is the usage at which the quota bar turns red.
const UsageWarnPercent = 80

// indian groups digits the way prices and quotas are shown to users.
var indian = message.NewPrinter(language.MustParse("en-IN"))

// FormatCount renders n with locale digit grouping.
func FormatCount(n int64) string {
	return indian.Sprintf("%d", n)
}

// FormatINR renders a whole-rupee amount, e.g. ₹1,999.
func FormatINR(rupees int64) string {
	return "₹" + FormatCount(rupees)
}

// FormatPaise renders an amount in the smallest currency unit as rupees.
func FormatPaise(paise int64, currency string) string {
	if currency != "" && currency != "INR" {
		return indian.Sprintf("%.2f %s", float64(paise)/100, currency)
	}
	if paise%100 == 0 {
		return FormatINR(paise / 100)
	}
	return "₹" + indian.Sprintf("%.2f", float64(paise)/100)
}

// RenderUsageBar draws a width-cell bar filled to percent (clamped to 0..100).
func RenderUsageBar(percent float64, width int) string {
	if width <= 0 {
		width = 30
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := int(percent / 100 * float64(width))

	style := ProgressFilledStyle
	if percent >= UsageWarnPercent {
		style = ProgressCriticalStyle
	}
	return style.Render(strings.Repeat("█", filled)) +
		ProgressBarStyle.Render(strings.Repeat("░", width-filled))
}
