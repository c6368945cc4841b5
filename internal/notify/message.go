package notify

import (
	"fmt"
	"strings"

	"farewatch/internal/domain"
)

// PriceDropMessage renders the text sent when an alert fires.
func PriceDropMessage(a *domain.Alert, previous *float64, current float64, bookingURL string) string {
	var b strings.Builder

	b.WriteString("🎉 *Price Drop Alert!*\n\n")
	fmt.Fprintf(&b, "🛫 *%s* → *%s*\n\n", a.Origin, a.Destination)
	fmt.Fprintf(&b, "💰 *New Price:* %.2f %s\n", current, a.Currency)

	if previous != nil && *previous > current {
		savings := *previous - current
		percent := savings / *previous * 100
		fmt.Fprintf(&b, "📉 *Was:* %.2f %s\n", *previous, a.Currency)
		fmt.Fprintf(&b, "✅ *You Save:* %.2f (%.1f%%)\n", savings, percent)
	}

	if a.DepartureDate != nil {
		fmt.Fprintf(&b, "📅 *Departure:* %s\n", a.DepartureDate.Format("January 2, 2006"))
	}
	if a.ReturnDate != nil && !a.OneWay {
		fmt.Fprintf(&b, "📅 *Return:* %s\n", a.ReturnDate.Format("January 2, 2006"))
	}
	if a.LowestPriceFound != nil && *a.LowestPriceFound < current {
		fmt.Fprintf(&b, "\n🏆 *Lowest Ever:* %.2f %s\n", *a.LowestPriceFound, a.Currency)
	}

	fmt.Fprintf(&b, "\n🎯 *Your Target:* %.2f %s", a.TargetPrice, a.Currency)
	if current <= a.TargetPrice {
		b.WriteString(" ✅ *TARGET REACHED!*")
	}
	if bookingURL != "" {
		fmt.Fprintf(&b, "\n\n🎫 Book: %s", bookingURL)
	}
	return b.String()
}
