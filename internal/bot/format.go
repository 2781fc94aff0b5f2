package bot

import (
	"fmt"
	"html"
	"strings"

	"wb-order-monitor/internal/models"
)

const (
	noOfficePlaceholder = "not specified"
	noSupplyPlaceholder = "N/A"
)

// FormatOrder renders one order as a Telegram HTML message. Pure; remote
// strings are escaped so a malicious article or comment cannot break markup.
func FormatOrder(order models.Order) string {
	offices := noOfficePlaceholder
	if len(order.Offices) > 0 {
		escaped := make([]string, len(order.Offices))
		for i, office := range order.Offices {
			escaped[i] = html.EscapeString(office)
		}
		offices = strings.Join(escaped, ", ")
	}

	supplyID := order.SupplyID
	if supplyID == "" {
		supplyID = noSupplyPlaceholder
	}

	var b strings.Builder
	b.WriteString("🆕 <b>New order!</b>\n\n")
	fmt.Fprintf(&b, "🆔 ID: <code>%d</code>\n", order.ID)
	fmt.Fprintf(&b, "📦 Article: <b>%s</b>\n", html.EscapeString(order.Article))
	fmt.Fprintf(&b, "💰 Price: <b>%.2f ₽</b>\n", float64(order.ConvertedPrice)/100)
	fmt.Fprintf(&b, "📅 Created: %s\n", order.CreatedAt.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "🏢 Warehouse: %s\n", offices)
	fmt.Fprintf(&b, "📋 Supply ID: <code>%s</code>\n", html.EscapeString(supplyID))
	if order.Comment != "" {
		fmt.Fprintf(&b, "💬 Comment: %s\n", html.EscapeString(order.Comment))
	}
	return b.String()
}
