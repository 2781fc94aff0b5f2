package bot

import (
	"testing"
	"time"

	"wb-order-monitor/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrder(t *testing.T) {
	order := models.Order{
		ID:             13833711,
		Article:        "ABC-123",
		ConvertedPrice: 159900,
		CreatedAt:      time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC),
		Offices:        []string{"Koledino", "Tula"},
		SupplyID:       "WB-GI-1234567",
		Comment:        "call before delivery",
	}

	want := "🆕 <b>New order!</b>\n\n" +
		"🆔 ID: <code>13833711</code>\n" +
		"📦 Article: <b>ABC-123</b>\n" +
		"💰 Price: <b>1599.00 ₽</b>\n" +
		"📅 Created: 01.03.2024 10:30\n" +
		"🏢 Warehouse: Koledino, Tula\n" +
		"📋 Supply ID: <code>WB-GI-1234567</code>\n" +
		"💬 Comment: call before delivery\n"

	assert.Equal(t, want, FormatOrder(order))
}

func TestFormatOrderPlaceholders(t *testing.T) {
	order := models.Order{
		ID:             1,
		Article:        "X",
		ConvertedPrice: 50,
		CreatedAt:      time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
	}

	got := FormatOrder(order)
	assert.Contains(t, got, "🏢 Warehouse: not specified\n")
	assert.Contains(t, got, "📋 Supply ID: <code>N/A</code>\n")
	assert.Contains(t, got, "💰 Price: <b>0.50 ₽</b>\n")
	assert.NotContains(t, got, "💬 Comment")
}

func TestFormatOrderEscapesHTML(t *testing.T) {
	order := models.Order{
		ID:      2,
		Article: "<b>bold</b>",
		Comment: "1 < 2 & 3 > 2",
	}

	got := FormatOrder(order)
	assert.Contains(t, got, "&lt;b&gt;bold&lt;/b&gt;")
	assert.Contains(t, got, "1 &lt; 2 &amp; 3 &gt; 2")
}

func TestFormatOrderIsDeterministic(t *testing.T) {
	order := models.Order{ID: 3, Article: "A", Offices: []string{"B"}}
	assert.Equal(t, FormatOrder(order), FormatOrder(order))
}
