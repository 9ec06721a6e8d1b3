package tracker

import (
	"strconv"
	"strings"

	"github.com/patths/gametime-bonus/internal/config"
)

func renderBonusMessage(template string, amount int) string {
	return strings.ReplaceAll(template, config.AmountPlaceholder, strconv.Itoa(amount))
}
