package application

import (
	"fmt"
	"strings"

	"ratebot-service/internal/domain"
)

type MessageKind string

const (
	KindUpdate MessageKind = "update"
	KindAlert  MessageKind = "alert"
)

// Message is a broadcastable text in Telegram Markdown.
type Message struct {
	Kind MessageKind
	Text string
}

const (
	updateHeader  = "*Kurslar yangilandi (CBU)*\n\n"
	currentHeader = "*Hozirgi kurslar*\n\n"

	ReplySubscribed   = "Obuna bo'ldingiz!\nHar 6 soatda + o'zgarishda xabar keladi.\n/kurs – hozirgi kurs"
	ReplyUnsubscribed = "Obuna bekor qilindi"
	ReplyError        = "Xatolik"
	ReplyRefreshed    = "Kurslar yangilandi!"
	ReplyForbidden    = "Bu buyruq faqat admin uchun"
	ReplyHelp         = "/start – obuna bo'lish\n/stop – obunani bekor qilish\n/kurs – hozirgi kurslar\n/update – kurslarni yangilash"
)

func rateLines(b *strings.Builder, rates []domain.Rate) {
	for _, r := range rates {
		label, _ := domain.Label(r.Code)
		fmt.Fprintf(b, "*%s*: `%s` %s\n", label, domain.FormatAmount(r.Value), domain.BaseCurrency)
	}
}

func withRates(header string, rates []domain.Rate, date string) string {
	var b strings.Builder
	b.WriteString(header)
	rateLines(&b, rates)
	fmt.Fprintf(&b, "\nSana: %s", date)
	return b.String()
}

// UpdateMessage is broadcast to every subscriber once per cycle.
func UpdateMessage(rates []domain.Rate, date string) Message {
	return Message{Kind: KindUpdate, Text: withRates(updateHeader, rates, date)}
}

// AlertMessage announces a threshold-crossing move of one currency.
func AlertMessage(r domain.Rate) Message {
	label, _ := domain.Label(r.Code)
	text := fmt.Sprintf("*OGOHLANTIRISH*\n%s kursi o'zgardi!\nHozir: `%s` %s",
		label, domain.FormatAmount(r.Value), domain.BaseCurrency)
	return Message{Kind: KindAlert, Text: text}
}

// CurrentRatesText is the reply to an on-demand rates query.
func CurrentRatesText(rates []domain.Rate, date string) string {
	return withRates(currentHeader, rates, date)
}
