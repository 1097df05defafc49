package telegram

import (
	"github.com/Jacobbrewer1/triage/pkg/chat"
	"github.com/Jacobbrewer1/triage/pkg/entities"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// eventFromUpdate converts an update the bot can act on. Updates without a sender are dropped.
func eventFromUpdate(u tgbotapi.Update) (*chat.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		if q.From == nil || q.Message == nil || q.Message.Chat == nil {
			return nil, false
		}
		return &chat.Event{
			ChatID: q.Message.Chat.ID,
			From:   userFrom(q.From),
			Action: q.Data,
		}, true

	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil || m.Text == "" {
			return nil, false
		}
		ev := &chat.Event{
			ChatID: m.Chat.ID,
			From:   userFrom(m.From),
			Text:   m.Text,
		}
		if m.IsCommand() {
			ev.Command = m.Command()
		}
		return ev, true

	default:
		return nil, false
	}
}

func userFrom(u *tgbotapi.User) entities.User {
	return entities.User{
		ID:        u.ID,
		Handle:    u.UserName,
		FirstName: u.FirstName,
	}
}

// messageFromReply renders a reply. Inline actions take the place of a menu when both are set.
func messageFromReply(chatID int64, r chat.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, r.Text)

	switch {
	case len(r.Actions) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(r.Actions))
		for _, row := range r.Actions {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)

	case len(r.Menu) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(r.Menu))
		for _, row := range r.Menu {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.OneTimeKeyboard = true
		kb.ResizeKeyboard = true
		msg.ReplyMarkup = kb

	case r.RemoveMenu:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	return msg
}
