package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// UI texts in English
const (
	helpText = "ℹ️ Commands:\n" +
		"• /set_reminder DD.MM.YYYY HH:MM text - one-shot reminder at your local time\n" +
		"• /set_timezone Region/City - change your timezone\n" +
		"• /status - your timezone and pending reminders\n" +
		"• /start - register and show the greeting"
	unknownCommandText    = "Unknown command. Send /help to see what I can do."
	invalidTimeFormatText = "Could not read the date or time. Use DD.MM.YYYY HH:MM, e.g. 15.10.2024 18:30."
	unknownTZText         = "Invalid timezone. Example: Europe/Moscow"
	pastDueText           = "That moment has already passed. Pick a time in the future."
	internalErrorText     = "Something went wrong. Please try again later."
	tzPromptText          = "Choose a timezone or enter your own (Region/City):"
	tzCustomText          = "Enter timezone (e.g., Europe/Moscow):"
	privateOnlyText       = "I only work in private chats. Message me directly to set reminders."
)

// usageTexts answer a command called with missing or malformed arguments.
var usageTexts = map[string]string{
	"set_reminder": "Usage: /set_reminder DD.MM.YYYY HH:MM text\nExample: /set_reminder 15.10.2024 18:30 buy milk",
	"set_timezone": "Usage: /set_timezone Region/City\nExample: /set_timezone Europe/Moscow",
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/status"),
			tgbotapi.NewKeyboardButton("/set_timezone"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/help"),
		),
	)
}

func tzPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Europe/Moscow", "tz:Europe/Moscow"),
			tgbotapi.NewInlineKeyboardButtonData("Europe/London", "tz:Europe/London"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("America/New_York", "tz:America/New_York"),
			tgbotapi.NewInlineKeyboardButtonData("Asia/Tokyo", "tz:Asia/Tokyo"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("UTC", "tz:UTC"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "tz:custom"),
		),
	)
}
