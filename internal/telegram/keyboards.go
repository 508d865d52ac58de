package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const (
	cbGenText         = "gen_text"
	cbGenImage        = "gen_image"
	cbGenAudio        = "gen_audio"
	cbWatchAd         = "watch_ad"
	cbConfirmAdPrefix = "confirm_ad:"
	cbCancelAd        = "cancel_ad"
	cbClaimBonus      = "claim_bonus"
	cbAdStats         = "ad_stats"
	cbTopUp           = "topup"
	cbTopUpPrefix     = "topup:"
	cbFreeTrial       = "free_trial"
	cbOrders          = "orders"
	cbBalance         = "balance"
	cbMenu            = "menu"
)

var topUpPresets = []string{"300", "500", "1000", "3000"}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Текст", cbGenText),
			tgbotapi.NewInlineKeyboardButtonData("🖼 Картинка", cbGenImage),
			tgbotapi.NewInlineKeyboardButtonData("🎧 Озвучка", cbGenAudio),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Смотреть рекламу", cbWatchAd),
			tgbotapi.NewInlineKeyboardButtonData("🎁 Ежедневный бонус", cbClaimBonus),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Пополнить", cbTopUp),
			tgbotapi.NewInlineKeyboardButtonData("📊 Моя реклама", cbAdStats),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Баланс", cbBalance),
			tgbotapi.NewInlineKeyboardButtonData("📦 Мои заказы", cbOrders),
		),
	)
}

func adWatchKeyboard(adID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Я посмотрел", cbConfirmAdPrefix+adID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", cbCancelAd),
		),
	)
}

func topUpKeyboard(currency string, freeTrial decimal.Decimal) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(topUpPresets)+2)
	for _, amount := range topUpPresets {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s %s", amount, currency), cbTopUpPrefix+amount),
		))
	}
	if freeTrial.IsPositive() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Попробовать бесплатно", cbFreeTrial),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backToMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ В меню", cbMenu),
		),
	)
}
