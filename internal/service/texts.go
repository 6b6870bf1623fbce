package service

// Reply texts for successful commands.
const (
	startFmt = "👋 Hi, %s! I am a reminder bot.\n\n" +
		"• /set_reminder 15.10.2024 18:30 buy milk - remind you at that local time\n" +
		"• /set_timezone Europe/Moscow - change your timezone (now: %s)\n" +
		"• /status - your timezone and pending reminders"
	timezoneSetFmt  = "🌍 Timezone set: %s"
	reminderSetFmt  = "⏰ Reminder set for %s (%s): %s"
	statusHeaderFmt = "🧾 Timezone: %s\n"
	statusEmpty     = "No pending reminders."
	statusItemFmt   = "• %s: %s\n"
)
