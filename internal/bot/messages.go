package bot

// Replies are sent with ModeHTML; anything user-controlled goes through escape first.
const (
	msgStart = "👋 Hi, %s! Bot is alive 🚀\n" +
		"Send /help to see what I can do."

	msgHelp = "ℹ️ <b>Commands</b>\n" +
		"• /start — say hello\n" +
		"• /help — this list\n" +
		"• /status — check that the bot is up\n" +
		"• /about — what this bot is\n" +
		"• /quote — a random quote"

	msgAdminHelp = "\n\n🛠 <b>Admin</b>\n" +
		"• /broadcast &lt;text&gt; — message every user\n" +
		"• /stats — total users\n" +
		"• /active — active users (24h / 7d / 30d)\n" +
		"• /growth — new users (24h / 7d / 30d)"

	msgStatus = "✅ Telepilot is running.\n" +
		"Uptime: %s\n" +
		"Known users: %d"

	msgAbout = "🤖 <b>Telepilot</b>\n" +
		"A small Telegram assistant: quotes on demand, and broadcasts and usage stats for its admin."

	msgQuote       = "💬 <i>%s</i>\n— %s"
	msgQuoteFailed = "⚠️ Could not fetch a quote right now. Please try again later."

	msgBroadcastUsage  = "Usage: /broadcast &lt;message&gt;"
	msgBroadcastFailed = "⚠️ Broadcast failed: could not load the user list."
	msgBroadcastDone   = "📢 Broadcast sent to %d of %d users."

	msgStats  = "📊 <b>Total users:</b> %d"
	msgActive = "🔥 <b>Active users</b>\n" +
		"• last 24h: %d\n" +
		"• last 7d: %d\n" +
		"• last 30d: %d"
	msgGrowth = "📈 <b>New users</b>\n" +
		"• last 24h: %d\n" +
		"• last 7d: %d\n" +
		"• last 30d: %d"
	msgDigestHeader = "🗓 <b>Daily digest</b> %s"

	msgAck          = "👍 Got your message. Send /help to see what I can do."
	msgRateLimited  = "⏳ You're sending messages too fast. Please wait a few seconds."
	msgUnauthorized = "⛔ This command is available to the admin only."
	msgFailure      = "⚠️ Something went wrong. Please try again later."
)
