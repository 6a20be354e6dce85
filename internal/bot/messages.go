package bot

import (
	"fmt"
	"strings"

	"github.com/zewedjobs/zewed-jobs-go/internal/tgutil"
)

const (
	aboutText = "🏢 <b>About Zewed Jobs</b>\n\n" +
		"Zewed Jobs connects talented professionals in Ethiopia with employers.\n\n" +
		"<b>Features:</b>\n" +
		"✅ Job listings by category\n" +
		"✅ Direct employer connection\n" +
		"✅ Apply and track applications in Telegram\n\n" +
		"📧 info@zewedjobs.com\n" +
		"🌐 www.zewedjobs.com"

	rateLimitedText    = "⏳ Too many requests, please slow down a little."
	unknownCommandText = "❓ Unknown command. Send /help to see what I can do."
	expiredButtonText  = "This button has expired."
	invalidButtonText  = "Invalid action."
)

func welcomeText(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("🌟 <b>Welcome to Zewed Jobs, %s!</b> 🌟\n\n"+
		"Find your next job or post openings on Ethiopia's job board.\n\n"+
		"📊 <b>What you can do:</b>\n"+
		"• 🔍 Browse jobs by category\n"+
		"• 🎯 Search for specific jobs\n"+
		"• 💼 Post job listings (employers)\n"+
		"• 📝 Apply directly through Telegram\n"+
		"• 📊 Track your applications\n\n"+
		"👇 Choose an option below to get started:", tgutil.Escape(name))
}

const menuText = "🏠 <b>Main Menu</b>\n\nWhat would you like to do?"

func helpText(commands []Command) string {
	var b strings.Builder
	b.WriteString("📚 <b>Zewed Jobs Help</b>\n\n")
	b.WriteString("/start - Main menu\n/help - This message\n/about - About Zewed Jobs\n")
	for _, c := range commands {
		fmt.Fprintf(&b, "%s - %s\n", tgutil.Escape(c.Usage()), tgutil.Escape(c.Description))
	}
	b.WriteString("\nFields in /apply, /post and /profile are separated with |")
	return b.String()
}

const plainTextHint = "💡 I understand commands. Try /jobs to browse, " +
	"/search &lt;keyword&gt; to search, or /help for everything else."
