// Package tgutil renders jobs, listings and statistics as Telegram HTML
// messages and builds the inline keyboards that go with them.
package tgutil

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zewedjobs/zewed-jobs-go/internal/config"
	"github.com/zewedjobs/zewed-jobs-go/internal/pagination"
	"github.com/zewedjobs/zewed-jobs-go/internal/storage"
)

const divider = "━━━━━━━━━━━━━━━━━━━━"

// Escape escapes text for HTML parse mode.
func Escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, s)
}

// TruncateRunes truncates text to at most maxRunes runes, ending with "..." when cut.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// label returns the display label for a catalogue key, falling back to the key itself.
func label(entry config.CatalogEntry, ok bool, key string) string {
	if !ok {
		return key
	}
	return entry.Display()
}

// FormatJobCard renders the full detail view of a job. Free text is cut
// before escaping, so the rendered card stays within MaxJobCardLength runes
// and never ends inside a tag or entity.
func FormatJobCard(job storage.Job, catalog config.Catalog, now time.Time) string {
	desc, req := MaxDescriptionRunes, MaxRequirementsRunes
	for {
		card := renderJobCard(job, catalog, now, desc, req)
		over := utf8.RuneCountInString(card) - MaxJobCardLength
		if over <= 0 || (desc == 0 && req == 0) {
			return card
		}
		// Every dropped source rune removes at least one rendered rune; the
		// extra 3 pays for the "..." marker.
		cut := over + 3
		take := min(cut, req)
		req -= take
		desc = max(desc-(cut-take), 0)
	}
}

func renderJobCard(job storage.Job, catalog config.Catalog, now time.Time, descRunes, reqRunes int) string {
	category, okCat := catalog.Category(job.Category)
	jobType, okType := catalog.JobType(job.JobType)
	field := func(s string) string { return Escape(TruncateRunes(s, MaxCardFieldRunes)) }

	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>%s</b>\n", field(job.Title))
	fmt.Fprintf(&b, "🏢 <b>Company:</b> %s\n", field(job.Company))
	fmt.Fprintf(&b, "📍 <b>Location:</b> %s\n", field(job.Location))
	fmt.Fprintf(&b, "💰 <b>Salary:</b> %s\n", field(job.Salary))
	fmt.Fprintf(&b, "📁 <b>Category:</b> %s\n", field(label(category, okCat, job.Category)))
	fmt.Fprintf(&b, "⏰ <b>Type:</b> %s\n", field(label(jobType, okType, job.JobType)))
	fmt.Fprintf(&b, "📅 <b>Posted:</b> %s\n", FormatDate(job.CreatedAt))
	if expiry := FormatExpiry(job.ExpiresAt, now); expiry != "" {
		fmt.Fprintf(&b, "⌛ <b>Status:</b> %s\n", expiry)
	}
	fmt.Fprintf(&b, "👁 %d views · 📝 %d applications\n", job.Views, job.Applications)

	if d := TruncateRunes(job.Description, descRunes); d != "" {
		fmt.Fprintf(&b, "\n📝 <b>Description:</b>\n%s\n", Escape(d))
	}
	if r := TruncateRunes(job.Requirements, reqRunes); r != "" {
		fmt.Fprintf(&b, "\n📋 <b>Requirements:</b>\n%s\n", Escape(r))
	}

	contact := make([]string, 0, 2)
	if job.ContactEmail != "" {
		contact = append(contact, field(job.ContactEmail))
	}
	if job.ContactPhone != "" {
		contact = append(contact, field(job.ContactPhone))
	}
	if len(contact) > 0 {
		fmt.Fprintf(&b, "\n📞 <b>Contact:</b> %s\n", strings.Join(contact, " | "))
	}

	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "🆔 Job ID: #%d", job.ID)
	return b.String()
}

// FormatJobList renders one page of jobs. Numbering continues across pages.
func FormatJobList(title string, jobs []storage.Job, page pagination.Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 <b>%s</b>\n", Escape(title))

	if len(jobs) == 0 {
		b.WriteString("\n❌ No jobs found.\nCheck back later or browse other categories.")
		return b.String()
	}

	fmt.Fprintf(&b, "Page %d of %d · %d jobs\n\n", page.Number, page.TotalPages, page.TotalItems)
	for i, job := range jobs {
		entry := fmt.Sprintf("%d. <b>%s</b> at %s\n   📍 %s | 💰 %s\n   👉 /view_%d\n\n",
			page.Offset()+i+1, Escape(job.Title), Escape(job.Company),
			Escape(job.Location), Escape(job.Salary), job.ID)
		if b.Len()+len(entry) > TextListSafeBuffer {
			fmt.Fprintf(&b, "... and %d more on this page.", len(jobs)-i)
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatSearchResults renders search hits for keyword.
func FormatSearchResults(keyword string, jobs []storage.Job) string {
	if len(jobs) == 0 {
		return fmt.Sprintf("❌ No jobs found for '%s'.\nTry different keywords or browse categories.", Escape(keyword))
	}
	title := fmt.Sprintf("Found %d jobs for '%s'", len(jobs), keyword)
	return FormatJobList(title, jobs, pagination.New(len(jobs), 1, len(jobs)))
}

// FormatStatistics renders the headline counts.
func FormatStatistics(s storage.Statistics) string {
	return fmt.Sprintf("📊 <b>Zewed Jobs Statistics</b>\n\n"+
		"👥 Users: %d\n"+
		"🏢 Employers: %d\n"+
		"💼 Active jobs: %d\n"+
		"📝 Applications: %d",
		s.TotalUsers, s.Employers, s.ActiveJobs, s.TotalApplications)
}

// StatusEmoji returns the badge for an application status.
func StatusEmoji(status storage.ApplicationStatus) string {
	switch status {
	case storage.StatusPending:
		return "⏳"
	case storage.StatusReviewed:
		return "👀"
	case storage.StatusAccepted:
		return "✅"
	case storage.StatusRejected:
		return "❌"
	}
	return "•"
}

// FormatApplications renders a job seeker's applications.
func FormatApplications(apps []storage.Application) string {
	var b strings.Builder
	b.WriteString("📊 <b>My Applications</b>\n\n")
	if len(apps) == 0 {
		b.WriteString("You haven't applied to any jobs yet.\nUse /jobs to browse openings.")
		return b.String()
	}
	for i, a := range apps {
		entry := fmt.Sprintf("%d. <b>%s</b> at %s\n   %s %s · applied %s\n   🆔 Job #%d\n\n",
			i+1, Escape(a.JobTitle), Escape(a.JobCompany),
			StatusEmoji(a.Status), a.Status, FormatDate(a.AppliedAt), a.JobID)
		if b.Len()+len(entry) > TextListSafeBuffer {
			fmt.Fprintf(&b, "... and %d more.", len(apps)-i)
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatApplicants renders the applications to one job for its employer.
func FormatApplicants(job storage.Job, apps []storage.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👥 <b>Applicants for %s</b> (#%d)\n\n", Escape(job.Title), job.ID)
	if len(apps) == 0 {
		b.WriteString("No applications yet.")
		return b.String()
	}
	for i, a := range apps {
		var contact []string
		if a.Email != "" {
			contact = append(contact, Escape(a.Email))
		}
		if a.Phone != "" {
			contact = append(contact, Escape(a.Phone))
		}
		entry := fmt.Sprintf("%d. <b>%s</b> %s %s\n", i+1, Escape(a.FullName), StatusEmoji(a.Status), a.Status)
		if len(contact) > 0 {
			entry += "   📞 " + strings.Join(contact, " | ") + "\n"
		}
		if a.CoverLetter != "" {
			entry += "   💬 " + Escape(TruncateRunes(a.CoverLetter, 200)) + "\n"
		}
		entry += fmt.Sprintf("   🆔 Application #%d · %s\n\n", a.ID, FormatDate(a.AppliedAt))
		if b.Len()+len(entry) > TextListSafeBuffer {
			fmt.Fprintf(&b, "... and %d more.", len(apps)-i)
			break
		}
		b.WriteString(entry)
	}
	b.WriteString("Update with /status &lt;applicationId&gt; reviewed|accepted|rejected")
	return b.String()
}

// FormatEmployerJobs renders the jobs an employer posted, including closed ones.
func FormatEmployerJobs(jobs []storage.Job) string {
	var b strings.Builder
	b.WriteString("💼 <b>My Job Posts</b>\n\n")
	if len(jobs) == 0 {
		b.WriteString("You haven't posted any jobs yet. Use /post to create one.")
		return b.String()
	}
	for _, j := range jobs {
		state := "🟢 active"
		if !j.IsActive {
			state = "⚪ closed"
		}
		entry := fmt.Sprintf("#%d <b>%s</b> (%s)\n   👁 %d · 📝 %d applications\n\n",
			j.ID, Escape(j.Title), state, j.Views, j.Applications)
		if b.Len()+len(entry) > TextListSafeBuffer {
			b.WriteString("...")
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatProfile renders a user's profile.
func FormatProfile(u storage.User) string {
	orDash := func(s string) string {
		if s == "" {
			return "-"
		}
		return Escape(s)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>%s</b>\n\n", Escape(u.DisplayName()))
	role := "Job seeker"
	if u.IsEmployer() {
		role = "Employer · " + Escape(u.Company)
	}
	fmt.Fprintf(&b, "🎭 Role: %s\n", role)
	fmt.Fprintf(&b, "📱 Phone: %s\n", orDash(u.Phone))
	fmt.Fprintf(&b, "📧 Email: %s\n", orDash(u.Email))
	fmt.Fprintf(&b, "🛠 Skills: %s\n", orDash(u.Skills))
	fmt.Fprintf(&b, "📈 Experience: %d years\n", u.ExperienceYears)
	fmt.Fprintf(&b, "📅 Member since: %s", FormatDate(u.CreatedAt))
	return b.String()
}
