package dispatch

import (
	"regexp"
	"strings"

	"github.com/keepmind9/slackmech/internal/events"
)

// Matcher decides whether an inbound message addresses the bot and strips
// the addressing prefix. One pattern is compiled per configuration and
// reused for the process lifetime.
//
// Recognized forms, matched from the start of the text:
//   - <@U123>        an explicit mention of the bot's user id
//   - botname:       the configured display name followed by a colon
//   - alias:         any configured alias followed by a colon
//
// The alias alternation is placed before the generic name form so that a
// configured alias wins even when it would also match as a plain name.
type Matcher struct {
	re      *regexp.Regexp
	botID   string
	botName string
}

// NewMatcher compiles the mention pattern for a bot identity. Aliases are a
// comma-separated, case-sensitive list of literals; an empty string
// configures no aliases.
func NewMatcher(botID, botName, aliases string) *Matcher {
	aliasAlt := ""
	if aliases != "" {
		quoted := make([]string, 0, 4)
		for _, alias := range strings.Split(aliases, ",") {
			quoted = append(quoted, regexp.QuoteMeta(alias)+":")
		}
		aliasAlt = "(?P<alias>" + strings.Join(quoted, "|") + ")|"
	}
	pattern := `(?s)^(?:<@(?P<atuser>\w+)>:?|` + aliasAlt + `(?P<username>\w+):) ?(?P<text>.*)$`
	return &Matcher{
		re:      regexp.MustCompile(pattern),
		botID:   botID,
		botName: botName,
	}
}

// Match reports whether the message addresses the bot, returning the
// effective text to dispatch on.
//
// In channels and groups a match against the pattern is required, and the
// captured mention must be the bot itself; anything else is ordinary
// channel traffic and keeps its original text. In a direct conversation the
// message is always addressed, with the prefix stripped when the pattern
// happens to match.
func (m *Matcher) Match(ev *events.Message) (string, bool) {
	groups := m.groups(ev.Text)

	if !ev.IsDirect() {
		if groups == nil {
			return ev.Text, false
		}
		atuser := groups["atuser"]
		if groups["alias"] != "" {
			atuser = m.botID
		}
		if atuser != m.botID && groups["username"] != m.botName {
			// addressed at somebody else
			return ev.Text, false
		}
		return groups["text"], true
	}

	if groups != nil {
		return groups["text"], true
	}
	return ev.Text, true
}

// groups runs the pattern and maps named capture groups to their values.
// Returns nil when the text does not match.
func (m *Matcher) groups(text string) map[string]string {
	match := m.re.FindStringSubmatch(text)
	if match == nil {
		return nil
	}
	return namedGroups(m.re, match)
}

// namedGroups maps the named capture groups of a match to their values.
func namedGroups(re *regexp.Regexp, match []string) map[string]string {
	groups := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" && i < len(match) {
			groups[name] = match[i]
		}
	}
	return groups
}
