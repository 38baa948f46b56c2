package c4presenter

import (
	"strconv"
	"strings"

	"github.com/park285/Cheese-Connect4-bot/internal/msgcat"
	"github.com/park285/Cheese-Connect4-bot/internal/util"
	"github.com/park285/Cheese-Connect4-bot/pkg/c4dto"
)

const historyDateLayout = "01-02 15:04"

var (
	columnLabels = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣"}
	cellEmoji    = map[byte]string{'.': "⚪", 'X': "🔴", 'O': "🟡"}
)

// Formatter renders DTOs into KakaoTalk text using the message catalog.
type Formatter struct {
	cat    *msgcat.Catalog
	prefix string
	names  func(account string) string
}

func NewFormatter(cat *msgcat.Catalog, prefix string) *Formatter {
	if cat == nil {
		cat = msgcat.MustDefault()
	}
	return &Formatter{cat: cat, prefix: strings.TrimSpace(prefix)}
}

func (f *Formatter) Prefix() string { return f.prefix }

// WithNames returns a copy that shows accounts through names.
func (f *Formatter) WithNames(names func(account string) string) *Formatter {
	cp := *f
	cp.names = names
	return &cp
}

func (f *Formatter) name(account string) string {
	if f.names == nil || account == "" {
		return account
	}
	return f.names(account)
}

func (f *Formatter) text(key string, data map[string]any) string {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["Prefix"]; !ok {
		data["Prefix"] = f.prefix
	}
	return f.cat.Text(key, data)
}

func (f *Formatter) Help() string {
	return util.SeeMore("♟ 사목 명령어 안내", f.text("c4.help", nil))
}

func (f *Formatter) Waiting(account string, score int64) string {
	return f.text("c4.queue.waiting", map[string]any{"Account": f.name(account), "Score": score})
}

func (f *Formatter) QueueCancelled(account string) string {
	return f.text("c4.queue.cancelled", map[string]any{"Account": f.name(account)})
}

func (f *Formatter) Started(s *c4dto.SessionState) string {
	head := f.text("c4.game.started", map[string]any{"First": f.name(s.First), "Second": f.name(s.Second), "Turn": f.name(s.Turn)})
	return head + "\n\n" + TextBoard(s.Rows)
}

// Move renders the move line, the board and what comes next.
func (f *Formatter) Move(m *c4dto.MoveResult) string {
	var sb strings.Builder
	sb.WriteString(f.text("c4.game.move", map[string]any{"Account": f.name(m.Account), "Column": m.Column + 1}))
	sb.WriteString("\n\n")
	sb.WriteString(TextBoard(m.State.Rows))
	sb.WriteString("\n")
	sb.WriteString(f.footer(m.State))
	return sb.String()
}

// Status renders a running session.
func (f *Formatter) Status(s *c4dto.SessionState) string {
	if s == nil {
		return f.text("c4.game.none", nil)
	}
	return f.name(s.First) + " 🔴 vs " + f.name(s.Second) + " 🟡\n\n" + TextBoard(s.Rows) + "\n" + f.footer(s)
}

func (f *Formatter) footer(s *c4dto.SessionState) string {
	switch s.State {
	case "won":
		loser := s.First
		if s.Winner == s.First {
			loser = s.Second
		}
		return f.text("c4.game.won", map[string]any{
			"Winner": f.name(s.Winner), "Loser": f.name(loser), "Win": s.Award.Win, "Lose": s.Award.Lose,
		})
	case "draw":
		return f.text("c4.game.draw", nil)
	default:
		return f.text("c4.game.next", map[string]any{"Next": f.name(s.Turn)})
	}
}

func (f *Formatter) ChallengeSent(c *c4dto.Challenge) string {
	return f.text("c4.challenge.sent", map[string]any{
		"Challenger": f.name(c.Challenger), "Opponent": f.name(c.Opponent), "Win": c.Award.Win, "Lose": c.Award.Lose,
	})
}

func (f *Formatter) ChallengeRejected(responder, challenger string) string {
	return f.text("c4.challenge.rejected", map[string]any{"Responder": f.name(responder), "Challenger": f.name(challenger)})
}

func (f *Formatter) ChallengeCancelled(challenger string) string {
	return f.text("c4.challenge.cancelled", map[string]any{"Challenger": f.name(challenger)})
}

// Profile renders score, activity and pending challenges.
func (f *Formatter) Profile(p *c4dto.Profile) string {
	lines := []string{f.text("c4.score", map[string]any{"Account": f.name(p.Account), "Score": p.Score})}
	if o := p.Outgoing; o != nil {
		lines = append(lines, f.text("c4.challenge.outgoing", map[string]any{
			"Opponent": f.name(o.Opponent), "Win": o.Award.Win, "Lose": o.Award.Lose,
		}))
	}
	if len(p.Incoming) > 0 {
		lines = append(lines, f.text("c4.challenge.incoming_header", nil))
		for _, c := range p.Incoming {
			lines = append(lines, f.text("c4.challenge.incoming_line", map[string]any{
				"Challenger": f.name(c.Challenger), "Win": c.Award.Win, "Lose": c.Award.Lose,
			}))
		}
	}
	return strings.Join(lines, "\n")
}

func (f *Formatter) Ranking(entries []c4dto.ScoreEntry, limit int) string {
	if len(entries) == 0 {
		return f.text("c4.ranking.empty", nil)
	}
	header := f.text("c4.ranking.header", map[string]any{"Limit": limit})
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, f.text("c4.ranking.line", map[string]any{"Rank": e.Rank, "Account": f.name(e.Account), "Score": e.Score}))
	}
	return util.SeeMore(header, strings.Join(lines, "\n"))
}

func (f *Formatter) History(records []c4dto.GameRecord) string {
	if len(records) == 0 {
		return f.text("c4.history.empty", nil)
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		result := f.text("c4.history.draw", nil)
		if r.Winner != "" {
			result = f.text("c4.history.won", map[string]any{"Winner": f.name(r.Winner)})
		}
		lines = append(lines, f.text("c4.history.line", map[string]any{
			"Date":   util.FormatKST(r.EndedAt, historyDateLayout),
			"First":  f.name(r.First),
			"Second": f.name(r.Second),
			"Result": result,
			"Moves":  r.Moves,
		}))
	}
	return util.SeeMore(f.text("c4.history.header", nil), strings.Join(lines, "\n"))
}

func (f *Formatter) UnknownPlayer(name string) string {
	return f.text("c4.player.unknown", map[string]any{"Name": name})
}

func (f *Formatter) AmbiguousPlayer(name string) string {
	return f.text("c4.player.ambiguous", map[string]any{"Name": name})
}

func (f *Formatter) Usage(key, command string) string {
	return f.text("c4.usage."+key, map[string]any{"Command": command})
}

// Error turns err into a user-facing reply.
func (f *Formatter) Error(err error) string {
	d := ToDTOError(err)
	key := "c4.error." + d.Code
	if d.Code == "" || !f.cat.Has(key) {
		key = "c4.error.internal"
	}
	return f.text(key, nil)
}

// TextBoard draws rows (top first) as emoji with column numbers underneath.
func TextBoard(rows []string) string {
	var sb strings.Builder
	for _, row := range rows {
		for i := 0; i < len(row); i++ {
			if e, ok := cellEmoji[row[i]]; ok {
				sb.WriteString(e)
			} else {
				sb.WriteString(strconv.Quote(string(row[i])))
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Join(columnLabels, ""))
	return sb.String()
}
