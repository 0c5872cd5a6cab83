package metrics

import "time"

// OrgReport is the final, rounded result of one run. Renderers format it
// without further arithmetic.
type OrgReport struct {
	Org         string        `json:"org"`
	Window      Window        `json:"window"`
	GeneratedAt time.Time     `json:"generated_at"`
	Users       []UserMetrics `json:"users"`
	Overall     OverallStats  `json:"overall"`
}

// NewOrgReport rolls up users at full precision and then rounds every rate
// and average to two decimals. users is not modified.
func NewOrgReport(org string, w Window, generatedAt time.Time, users []UserMetrics) *OrgReport {
	overall := Rollup(users)

	rounded := make([]UserMetrics, len(users))
	for i, u := range users {
		rounded[i] = finalizeUser(u)
	}

	return &OrgReport{
		Org:         org,
		Window:      w,
		GeneratedAt: generatedAt,
		Users:       rounded,
		Overall:     finalizeOverall(overall),
	}
}

func finalizeUser(u UserMetrics) UserMetrics {
	u.MergeRate = Round2(u.MergeRate)
	u.AbandonmentRate = Round2(u.AbandonmentRate)
	u.AverageMergeTimeHours = Round2(u.AverageMergeTimeHours)
	u.AverageLinesChanged = Round2(u.AverageLinesChanged)

	if u.AI != nil {
		ai := *u.AI
		ai.SessionHours = Round2(ai.SessionHours)
		ai.ChatAcceptanceRate = Round2(ai.ChatAcceptanceRate)
		u.AI = &ai
	}

	if len(u.PRs) > 0 {
		prs := make([]PRDetail, len(u.PRs))
		for i, d := range u.PRs {
			if d.MergeTimeHours != nil {
				h := Round2(*d.MergeTimeHours)
				d.MergeTimeHours = &h
			}
			prs[i] = d
		}
		u.PRs = prs
	}
	return u
}

func finalizeOverall(s OverallStats) OverallStats {
	s.MergeRate = Round2(s.MergeRate)
	s.AbandonmentRate = Round2(s.AbandonmentRate)
	s.AverageMergeTimeHours = Round2(s.AverageMergeTimeHours)
	s.P90MergeTimeHours = Round2(s.P90MergeTimeHours)
	s.P95MergeTimeHours = Round2(s.P95MergeTimeHours)
	s.AverageLinesChanged = Round2(s.AverageLinesChanged)
	s.P90CodingDays = Round2(s.P90CodingDays)
	s.P95CodingDays = Round2(s.P95CodingDays)

	s.AI.SessionHours = Round2(s.AI.SessionHours)
	s.AI.AcceptanceRate = Round2(s.AI.AcceptanceRate)
	s.AI.AvgAcceptedLines = Round2(s.AI.AvgAcceptedLines)
	s.AI.AvgCompletions = Round2(s.AI.AvgCompletions)
	s.AI.AvgEdits = Round2(s.AI.AvgEdits)
	s.AI.AvgSessions = Round2(s.AI.AvgSessions)
	s.AI.AvgSessionHours = Round2(s.AI.AvgSessionHours)
	s.AI.AvgFilesEdited = Round2(s.AI.AvgFilesEdited)
	return s
}
