package normalize

import (
	"ghloader/internal/adapters/ingest/gharchive"
	"ghloader/internal/services/ingest/domain"
)

// nil pointers must become untyped nil so the sink writes NULL

func i64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolean(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func userVals(u gharchive.User) []any {
	return []any{u.ID, u.Login, u.Type, u.SiteAdmin}
}

func userID(u *gharchive.User) any {
	if u == nil {
		return nil
	}
	return u.ID
}

func userIDs(us []gharchive.User) any {
	if len(us) == 0 {
		return nil
	}
	out := make([]int64, len(us))
	for i, u := range us {
		out[i] = u.ID
	}
	return out
}

func labelNames(ls []gharchive.Label) any {
	if len(ls) == 0 {
		return nil
	}
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.Name
	}
	return out
}

func teamNames(ts []gharchive.Team) any {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}

func stringList(ss []string) any {
	if len(ss) == 0 {
		return nil
	}
	return ss
}

func milestoneID(m *gharchive.Milestone) any {
	if m == nil {
		return nil
	}
	return m.ID
}

func appSlug(a *gharchive.App) any {
	if a == nil || a.Slug == "" {
		return nil
	}
	return a.Slug
}

func reactionVals(r *gharchive.Reactions) []any {
	if r == nil {
		return make([]any, 9)
	}
	return []any{r.TotalCount, r.PlusOne, r.MinusOne, r.Laugh, r.Hooray, r.Confused, r.Heart, r.Rocket, r.Eyes}
}

func repoID(b gharchive.BranchRef) any {
	if b.Repo == nil {
		return nil
	}
	return b.Repo.ID
}

func row(parts ...[]any) domain.Row {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make(domain.Row, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
