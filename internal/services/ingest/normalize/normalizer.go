// Package normalize flattens raw archive lines into catalogue rows under month scoped dedup
package normalize

import (
	"context"
	"os"

	"ghloader/internal/adapters/ingest/gharchive"
	perr "ghloader/internal/platform/errors"
	"ghloader/internal/platform/logger"
	pstrings "ghloader/internal/platform/strings"
	"ghloader/internal/services/ingest/domain"
)

// Result is the outcome of one line; Reason is set for skips
type Result struct {
	Outcome domain.Outcome
	Reason  error
}

// Normalizer turns bucket files into rows written to a domain.RowWriter
type Normalizer struct {
	log     *logger.Logger
	keepRaw bool
}

// Option configures the normalizer
type Option func(*Normalizer)

// WithKeepRaw keeps bucket files after processing
func WithKeepRaw(keep bool) Option { return func(n *Normalizer) { n.keepRaw = keep } }

// New builds a normalizer
func New(opts ...Option) *Normalizer {
	n := &Normalizer{log: logger.Named("normalize")}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Process walks the raw line file at path from its last line to its first
// Malformed and unknown lines are logged and counted; only I/O and writer failures are returned.
// The file is removed afterwards unless the normalizer keeps raw files.
func (n *Normalizer) Process(ctx context.Context, st *State, path string, w domain.RowWriter) (domain.Counters, error) {
	var c domain.Counters
	rl, err := gharchive.OpenReverse(path)
	if err != nil {
		return c, perr.Wrapf(err, perr.ErrorCodeExpand, "open %s", path)
	}

	for rl.Next() {
		if c.Lines%4096 == 0 {
			if err := ctx.Err(); err != nil {
				_ = rl.Close()
				return c, err
			}
		}
		c.Lines++
		res, err := n.Line(st, rl.Line(), w)
		if err != nil {
			_ = rl.Close()
			return c, err
		}
		switch res.Outcome {
		case domain.Emitted:
			c.Emitted++
		case domain.Duplicate:
			c.Duplicates++
		case domain.Skipped:
			if perr.IsCode(res.Reason, perr.ErrorCodeUnknownEventType) {
				c.Unknown++
			} else {
				c.Malformed++
			}
		}
	}
	rerr := rl.Err()
	_ = rl.Close()
	if rerr != nil {
		return c, perr.Wrapf(rerr, perr.ErrorCodeExpand, "read %s", path)
	}

	if !n.keepRaw {
		if err := os.Remove(path); err != nil {
			n.log.Warn().Err(err).Str("path", path).Msg("could not remove raw file")
		}
	}
	return c, nil
}

// Line normalizes a single raw line
// The returned error is reserved for writer failures, which are fatal to the run
func (n *Normalizer) Line(st *State, line []byte, w domain.RowWriter) (Result, error) {
	env, err := gharchive.DecodeEnvelope(line)
	if err != nil {
		n.log.Error().Err(err).Bytes("line", clip(line)).Msg("malformed event")
		return Result{Outcome: domain.Skipped, Reason: err}, nil
	}
	if !st.firstEvent(env.ID) {
		return Result{Outcome: domain.Duplicate}, nil
	}

	p, err := gharchive.DecodePayload(env)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeUnknownEventType) {
			n.log.Error().Str("event_id", env.ID).Str("type", string(env.Type)).Msg("unknown event type")
		} else {
			n.log.Error().Err(err).Str("event_id", env.ID).Str("type", string(env.Type)).Msg("malformed event")
		}
		return Result{Outcome: domain.Skipped, Reason: err}, nil
	}

	if err := dispatch(st, env, p, w); err != nil {
		return Result{}, err
	}
	return Result{Outcome: domain.Emitted}, nil
}

func clip(b []byte) []byte {
	if len(b) > 512 {
		return b[:512]
	}
	return b
}

// eventRow is the event log row every handled event produces
func eventRow(env gharchive.Envelope, payloadID any) domain.Row {
	var orgID, orgLogin any
	if env.Org != nil {
		orgID, orgLogin = env.Org.ID, env.Org.Login
	}
	return domain.Row{
		env.ID, string(env.Type),
		i64(env.Actor.ID), env.Actor.Login,
		i64(env.Repo.ID), env.Repo.Name,
		payloadID, env.CreatedAt,
		orgID, orgLogin,
	}
}

type writer struct {
	w   domain.RowWriter
	err error
}

func (x *writer) put(table string, r domain.Row) {
	if x.err == nil {
		x.err = x.w.WriteRow(table, r)
	}
}

func dispatch(st *State, env gharchive.Envelope, p gharchive.Payload, w domain.RowWriter) error {
	x := &writer{w: w}
	switch v := p.(type) {
	case *gharchive.PushPayload:
		x.put(domain.TableEvents, eventRow(env, v.PushID))
		if st.firstPush(v.PushID) {
			writePush(x, v)
		}
	case *gharchive.CommitCommentPayload:
		c := v.Comment
		x.put(domain.TableEvents, eventRow(env, c.ID))
		x.put(domain.TableCommitComments, domain.Row{c.ID, i64(c.Position), i64(c.Line), str(c.Path), c.CommitID, str(c.AuthorAssociation), str(c.Body)})
	case *gharchive.WatchPayload, *gharchive.PublicPayload:
		x.put(domain.TableEvents, eventRow(env, nil))
	case *gharchive.ReleasePayload:
		r := v.Release
		x.put(domain.TableEvents, eventRow(env, r.ID))
		x.put(domain.TableReleases, domain.Row{
			r.ID, r.TagName, r.TargetCommitish, str(pstrings.TruncatePtr(r.Name, 255)),
			r.Draft, r.Prerelease, str(r.CreatedAt), str(r.PublishedAt), str(r.Body),
		})
	case *gharchive.DeletePayload:
		x.put(domain.TableEvents, eventRow(env, nil))
		x.put(domain.TableDeletes, domain.Row{env.ID, pstrings.Truncate(v.Ref, 255), v.RefType, str(v.PusherType)})
	case *gharchive.GollumPayload:
		x.put(domain.TableEvents, eventRow(env, nil))
		for _, pg := range v.Pages {
			x.put(domain.TableWikiPages, domain.Row{
				env.ID, pstrings.Truncate(pg.PageName, 255), pstrings.Truncate(pg.Title, 255),
				str(pg.Summary), pg.Action, pg.SHA,
			})
		}
	case *gharchive.MemberPayload:
		x.put(domain.TableEvents, eventRow(env, nil))
		x.put(domain.TableMembers, row([]any{env.ID}, userVals(v.Member), []any{v.Action}))
	case *gharchive.ForkPayload:
		x.put(domain.TableEvents, eventRow(env, v.Forkee.ID))
		if st.firstFork(v.Forkee.ID) {
			x.put(domain.TableForks, forkRow(v.Forkee))
		}
	case *gharchive.CreatePayload:
		x.put(domain.TableEvents, eventRow(env, nil))
		x.put(domain.TableCreates, domain.Row{
			env.ID, str(pstrings.TruncatePtr(v.Ref, 127)), v.RefType,
			pstrings.Truncate(v.MasterBranch, 127), str(v.Description), str(v.PusherType),
		})
	case *gharchive.IssuesPayload:
		x.put(domain.TableEvents, eventRow(env, v.Issue.ID))
		if st.firstIssue(v.Issue.ID) {
			x.put(domain.TableIssues, issueRow(v.Action, v.Issue))
		}
	case *gharchive.IssueCommentPayload:
		c := v.Comment
		x.put(domain.TableEvents, eventRow(env, c.ID))
		if st.firstIssue(v.Issue.ID) {
			x.put(domain.TableIssues, issueRow(v.Action, v.Issue))
		}
		x.put(domain.TableIssueComments, row(
			[]any{c.ID, v.Issue.ID},
			userVals(c.User),
			[]any{c.CreatedAt, c.UpdatedAt, str(c.AuthorAssociation), str(c.Body), appSlug(c.App)},
		))
	case *gharchive.PullRequestPayload:
		x.put(domain.TableEvents, eventRow(env, v.PullRequest.ID))
		if st.firstPR(v.PullRequest.ID) {
			x.put(domain.TablePullRequests, pullRequestRow(v.Action, v.PullRequest))
		}
	case *gharchive.PullRequestReviewPayload:
		r := v.Review
		x.put(domain.TableEvents, eventRow(env, r.ID))
		x.put(domain.TablePullRequestReviews, row(
			[]any{r.ID, v.Action},
			userVals(r.User),
			[]any{str(r.Body), str(r.CommitID), str(r.SubmittedAt), r.State, str(r.AuthorAssociation), v.PullRequest.ID},
		))
		if st.firstPR(v.PullRequest.ID) {
			x.put(domain.TablePullRequests, pullRequestRow(v.Action, v.PullRequest))
		}
	case *gharchive.PullRequestReviewCommentPayload:
		c := v.Comment
		x.put(domain.TableEvents, eventRow(env, c.ID))
		x.put(domain.TablePullRequestReviewComments, row(
			[]any{
				c.ID, i64(c.PullRequestReviewID), c.DiffHunk, c.Path, i64(c.Position),
				i64(c.OriginalPosition), c.CommitID, c.OriginalCommitID,
			},
			userVals(c.User),
			[]any{c.Body, c.CreatedAt, c.UpdatedAt, str(c.AuthorAssociation)},
			reactionVals(c.Reactions),
			[]any{
				i64(c.StartLine), i64(c.OriginalStartLine), str(c.StartSide), i64(c.Line),
				i64(c.OriginalLine), str(c.Side), i64(c.InReplyToID), v.PullRequest.ID,
			},
		))
		if st.firstPR(v.PullRequest.ID) {
			x.put(domain.TablePullRequests, pullRequestRow(v.Action, v.PullRequest))
		}
	default:
		return perr.UnknownTypef("no row mapping for %T", p)
	}
	return x.err
}

func writePush(x *writer, v *gharchive.PushPayload) {
	x.put(domain.TablePushes, domain.Row{
		v.PushID, i64(v.Size), i64(v.DistinctSize), pstrings.Truncate(v.Ref, 255), v.Head, v.Before,
	})
	for _, c := range v.Commits {
		x.put(domain.TableCommits, domain.Row{
			c.SHA, v.PushID, pstrings.Truncate(c.Author.Email, 127), pstrings.Truncate(c.Author.Name, 127),
			c.Message, c.Distinct,
		})
	}
}

func forkRow(f gharchive.Forkee) domain.Row {
	var key, name, spdx any
	if f.License != nil {
		key, name, spdx = f.License.Key, f.License.Name, f.License.SpdxID
	}
	return row(
		[]any{f.ID, f.Name, f.Private},
		userVals(f.Owner),
		[]any{
			str(f.Description), f.Fork, str(f.CreatedAt), str(f.UpdatedAt), str(f.PushedAt),
			str(f.Homepage), i64(f.Size), i64(f.StargazersCount), i64(f.WatchersCount), str(f.Language),
			boolean(f.HasIssues), boolean(f.HasProjects), boolean(f.HasDownloads), boolean(f.HasWiki), boolean(f.HasPages),
			i64(f.ForksCount), boolean(f.Archived), boolean(f.Disabled), i64(f.OpenIssuesCount),
			boolean(f.AllowForking), boolean(f.IsTemplate), boolean(f.WebCommitSignoffRequired),
			stringList(f.Topics), str(f.Visibility), i64(f.Forks), i64(f.OpenIssues), i64(f.Watchers),
			str(f.DefaultBranch), boolean(f.Public), key, name, spdx,
		},
	)
}

func issueRow(action string, i gharchive.Issue) domain.Row {
	var prURL any
	if i.PullRequest != nil {
		prURL = str(i.PullRequest.URL)
	}
	return row(
		[]any{i.ID, action, i.Number, i.Title},
		userVals(i.User),
		[]any{
			labelNames(i.Labels), i.State, i.Locked, userID(i.Assignee), userIDs(i.Assignees),
			milestoneID(i.Milestone), i.Comments, i.CreatedAt, i.UpdatedAt, str(i.ClosedAt),
			str(i.AuthorAssociation), str(i.ActiveLockReason), boolean(i.Draft), prURL, str(i.Body),
		},
		reactionVals(i.Reactions),
		[]any{appSlug(i.App), str(i.StateReason)},
	)
}

func pullRequestRow(action string, pr gharchive.PullRequest) domain.Row {
	return row(
		[]any{pr.ID, action, pr.Number, pr.State, pr.Locked, pr.Title},
		userVals(pr.User),
		[]any{
			str(pr.Body), pr.CreatedAt, pr.UpdatedAt, str(pr.ClosedAt), str(pr.MergedAt), str(pr.MergeCommitSHA),
			userID(pr.Assignee), userIDs(pr.Assignees), userIDs(pr.RequestedReviewers), teamNames(pr.RequestedTeams),
			labelNames(pr.Labels), milestoneID(pr.Milestone), boolean(pr.Draft), str(pr.AuthorAssociation),
			str(pr.ActiveLockReason), boolean(pr.Merged), boolean(pr.Mergeable), str(pr.MergeableState),
			userID(pr.MergedBy), i64(pr.Comments), i64(pr.ReviewComments), boolean(pr.MaintainerCanModify),
			i64(pr.Commits), i64(pr.Additions), i64(pr.Deletions), i64(pr.ChangedFiles),
			repoID(pr.Head), pr.Head.SHA, repoID(pr.Base), pr.Base.SHA,
		},
	)
}
