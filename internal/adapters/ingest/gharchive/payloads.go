package gharchive

import "errors"

var errMissingID = errors.New("payload entity has no id")

// User is the compact user object embedded in most payload entities
type User struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Type      string `json:"type"`
	SiteAdmin bool   `json:"site_admin"`
}

// Label is an issue or pull request label
type Label struct {
	Name string `json:"name"`
}

// Milestone is referenced by id only
type Milestone struct {
	ID int64 `json:"id"`
}

// App is a GitHub App that performed an action
type App struct {
	Slug string `json:"slug"`
}

// Team is a requested reviewer team
type Team struct {
	Name string `json:"name"`
}

// Reactions is the reaction rollup on issues and comments
type Reactions struct {
	TotalCount int64 `json:"total_count"`
	PlusOne    int64 `json:"+1"`
	MinusOne   int64 `json:"-1"`
	Laugh      int64 `json:"laugh"`
	Hooray     int64 `json:"hooray"`
	Confused   int64 `json:"confused"`
	Heart      int64 `json:"heart"`
	Rocket     int64 `json:"rocket"`
	Eyes       int64 `json:"eyes"`
}

// PushPayload is the payload of a PushEvent
type PushPayload struct {
	PushID       int64    `json:"push_id"`
	Size         *int64   `json:"size"`
	DistinctSize *int64   `json:"distinct_size"`
	Ref          string   `json:"ref"`
	Head         string   `json:"head"`
	Before       string   `json:"before"`
	Commits      []Commit `json:"commits"`
}

// Commit is one commit inside a push
type Commit struct {
	SHA    string `json:"sha"`
	Author struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"author"`
	Message  string `json:"message"`
	Distinct bool   `json:"distinct"`
}

func (*PushPayload) EventType() EventType { return TypePush }

func (p *PushPayload) validate() error {
	if p.PushID == 0 {
		return errMissingID
	}
	return nil
}

// CommitCommentPayload is the payload of a CommitCommentEvent
type CommitCommentPayload struct {
	Comment struct {
		ID                int64   `json:"id"`
		Position          *int64  `json:"position"`
		Line              *int64  `json:"line"`
		Path              *string `json:"path"`
		CommitID          string  `json:"commit_id"`
		AuthorAssociation *string `json:"author_association"`
		Body              *string `json:"body"`
	} `json:"comment"`
}

func (*CommitCommentPayload) EventType() EventType { return TypeCommitComment }

func (p *CommitCommentPayload) validate() error {
	if p.Comment.ID == 0 {
		return errMissingID
	}
	return nil
}

// WatchPayload is the payload of a WatchEvent; only the event log row is kept
type WatchPayload struct {
	Action string `json:"action"`
}

func (*WatchPayload) EventType() EventType { return TypeWatch }

// PublicPayload is the (empty) payload of a PublicEvent
type PublicPayload struct{}

func (*PublicPayload) EventType() EventType { return TypePublic }

// ReleasePayload is the payload of a ReleaseEvent
type ReleasePayload struct {
	Action  string `json:"action"`
	Release struct {
		ID              int64   `json:"id"`
		TagName         string  `json:"tag_name"`
		TargetCommitish string  `json:"target_commitish"`
		Name            *string `json:"name"`
		Draft           bool    `json:"draft"`
		Prerelease      bool    `json:"prerelease"`
		CreatedAt       *string `json:"created_at"`
		PublishedAt     *string `json:"published_at"`
		Body            *string `json:"body"`
	} `json:"release"`
}

func (*ReleasePayload) EventType() EventType { return TypeRelease }

func (p *ReleasePayload) validate() error {
	if p.Release.ID == 0 {
		return errMissingID
	}
	return nil
}

// DeletePayload is the payload of a DeleteEvent
type DeletePayload struct {
	Ref        string  `json:"ref"`
	RefType    string  `json:"ref_type"`
	PusherType *string `json:"pusher_type"`
}

func (*DeletePayload) EventType() EventType { return TypeDelete }

// GollumPayload is the payload of a GollumEvent (wiki edits)
type GollumPayload struct {
	Pages []WikiPage `json:"pages"`
}

// WikiPage is one page touched by a GollumEvent
type WikiPage struct {
	PageName string  `json:"page_name"`
	Title    string  `json:"title"`
	Summary  *string `json:"summary"`
	Action   string  `json:"action"`
	SHA      string  `json:"sha"`
}

func (*GollumPayload) EventType() EventType { return TypeGollum }

// MemberPayload is the payload of a MemberEvent
type MemberPayload struct {
	Action string `json:"action"`
	Member User   `json:"member"`
}

func (*MemberPayload) EventType() EventType { return TypeMember }

// ForkPayload is the payload of a ForkEvent
type ForkPayload struct {
	Forkee Forkee `json:"forkee"`
}

// Forkee is the repository created by a fork
type Forkee struct {
	ID                       int64    `json:"id"`
	Name                     string   `json:"name"`
	Private                  bool     `json:"private"`
	Owner                    User     `json:"owner"`
	Description              *string  `json:"description"`
	Fork                     bool     `json:"fork"`
	CreatedAt                *string  `json:"created_at"`
	UpdatedAt                *string  `json:"updated_at"`
	PushedAt                 *string  `json:"pushed_at"`
	Homepage                 *string  `json:"homepage"`
	Size                     *int64   `json:"size"`
	StargazersCount          *int64   `json:"stargazers_count"`
	WatchersCount            *int64   `json:"watchers_count"`
	Language                 *string  `json:"language"`
	HasIssues                *bool    `json:"has_issues"`
	HasProjects              *bool    `json:"has_projects"`
	HasDownloads             *bool    `json:"has_downloads"`
	HasWiki                  *bool    `json:"has_wiki"`
	HasPages                 *bool    `json:"has_pages"`
	ForksCount               *int64   `json:"forks_count"`
	Archived                 *bool    `json:"archived"`
	Disabled                 *bool    `json:"disabled"`
	OpenIssuesCount          *int64   `json:"open_issues_count"`
	AllowForking             *bool    `json:"allow_forking"`
	IsTemplate               *bool    `json:"is_template"`
	WebCommitSignoffRequired *bool    `json:"web_commit_signoff_required"`
	Topics                   []string `json:"topics"`
	Visibility               *string  `json:"visibility"`
	Forks                    *int64   `json:"forks"`
	OpenIssues               *int64   `json:"open_issues"`
	Watchers                 *int64   `json:"watchers"`
	DefaultBranch            *string  `json:"default_branch"`
	Public                   *bool    `json:"public"`
	License                  *struct {
		Key    string `json:"key"`
		Name   string `json:"name"`
		SpdxID string `json:"spdx_id"`
	} `json:"license"`
}

func (*ForkPayload) EventType() EventType { return TypeFork }

func (p *ForkPayload) validate() error {
	if p.Forkee.ID == 0 {
		return errMissingID
	}
	return nil
}

// CreatePayload is the payload of a CreateEvent
type CreatePayload struct {
	Ref          *string `json:"ref"`
	RefType      string  `json:"ref_type"`
	MasterBranch string  `json:"master_branch"`
	Description  *string `json:"description"`
	PusherType   *string `json:"pusher_type"`
}

func (*CreatePayload) EventType() EventType { return TypeCreate }

// Issue is the issue entity carried by issue and issue comment events
type Issue struct {
	ID                int64      `json:"id"`
	Number            int64      `json:"number"`
	Title             string     `json:"title"`
	User              User       `json:"user"`
	Labels            []Label    `json:"labels"`
	State             string     `json:"state"`
	Locked            bool       `json:"locked"`
	Assignee          *User      `json:"assignee"`
	Assignees         []User     `json:"assignees"`
	Milestone         *Milestone `json:"milestone"`
	Comments          int64      `json:"comments"`
	CreatedAt         string     `json:"created_at"`
	UpdatedAt         string     `json:"updated_at"`
	ClosedAt          *string    `json:"closed_at"`
	AuthorAssociation *string    `json:"author_association"`
	ActiveLockReason  *string    `json:"active_lock_reason"`
	Draft             *bool      `json:"draft"`
	PullRequest       *struct {
		URL *string `json:"url"`
	} `json:"pull_request"`
	Body        *string    `json:"body"`
	Reactions   *Reactions `json:"reactions"`
	App         *App       `json:"performed_via_github_app"`
	StateReason *string    `json:"state_reason"`
}

// IssuesPayload is the payload of an IssuesEvent
type IssuesPayload struct {
	Action string `json:"action"`
	Issue  Issue  `json:"issue"`
}

func (*IssuesPayload) EventType() EventType { return TypeIssues }

func (p *IssuesPayload) validate() error {
	if p.Issue.ID == 0 {
		return errMissingID
	}
	return nil
}

// IssueCommentPayload is the payload of an IssueCommentEvent
type IssueCommentPayload struct {
	Action  string `json:"action"`
	Issue   Issue  `json:"issue"`
	Comment struct {
		ID                int64   `json:"id"`
		User              User    `json:"user"`
		CreatedAt         string  `json:"created_at"`
		UpdatedAt         string  `json:"updated_at"`
		AuthorAssociation *string `json:"author_association"`
		Body              *string `json:"body"`
		App               *App    `json:"performed_via_github_app"`
	} `json:"comment"`
}

func (*IssueCommentPayload) EventType() EventType { return TypeIssueComment }

func (p *IssueCommentPayload) validate() error {
	if p.Comment.ID == 0 || p.Issue.ID == 0 {
		return errMissingID
	}
	return nil
}

// PullRequest is the pull request entity carried by the pull request event family
type PullRequest struct {
	ID                  int64      `json:"id"`
	Number              int64      `json:"number"`
	State               string     `json:"state"`
	Locked              bool       `json:"locked"`
	Title               string     `json:"title"`
	User                User       `json:"user"`
	Body                *string    `json:"body"`
	CreatedAt           string     `json:"created_at"`
	UpdatedAt           string     `json:"updated_at"`
	ClosedAt            *string    `json:"closed_at"`
	MergedAt            *string    `json:"merged_at"`
	MergeCommitSHA      *string    `json:"merge_commit_sha"`
	Assignee            *User      `json:"assignee"`
	Assignees           []User     `json:"assignees"`
	RequestedReviewers  []User     `json:"requested_reviewers"`
	RequestedTeams      []Team     `json:"requested_teams"`
	Labels              []Label    `json:"labels"`
	Milestone           *Milestone `json:"milestone"`
	Draft               *bool      `json:"draft"`
	AuthorAssociation   *string    `json:"author_association"`
	ActiveLockReason    *string    `json:"active_lock_reason"`
	Merged              *bool      `json:"merged"`
	Mergeable           *bool      `json:"mergeable"`
	MergeableState      *string    `json:"mergeable_state"`
	MergedBy            *User      `json:"merged_by"`
	Comments            *int64     `json:"comments"`
	ReviewComments      *int64     `json:"review_comments"`
	MaintainerCanModify *bool      `json:"maintainer_can_modify"`
	Commits             *int64     `json:"commits"`
	Additions           *int64     `json:"additions"`
	Deletions           *int64     `json:"deletions"`
	ChangedFiles        *int64     `json:"changed_files"`
	Head                BranchRef  `json:"head"`
	Base                BranchRef  `json:"base"`
}

// BranchRef is a pull request head or base
type BranchRef struct {
	SHA  string `json:"sha"`
	Repo *struct {
		ID int64 `json:"id"`
	} `json:"repo"`
}

// PullRequestPayload is the payload of a PullRequestEvent
type PullRequestPayload struct {
	Action      string      `json:"action"`
	PullRequest PullRequest `json:"pull_request"`
}

func (*PullRequestPayload) EventType() EventType { return TypePullRequest }

func (p *PullRequestPayload) validate() error {
	if p.PullRequest.ID == 0 {
		return errMissingID
	}
	return nil
}

// PullRequestReviewPayload is the payload of a PullRequestReviewEvent
type PullRequestReviewPayload struct {
	Action string `json:"action"`
	Review struct {
		ID                int64   `json:"id"`
		User              User    `json:"user"`
		Body              *string `json:"body"`
		CommitID          *string `json:"commit_id"`
		SubmittedAt       *string `json:"submitted_at"`
		State             string  `json:"state"`
		AuthorAssociation *string `json:"author_association"`
	} `json:"review"`
	PullRequest PullRequest `json:"pull_request"`
}

func (*PullRequestReviewPayload) EventType() EventType { return TypePullRequestReview }

func (p *PullRequestReviewPayload) validate() error {
	if p.Review.ID == 0 || p.PullRequest.ID == 0 {
		return errMissingID
	}
	return nil
}

// PullRequestReviewCommentPayload is the payload of a PullRequestReviewCommentEvent
type PullRequestReviewCommentPayload struct {
	Action  string `json:"action"`
	Comment struct {
		ID                  int64      `json:"id"`
		PullRequestReviewID *int64     `json:"pull_request_review_id"`
		DiffHunk            string     `json:"diff_hunk"`
		Path                string     `json:"path"`
		Position            *int64     `json:"position"`
		OriginalPosition    *int64     `json:"original_position"`
		CommitID            string     `json:"commit_id"`
		OriginalCommitID    string     `json:"original_commit_id"`
		User                User       `json:"user"`
		Body                string     `json:"body"`
		CreatedAt           string     `json:"created_at"`
		UpdatedAt           string     `json:"updated_at"`
		AuthorAssociation   *string    `json:"author_association"`
		Reactions           *Reactions `json:"reactions"`
		StartLine           *int64     `json:"start_line"`
		OriginalStartLine   *int64     `json:"original_start_line"`
		StartSide           *string    `json:"start_side"`
		Line                *int64     `json:"line"`
		OriginalLine        *int64     `json:"original_line"`
		Side                *string    `json:"side"`
		InReplyToID         *int64     `json:"in_reply_to_id"`
	} `json:"comment"`
	PullRequest PullRequest `json:"pull_request"`
}

func (*PullRequestReviewCommentPayload) EventType() EventType { return TypePullRequestReviewComment }

func (p *PullRequestReviewCommentPayload) validate() error {
	if p.Comment.ID == 0 || p.PullRequest.ID == 0 {
		return errMissingID
	}
	return nil
}
