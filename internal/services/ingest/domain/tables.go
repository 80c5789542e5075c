package domain

// ColumnType is the storage type of a catalogue column
// It drives DDL on both backends and value coercion for the row appenders
type ColumnType int

const (
	// Text is a free form string
	Text ColumnType = iota
	// BigInt is a 64 bit integer
	BigInt
	// Bool is a boolean
	Bool
	// Timestamp is an RFC3339 instant kept as text until a typed appender needs it
	Timestamp
	// BigIntArray is a list of 64 bit integers
	BigIntArray
	// TextArray is a list of strings
	TextArray
)

// Column is one named, typed column of a table
type Column struct {
	Name string
	Type ColumnType
}

// Table describes one output table: its name, its column order and the column indexed after load
type Table struct {
	Name    string
	Columns []Column
	Key     string
}

// ColumnNames returns the column names in CSV order
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Table names
const (
	TableEvents                    = "events"
	TablePushes                    = "pushes"
	TableCommits                   = "commits"
	TableCommitComments            = "commit_comments"
	TableReleases                  = "releases"
	TableDeletes                   = "deletes"
	TableWikiPages                 = "wiki_pages"
	TableMembers                   = "members"
	TableForks                     = "forks"
	TableCreates                   = "creates"
	TableIssues                    = "issues"
	TableIssueComments             = "issue_comments"
	TablePullRequests              = "pull_requests"
	TablePullRequestReviews        = "pull_request_reviews"
	TablePullRequestReviewComments = "pull_request_review_comments"
)

func cols(pairs ...any) []Column {
	out := make([]Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Column{Name: pairs[i].(string), Type: pairs[i+1].(ColumnType)})
	}
	return out
}

func user(prefix string) []any {
	return []any{
		prefix + "_id", BigInt,
		prefix + "_login", Text,
		prefix + "_type", Text,
		prefix + "_site_admin", Bool,
	}
}

func reactions() []any {
	return []any{
		"reactions_total", BigInt,
		"reactions_plus_one", BigInt,
		"reactions_minus_one", BigInt,
		"reactions_laugh", BigInt,
		"reactions_hooray", BigInt,
		"reactions_confused", BigInt,
		"reactions_heart", BigInt,
		"reactions_rocket", BigInt,
		"reactions_eyes", BigInt,
	}
}

func join(parts ...[]any) []any {
	var out []any
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Tables is the catalogue of every table the normalizer writes, in load order
var Tables = []Table{
	{Name: TableEvents, Key: "id", Columns: cols(
		"id", Text,
		"type", Text,
		"actor_id", BigInt,
		"actor_login", Text,
		"repo_id", BigInt,
		"repo_name", Text,
		"payload_id", BigInt,
		"created_at", Timestamp,
		"org_id", BigInt,
		"org_login", Text,
	)},
	{Name: TablePushes, Key: "push_id", Columns: cols(
		"push_id", BigInt,
		"size", BigInt,
		"distinct_size", BigInt,
		"ref", Text,
		"head", Text,
		"before", Text,
	)},
	{Name: TableCommits, Key: "push_id", Columns: cols(
		"sha", Text,
		"push_id", BigInt,
		"author_email", Text,
		"author_name", Text,
		"message", Text,
		"distinct", Bool,
	)},
	{Name: TableCommitComments, Key: "id", Columns: cols(
		"id", BigInt,
		"position", BigInt,
		"line", BigInt,
		"path", Text,
		"commit_id", Text,
		"author_association", Text,
		"body", Text,
	)},
	{Name: TableReleases, Key: "id", Columns: cols(
		"id", BigInt,
		"tag_name", Text,
		"target_commitish", Text,
		"name", Text,
		"draft", Bool,
		"prerelease", Bool,
		"created_at", Timestamp,
		"published_at", Timestamp,
		"body", Text,
	)},
	{Name: TableDeletes, Key: "event_id", Columns: cols(
		"event_id", Text,
		"ref", Text,
		"ref_type", Text,
		"pusher_type", Text,
	)},
	{Name: TableWikiPages, Key: "event_id", Columns: cols(
		"event_id", Text,
		"page_name", Text,
		"title", Text,
		"summary", Text,
		"action", Text,
		"sha", Text,
	)},
	{Name: TableMembers, Key: "event_id", Columns: cols(join(
		[]any{"event_id", Text},
		user("member"),
		[]any{"action", Text},
	)...)},
	{Name: TableForks, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"name", Text,
			"private", Bool,
		},
		user("owner"),
		[]any{
			"description", Text,
			"fork", Bool,
			"created_at", Timestamp,
			"updated_at", Timestamp,
			"pushed_at", Timestamp,
			"homepage", Text,
			"size", BigInt,
			"stargazers_count", BigInt,
			"watchers_count", BigInt,
			"language", Text,
			"has_issues", Bool,
			"has_projects", Bool,
			"has_downloads", Bool,
			"has_wiki", Bool,
			"has_pages", Bool,
			"forks_count", BigInt,
			"archived", Bool,
			"disabled", Bool,
			"open_issues_count", BigInt,
			"allow_forking", Bool,
			"is_template", Bool,
			"web_commit_signoff_required", Bool,
			"topics", TextArray,
			"visibility", Text,
			"forks", BigInt,
			"open_issues", BigInt,
			"watchers", BigInt,
			"default_branch", Text,
			"public", Bool,
			"license_key", Text,
			"license_name", Text,
			"license_spdx_id", Text,
		},
	)...)},
	{Name: TableCreates, Key: "event_id", Columns: cols(
		"event_id", Text,
		"ref", Text,
		"ref_type", Text,
		"master_branch", Text,
		"description", Text,
		"pusher_type", Text,
	)},
	{Name: TableIssues, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"action", Text,
			"number", BigInt,
			"title", Text,
		},
		user("user"),
		[]any{
			"labels", TextArray,
			"state", Text,
			"locked", Bool,
			"assignee_id", BigInt,
			"assignee_ids", BigIntArray,
			"milestone_id", BigInt,
			"comments", BigInt,
			"created_at", Timestamp,
			"updated_at", Timestamp,
			"closed_at", Timestamp,
			"author_association", Text,
			"active_lock_reason", Text,
			"draft", Bool,
			"pull_request_url", Text,
			"body", Text,
		},
		reactions(),
		[]any{
			"app_slug", Text,
			"state_reason", Text,
		},
	)...)},
	{Name: TableIssueComments, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"issue_id", BigInt,
		},
		user("user"),
		[]any{
			"created_at", Timestamp,
			"updated_at", Timestamp,
			"author_association", Text,
			"body", Text,
			"app_slug", Text,
		},
	)...)},
	{Name: TablePullRequests, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"action", Text,
			"number", BigInt,
			"state", Text,
			"locked", Bool,
			"title", Text,
		},
		user("user"),
		[]any{
			"body", Text,
			"created_at", Timestamp,
			"updated_at", Timestamp,
			"closed_at", Timestamp,
			"merged_at", Timestamp,
			"merge_commit_sha", Text,
			"assignee_id", BigInt,
			"assignee_ids", BigIntArray,
			"requested_reviewer_ids", BigIntArray,
			"requested_teams", TextArray,
			"labels", TextArray,
			"milestone_id", BigInt,
			"draft", Bool,
			"author_association", Text,
			"active_lock_reason", Text,
			"merged", Bool,
			"mergeable", Bool,
			"mergeable_state", Text,
			"merged_by_id", BigInt,
			"comments", BigInt,
			"review_comments", BigInt,
			"maintainer_can_modify", Bool,
			"commits", BigInt,
			"additions", BigInt,
			"deletions", BigInt,
			"changed_files", BigInt,
			"head_repo_id", BigInt,
			"head_sha", Text,
			"base_repo_id", BigInt,
			"base_sha", Text,
		},
	)...)},
	{Name: TablePullRequestReviews, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"action", Text,
		},
		user("user"),
		[]any{
			"body", Text,
			"commit_id", Text,
			"submitted_at", Timestamp,
			"state", Text,
			"author_association", Text,
			"pull_request_id", BigInt,
		},
	)...)},
	{Name: TablePullRequestReviewComments, Key: "id", Columns: cols(join(
		[]any{
			"id", BigInt,
			"pull_request_review_id", BigInt,
			"diff_hunk", Text,
			"path", Text,
			"position", BigInt,
			"original_position", BigInt,
			"commit_id", Text,
			"original_commit_id", Text,
		},
		user("user"),
		[]any{
			"body", Text,
			"created_at", Timestamp,
			"updated_at", Timestamp,
			"author_association", Text,
		},
		reactions(),
		[]any{
			"start_line", BigInt,
			"original_start_line", BigInt,
			"start_side", Text,
			"line", BigInt,
			"original_line", BigInt,
			"side", Text,
			"in_reply_to_id", BigInt,
			"pull_request_id", BigInt,
		},
	)...)},
}

var tableIndex = func() map[string]int {
	m := make(map[string]int, len(Tables))
	for i, t := range Tables {
		m[t.Name] = i
	}
	return m
}()

// TableByName looks a table up in the catalogue
func TableByName(name string) (Table, bool) {
	i, ok := tableIndex[name]
	if !ok {
		return Table{}, false
	}
	return Tables[i], true
}

// TableNames returns every catalogue table name in load order
func TableNames() []string {
	out := make([]string, len(Tables))
	for i, t := range Tables {
		out[i] = t.Name
	}
	return out
}
