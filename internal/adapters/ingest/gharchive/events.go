package gharchive

import (
	"encoding/json"

	perr "ghloader/internal/platform/errors"
)

// EventType is the closed set of type tags the loader understands
type EventType string

// Known event types
const (
	TypePush                     EventType = "PushEvent"
	TypeCommitComment            EventType = "CommitCommentEvent"
	TypeWatch                    EventType = "WatchEvent"
	TypeRelease                  EventType = "ReleaseEvent"
	TypeDelete                   EventType = "DeleteEvent"
	TypeGollum                   EventType = "GollumEvent"
	TypePublic                   EventType = "PublicEvent"
	TypeMember                   EventType = "MemberEvent"
	TypeFork                     EventType = "ForkEvent"
	TypeCreate                   EventType = "CreateEvent"
	TypeIssues                   EventType = "IssuesEvent"
	TypeIssueComment             EventType = "IssueCommentEvent"
	TypePullRequest              EventType = "PullRequestEvent"
	TypePullRequestReview        EventType = "PullRequestReviewEvent"
	TypePullRequestReviewComment EventType = "PullRequestReviewCommentEvent"
)

// Envelope is the outer event record GH Archive stores per line
// Payload stays raw until the type tag selects a concrete payload struct
type Envelope struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Actor     Actor           `json:"actor"`
	Repo      Repo            `json:"repo"`
	Org       *Org            `json:"org"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt string          `json:"created_at"`
}

// Actor is the user who triggered the event
type Actor struct {
	ID    *int64 `json:"id"`
	Login string `json:"login"`
}

// Repo is the repository the event occurred in
type Repo struct {
	ID   *int64 `json:"id"`
	Name string `json:"name"`
}

// Org is the optional organization owning the repository
type Org struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// DecodeEnvelope decodes only the common envelope of a raw line
// A line without an id or type tag is reported as a malformed event
func DecodeEnvelope(line []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Envelope{}, perr.Wrap(err, perr.ErrorCodeMalformedEvent, "decode envelope")
	}
	if env.ID == "" || env.Type == "" {
		return Envelope{}, perr.Malformedf("envelope missing id or type")
	}
	return env, nil
}

// Payload is implemented by every concrete payload struct
type Payload interface {
	EventType() EventType
}

// DecodePayload decodes env.Payload into the struct matching env.Type
// Unknown tags yield an UnknownEventType error; decode failures a MalformedEvent error
func DecodePayload(env Envelope) (Payload, error) {
	var p Payload
	optional := false
	switch env.Type {
	case TypePush:
		p = &PushPayload{}
	case TypeCommitComment:
		p = &CommitCommentPayload{}
	case TypeWatch:
		p, optional = &WatchPayload{}, true
	case TypeRelease:
		p = &ReleasePayload{}
	case TypeDelete:
		p = &DeletePayload{}
	case TypeGollum:
		p = &GollumPayload{}
	case TypePublic:
		p, optional = &PublicPayload{}, true
	case TypeMember:
		p = &MemberPayload{}
	case TypeFork:
		p = &ForkPayload{}
	case TypeCreate:
		p = &CreatePayload{}
	case TypeIssues:
		p = &IssuesPayload{}
	case TypeIssueComment:
		p = &IssueCommentPayload{}
	case TypePullRequest:
		p = &PullRequestPayload{}
	case TypePullRequestReview:
		p = &PullRequestReviewPayload{}
	case TypePullRequestReviewComment:
		p = &PullRequestReviewCommentPayload{}
	default:
		return nil, perr.UnknownTypef("unknown event type %q", env.Type)
	}
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		if optional {
			return p, nil
		}
		return nil, perr.Malformedf("%s %s: empty payload", env.Type, env.ID)
	}
	if err := json.Unmarshal(env.Payload, p); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeMalformedEvent, "%s %s: decode payload", env.Type, env.ID)
	}
	if v, ok := p.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeMalformedEvent, "%s %s", env.Type, env.ID)
		}
	}
	return p, nil
}
