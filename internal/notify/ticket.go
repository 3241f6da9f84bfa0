package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/veris-memory/sentinel/internal/alerts"
)

// TicketSink opens or comments on a GitHub issue per failing check,
// implementing the "ticket sink" of spec.md §4.4/§6. An open issue is
// matched by its exact title, which is built from the check ID alone
// (issueTitle): if one is open it gets a comment, otherwise a new issue
// is opened. The alert's status and message are not part of the match,
// so every alert for a check lands on the same open issue.
type TicketSink struct {
	client *github.Client
	owner  string
	repo   string
}

// NewTicketSink builds a sink against ownerRepo ("owner/repo"),
// authenticated with token.
func NewTicketSink(ctx context.Context, token, ownerRepo string) (*TicketSink, error) {
	owner, repo, ok := strings.Cut(ownerRepo, "/")
	if !ok {
		return nil, fmt.Errorf("notify: github_repo must be \"owner/repo\", got %q", ownerRepo)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	return &TicketSink{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}, nil
}

func (s *TicketSink) Name() string { return "ticket" }

// Dispatch opens a new issue for p.CheckID, or comments on the existing
// open issue whose title matches issueTitle(p.CheckID). Only the first
// page of open issues returned by the API is searched. Failures to
// reach the tracker are non-fatal — the caller logs and moves on.
func (s *TicketSink) Dispatch(ctx context.Context, p alerts.Payload) error {
	title := issueTitle(p.CheckID)

	existing, err := s.findOpenIssue(ctx, title)
	if err != nil {
		return fmt.Errorf("notify: searching open issues: %w", err)
	}

	body := issueBody(p)
	if existing != nil {
		_, _, err := s.client.Issues.CreateComment(ctx, s.owner, s.repo, existing.GetNumber(), &github.IssueComment{Body: &body})
		if err != nil {
			return fmt.Errorf("notify: commenting on issue #%d: %w", existing.GetNumber(), err)
		}
		return nil
	}

	_, _, err = s.client.Issues.Create(ctx, s.owner, s.repo, &github.IssueRequest{
		Title: &title,
		Body:  &body,
	})
	if err != nil {
		return fmt.Errorf("notify: creating issue: %w", err)
	}
	return nil
}

func (s *TicketSink) findOpenIssue(ctx context.Context, title string) (*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{State: "open"}
	issues, _, err := s.client.Issues.ListByRepo(ctx, s.owner, s.repo, opts)
	if err != nil {
		return nil, err
	}
	for _, issue := range issues {
		if issue.GetTitle() == title {
			return issue, nil
		}
	}
	return nil, nil
}

func issueTitle(checkID string) string {
	return fmt.Sprintf("[sentinel] %s failing", checkID)
}

func issueBody(p alerts.Payload) string {
	return fmt.Sprintf("Check: %s\nSeverity: %s\nStatus: %s\nTime: %s\nMessage: %s",
		p.CheckID, p.Severity, p.Status, p.Timestamp.UTC().Format("2006-01-02T15:04:05Z"), p.Message)
}
