package ticket

import (
	"time"
)

// Person is an identity record from the tracker (assignee, author, ...).
type Person struct {
	AccountID   string `json:"accountId,omitempty"`
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}

// ID returns the most stable identifier available for the person.
func (p Person) ID() string {
	switch {
	case p.AccountID != "":
		return p.AccountID
	case p.Name != "":
		return p.Name
	default:
		return p.DisplayName
	}
}

// Status is a workflow status together with its category.
type Status struct {
	Name        string `json:"name"`
	CategoryKey string `json:"categoryKey"`
	Category    string `json:"category"`
}

// ProjectRef identifies the project a work item belongs to.
type ProjectRef struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Version is a fix or affects version.
type Version struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name"`
	Released    bool       `json:"released"`
	ReleaseDate *time.Time `json:"releaseDate,omitempty"`
}

// Metadata is the identity and classification of a work item.
// Key and Created are always set; every other field defaults when absent.
type Metadata struct {
	Key            string     `json:"key"`
	ID             string     `json:"id,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         Status     `json:"status"`
	IssueType      string     `json:"issueType"`
	IsSubtask      bool       `json:"isSubtask,omitempty"`
	Priority       string     `json:"priority"`
	Resolution     string     `json:"resolution,omitempty"`
	Assignee       *Person    `json:"assignee,omitempty"`
	Reporter       *Person    `json:"reporter,omitempty"`
	Created        time.Time  `json:"created"`
	Updated        *time.Time `json:"updated,omitempty"`
	Resolved       *time.Time `json:"resolved,omitempty"`
	Project        ProjectRef `json:"project"`
	Labels         []string   `json:"labels"`
	Components     []string   `json:"components"`
	FixVersions    []Version  `json:"fixVersions"`
	AffectsVersion []Version  `json:"affectsVersions"`
}

// Comment is a single comment on a work item.
type Comment struct {
	ID      string     `json:"id,omitempty"`
	Author  Person     `json:"author"`
	Body    string     `json:"body"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated,omitempty"`
}

// Worklog is a single time-tracking entry.
type Worklog struct {
	ID               string     `json:"id,omitempty"`
	Author           Person     `json:"author"`
	Comment          string     `json:"comment,omitempty"`
	TimeSpent        string     `json:"timeSpent"`
	TimeSpentSeconds int64      `json:"timeSpentSeconds"`
	Started          *time.Time `json:"started,omitempty"`
	Created          time.Time  `json:"created"`
	Updated          *time.Time `json:"updated,omitempty"`
}

// At returns the moment the work was logged against: the start time when
// known, the creation time otherwise.
func (w Worklog) At() time.Time {
	if w.Started != nil {
		return *w.Started
	}
	return w.Created
}

// Link directions relative to the subject work item.
const (
	Inward  = "inward"
	Outward = "outward"
)

// LinkType describes a link relationship and its phrasing in both directions.
type LinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

// LinkedIssue is a reference to another work item.
type LinkedIssue struct {
	Key       string   `json:"key"`
	Summary   string   `json:"summary"`
	Status    string   `json:"status"`
	IssueType string   `json:"issueType"`
	Priority  string   `json:"priority"`
	LinkType  LinkType `json:"linkType"`
	Direction string   `json:"direction"`
}

// FieldChange is one field modification inside a change-history entry.
type FieldChange struct {
	Field      string `json:"field"`
	FieldType  string `json:"fieldType,omitempty"`
	From       string `json:"from,omitempty"`
	FromString string `json:"fromString,omitempty"`
	To         string `json:"to,omitempty"`
	ToString   string `json:"toString,omitempty"`
}

// ChangeHistoryEntry is a set of field changes made by one author at one time.
type ChangeHistoryEntry struct {
	ID      string        `json:"id,omitempty"`
	Author  Person        `json:"author"`
	Created time.Time     `json:"created"`
	Items   []FieldChange `json:"items"`
}

// Change returns the first change of the named field, if any.
func (e ChangeHistoryEntry) Change(field string) (FieldChange, bool) {
	for _, item := range e.Items {
		if item.Field == field {
			return item, true
		}
	}
	return FieldChange{}, false
}

// SprintInfo is a sprint the work item was (or is) part of.
type SprintInfo struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	State     string     `json:"state"`
	Goal      string     `json:"goal,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

// EpicRef points at the epic the work item belongs to.
type EpicRef struct {
	Key     string `json:"key"`
	Summary string `json:"summary,omitempty"`
	Status  string `json:"status,omitempty"`
}

// Custom field value shapes.
const (
	FieldUser    = "user"
	FieldOption  = "option"
	FieldArray   = "array"
	FieldObject  = "object"
	FieldString  = "string"
	FieldNumber  = "number"
	FieldBoolean = "boolean"
)

// CustomField is a tracker-specific field carried without a fixed schema.
// Type tells consumers how to interpret Value.
type CustomField struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Value   any    `json:"value"`
	Type    string `json:"type"`
	Display string `json:"display"`
}

// Attachment is a file attached to the work item.
type Attachment struct {
	ID       string    `json:"id,omitempty"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	MimeType string    `json:"mimeType"`
	Author   Person    `json:"author"`
	Created  time.Time `json:"created"`
	URL      string    `json:"url,omitempty"`
}

// TimeTracking holds the estimate/spent totals in seconds with their
// human-readable forms.
type TimeTracking struct {
	OriginalEstimate         string `json:"originalEstimate,omitempty"`
	RemainingEstimate        string `json:"remainingEstimate,omitempty"`
	TimeSpent                string `json:"timeSpent,omitempty"`
	OriginalEstimateSeconds  int64  `json:"originalEstimateSeconds"`
	RemainingEstimateSeconds int64  `json:"remainingEstimateSeconds"`
	TimeSpentSeconds         int64  `json:"timeSpentSeconds"`
}

// Details is the normalized aggregate of one work item. It is built once per
// analysis request and not modified afterwards.
type Details struct {
	Metadata      Metadata             `json:"metadata"`
	Comments      []Comment            `json:"comments"`
	Worklogs      []Worklog            `json:"worklogs"`
	LinkedIssues  []LinkedIssue        `json:"linkedIssues"`
	ChangeHistory []ChangeHistoryEntry `json:"changeHistory"`
	Sprints       []SprintInfo         `json:"sprints,omitempty"`
	Epic          *EpicRef             `json:"epic,omitempty"`
	CustomFields  []CustomField        `json:"customFields,omitempty"`
	Attachments   []Attachment         `json:"attachments,omitempty"`
	TimeTracking  *TimeTracking        `json:"timeTracking,omitempty"`
	StoryPoints   *float64             `json:"storyPoints,omitempty"`
	DueDate       *time.Time           `json:"dueDate,omitempty"`
}

// Summary is a flat projection of Details for quick display.
type Summary struct {
	Key                   string   `json:"key"`
	Title                 string   `json:"title"`
	Status                string   `json:"status"`
	IssueType             string   `json:"issueType"`
	Priority              string   `json:"priority"`
	Assignee              string   `json:"assignee"`
	CommentCount          int      `json:"commentCount"`
	WorklogCount          int      `json:"worklogCount"`
	TotalTimeSpentSeconds int64    `json:"totalTimeSpentSeconds"`
	LinkedIssueCount      int      `json:"linkedIssueCount"`
	ChangeCount           int      `json:"changeCount"`
	StatusChangeCount     int      `json:"statusChangeCount"`
	AttachmentCount       int      `json:"attachmentCount"`
	SprintCount           int      `json:"sprintCount"`
	CustomFieldCount      int      `json:"customFieldCount"`
	LabelCount            int      `json:"labelCount"`
	StoryPoints           *float64 `json:"storyPoints,omitempty"`
	HasDescription        bool     `json:"hasDescription"`
	HasEpic               bool     `json:"hasEpic"`
	HasDueDate            bool     `json:"hasDueDate"`
	IsResolved            bool     `json:"isResolved"`
}
