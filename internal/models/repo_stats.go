package models

// RepoWindowStats holds the counts for the current 30-day window
type RepoWindowStats struct {
	PROpened                 int `json:"pr_opened"`
	PRMerged                 int `json:"pr_merged"`
	IssueCreated             int `json:"issue_created"`
	CurrentTotalContribution int `json:"currentTotalContribution"`
}

// RepoPreviousStats holds the counts for the preceding window
type RepoPreviousStats struct {
	PRMerged int `json:"pr_merged"`
}

// RepoGrowth is the change between the current and previous windows
type RepoGrowth struct {
	PRMerged int `json:"pr_merged"`
}

// RepoStats is the per-repository overview entry, rebuilt fully each run
type RepoStats struct {
	Name        string            `json:"name"`
	Description *string           `json:"description"`
	Language    *string           `json:"language"`
	AvatarURL   string            `json:"avatar_url"`
	HTMLURL     string            `json:"html_url"`
	Stars       int               `json:"stars"`
	Forks       int               `json:"forks"`
	Current     RepoWindowStats   `json:"current"`
	Previous    RepoPreviousStats `json:"previous"`
	Growth      RepoGrowth        `json:"growth"`
}

// Overview is the overview.json artifact
type Overview struct {
	UpdatedAt int64        `json:"updatedAt"`
	Period    string       `json:"period"`
	Repos     []*RepoStats `json:"repos"`
}
